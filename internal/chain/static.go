package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// StaticPairLookup resolves pairs from a fixed table. It backs tests and
// deterministic replays where live chain state must not leak in.
type StaticPairLookup struct {
	pairs map[string]common.Address
}

// NewStaticPairLookup constructs an empty lookup table.
func NewStaticPairLookup() *StaticPairLookup {
	return &StaticPairLookup{pairs: make(map[string]common.Address)}
}

// Register records the pair address for a token combination, both orderings.
func (s *StaticPairLookup) Register(tokenA, tokenB, pair common.Address) {
	s.pairs[pairKey(tokenA, tokenB)] = pair
	s.pairs[pairKey(tokenB, tokenA)] = pair
}

// GetPair returns the registered pair, or the zero address.
func (s *StaticPairLookup) GetPair(_ context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	return s.pairs[pairKey(tokenA, tokenB)], nil
}

func pairKey(a, b common.Address) string {
	return strings.ToLower(a.Hex()) + ":" + strings.ToLower(b.Hex())
}

var _ PairLookup = (*StaticPairLookup)(nil)

// StaticMetadata serves token metadata from a fixed table.
type StaticMetadata struct {
	tokens map[string]TokenMetadata
}

// NewStaticMetadata constructs an empty metadata table.
func NewStaticMetadata() *StaticMetadata {
	return &StaticMetadata{tokens: make(map[string]TokenMetadata)}
}

// Register records the metadata for a token address.
func (s *StaticMetadata) Register(token common.Address, meta TokenMetadata) {
	s.tokens[strings.ToLower(token.Hex())] = meta
}

// ReadTokenMetadata returns the registered metadata, or an error for an
// unknown token.
func (s *StaticMetadata) ReadTokenMetadata(_ context.Context, token common.Address) (TokenMetadata, error) {
	meta, ok := s.tokens[strings.ToLower(token.Hex())]
	if !ok {
		return TokenMetadata{}, fmt.Errorf("no metadata registered for %s", token.Hex())
	}
	return meta, nil
}

var _ MetadataReader = (*StaticMetadata)(nil)
