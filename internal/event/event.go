// Package event defines the raw chain events the engine consumes. Amounts
// are raw contract units; decimal conversion happens in the handlers, which
// know each token's precision.
package event

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Meta carries the chain context shared by every pair event. Addresses keep
// their on-chain form here; handlers lowercase them into entity ids.
type Meta struct {
	PairAddress common.Address
	TxHash      common.Hash
	// Origin is the outer transaction's from address, used to un-wrap
	// router-mediated swaps.
	Origin      common.Address
	BlockNumber uint64
	Timestamp   uint64
	LogIndex    uint
}

// PairCreated announces a new pair contract, emitted by the factory. Meta's
// PairAddress holds the factory address for this event kind.
type PairCreated struct {
	Meta
	Token0 common.Address
	Token1 common.Address
	Pair   common.Address
}

// Transfer is a liquidity-token transfer emitted by a pair contract.
type Transfer struct {
	Meta
	From  common.Address
	To    common.Address
	Value *big.Int
}

// Mint is the detail event completing a pending mint record.
type Mint struct {
	Meta
	Sender  common.Address
	Amount0 *big.Int
	Amount1 *big.Int
}

// Burn is the detail event completing the last burn record.
type Burn struct {
	Meta
	Sender  common.Address
	To      common.Address
	Amount0 *big.Int
	Amount1 *big.Int
}

// Swap is the detail event describing one trade.
type Swap struct {
	Meta
	Sender     common.Address
	To         common.Address
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
}

// Sync reports a pair's reserves after any reserve-affecting operation.
type Sync struct {
	Meta
	Reserve0 *big.Int
	Reserve1 *big.Int
}
