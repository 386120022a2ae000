// Package correlator assembles raw pair-contract events into logical Mint,
// Burn, and Swap records grouped per chain transaction, and applies their
// volume and liquidity effects to the live aggregates.
//
// Events must arrive in the exact order the chain emitted them: the transfer
// legs of an operation precede its detail event, and Sync follows every
// reserve-affecting event. A broken ordering assumption surfaces as an error
// rather than a silently corrupted aggregate, with one documented exception
// (a Burn detail without a known transaction is skipped).
package correlator

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dexgraph/internal/chain"
	"dexgraph/internal/config"
	"dexgraph/internal/entity"
	"dexgraph/internal/event"
	"dexgraph/internal/pricing"
	"dexgraph/internal/rollup"
)

// Correlator drives the per-pair event state machine.
type Correlator struct {
	store    *entity.Store
	oracle   *pricing.Oracle
	rollups  *rollup.Rollups
	metadata chain.MetadataReader
	logger   zerolog.Logger

	factoryID     string
	routerID      string
	stakingPools  map[string]struct{}
	bootstrapLock *big.Int
	lpDecimals    int32
}

// New wires a correlator against the store, oracle, rollup updaters, and the
// on-chain token metadata reader.
func New(cfg config.ProtocolConfig, store *entity.Store, oracle *pricing.Oracle, rollups *rollup.Rollups, metadata chain.MetadataReader, logger zerolog.Logger) *Correlator {
	pools := make(map[string]struct{}, len(cfg.StakingPools))
	for _, a := range cfg.StakingPools {
		pools[a] = struct{}{}
	}

	return &Correlator{
		store:         store,
		oracle:        oracle,
		rollups:       rollups,
		metadata:      metadata,
		logger:        logger.With().Str("component", "correlator").Logger(),
		factoryID:     cfg.FactoryAddress,
		routerID:      cfg.RouterAddress,
		stakingPools:  pools,
		bootstrapLock: big.NewInt(cfg.BootstrapLockAmount),
		lpDecimals:    cfg.LiquidityTokenDecimals,
	}
}

func addrID(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func hashID(h common.Hash) string {
	return strings.ToLower(h.Hex())
}

var zeroAddress = common.Address{}

// tokenAmount converts a raw uint amount into token units.
func tokenAmount(v *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(v, -decimals)
}

func (c *Correlator) ensureUser(id string) {
	if c.store.User(id) == nil {
		c.store.SaveUser(&entity.User{ID: id})
	}
}

// position returns the (pair, user) liquidity position, creating it and
// bumping the pair's provider count on first sight.
func (c *Correlator) position(pairID, userID string) *entity.LiquidityPosition {
	id := entity.LiquidityPositionID(pairID, userID)
	pos := c.store.LiquidityPosition(id)
	if pos != nil {
		return pos
	}

	pair := c.store.Pair(pairID)
	if pair != nil {
		pair.LiquidityProviderCount++
		c.store.SavePair(pair)
	}

	pos = &entity.LiquidityPosition{ID: id, Pair: pairID, User: userID}
	c.store.SaveLiquidityPosition(pos)
	return pos
}

// snapshot appends the position's state at this event for historical
// tracking.
func (c *Correlator) snapshot(pos *entity.LiquidityPosition, meta event.Meta) error {
	pair := c.store.Pair(pos.Pair)
	if pair == nil {
		return fmt.Errorf("snapshot: pair %s not found", pos.Pair)
	}
	token0 := c.store.Token(pair.Token0)
	token1 := c.store.Token(pair.Token1)
	if token0 == nil || token1 == nil {
		return fmt.Errorf("snapshot: tokens of pair %s not found", pair.ID)
	}
	bundle := c.store.Bundle()
	if bundle == nil {
		return fmt.Errorf("snapshot: bundle not found")
	}

	c.store.AddLiquiditySnapshot(&entity.LiquiditySnapshot{
		ID:                        entity.LiquiditySnapshotID(pos.ID, meta.Timestamp),
		Position:                  pos.ID,
		Pair:                      pair.ID,
		User:                      pos.User,
		Timestamp:                 meta.Timestamp,
		Block:                     meta.BlockNumber,
		Token0PriceUSD:            token0.DerivedNative.Mul(bundle.NativePriceUSD),
		Token1PriceUSD:            token1.DerivedNative.Mul(bundle.NativePriceUSD),
		Reserve0:                  pair.Reserve0,
		Reserve1:                  pair.Reserve1,
		ReserveUSD:                pair.ReserveUSD,
		LiquidityTokenTotalSupply: pair.TotalSupply,
		LiquidityTokenBalance:     pos.LiquidityTokenBalance,
	})
	return nil
}

// mintComplete reports the state of a mint record, failing loudly when the
// transaction references a record the store does not hold.
func (c *Correlator) mintComplete(id string) (bool, error) {
	mint := c.store.Mint(id)
	if mint == nil {
		return false, fmt.Errorf("mint %s referenced but not found", id)
	}
	return mint.Complete, nil
}

func (c *Correlator) factory() (*entity.Factory, error) {
	f := c.store.Factory(c.factoryID)
	if f == nil {
		return nil, fmt.Errorf("factory %s not found", c.factoryID)
	}
	return f, nil
}

func (c *Correlator) pairFor(meta event.Meta) (*entity.Pair, error) {
	id := addrID(meta.PairAddress)
	pair := c.store.Pair(id)
	if pair == nil {
		return nil, fmt.Errorf("pair %s not found", id)
	}
	return pair, nil
}

func (c *Correlator) tokensOf(pair *entity.Pair) (*entity.Token, *entity.Token, error) {
	token0 := c.store.Token(pair.Token0)
	if token0 == nil {
		return nil, nil, fmt.Errorf("token %s not found", pair.Token0)
	}
	token1 := c.store.Token(pair.Token1)
	if token1 == nil {
		return nil, nil, fmt.Errorf("token %s not found", pair.Token1)
	}
	return token0, token1, nil
}

func (c *Correlator) bundle() (*entity.Bundle, error) {
	b := c.store.Bundle()
	if b == nil {
		return nil, fmt.Errorf("bundle not found")
	}
	return b, nil
}
