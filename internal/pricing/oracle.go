// Package pricing derives reference prices and tracked USD figures. A
// token's derived native price is a best-effort estimate found by walking a
// configured whitelist of anchor tokens in order and taking the first pair
// with enough native-asset liquidity; the ordering is load-bearing and must
// not be replaced by a max-liquidity selection, since that would change
// every historical derived price.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dexgraph/internal/chain"
	"dexgraph/internal/config"
	"dexgraph/internal/entity"
)

// ErrMissingBundle indicates the singleton bundle was never initialised.
var ErrMissingBundle = errors.New("pricing: bundle not found")

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// newPairProviderFloor is the liquidity-provider count below which the
// minimum-reserve guard applies to tracked volume.
const newPairProviderFloor = 5

// Oracle computes derived native prices and tracked volume/liquidity.
type Oracle struct {
	store  *entity.Store
	pairs  chain.PairLookup
	logger zerolog.Logger

	wrappedNative string
	stablePair    string
	whitelist     []string
	whitelisted   map[string]struct{}

	minLiquidityNative decimal.Decimal
	minUSDNewPairs     decimal.Decimal
}

// NewOracle wires an oracle against the entity store and chain lookup.
func NewOracle(cfg config.ProtocolConfig, store *entity.Store, pairs chain.PairLookup, logger zerolog.Logger) *Oracle {
	whitelisted := make(map[string]struct{}, len(cfg.Whitelist))
	for _, a := range cfg.Whitelist {
		whitelisted[a] = struct{}{}
	}

	return &Oracle{
		store:              store,
		pairs:              pairs,
		logger:             logger.With().Str("component", "pricing").Logger(),
		wrappedNative:      cfg.WrappedNativeAddress,
		stablePair:         cfg.StablePairAddress,
		whitelist:          append([]string(nil), cfg.Whitelist...),
		whitelisted:        whitelisted,
		minLiquidityNative: decimal.NewFromFloat(cfg.MinimumLiquidityNative),
		minUSDNewPairs:     decimal.NewFromFloat(cfg.MinimumUSDNewPairs),
	}
}

// NativePriceUSD reads the stablecoin side of the reference pair. The
// stablecoin is token0 there, so its token0 price is USD per native unit.
// Before that pair exists the price is pegged to 1.
func (o *Oracle) NativePriceUSD() decimal.Decimal {
	stable := o.store.Pair(o.stablePair)
	if stable == nil {
		return one
	}
	return stable.Token0Price
}

// FindNativePerToken walks the whitelist in configured order and returns the
// token's price in the native asset via the first qualifying anchor pair, or
// zero when no anchor qualifies.
func (o *Oracle) FindNativePerToken(ctx context.Context, token *entity.Token) (decimal.Decimal, error) {
	if token.ID == o.wrappedNative {
		return one, nil
	}

	for _, anchor := range o.whitelist {
		pairAddr, err := o.pairs.GetPair(ctx, common.HexToAddress(token.ID), common.HexToAddress(anchor))
		if err != nil {
			return decimal.Zero, fmt.Errorf("get pair %s/%s: %w", token.ID, anchor, err)
		}
		if pairAddr == (common.Address{}) {
			continue
		}

		pair := o.store.Pair(strings.ToLower(pairAddr.Hex()))
		if pair == nil {
			// The factory knows a pair the store has not seen; it was
			// created past our indexing point, so it cannot price anything
			// yet.
			o.logger.Debug().Str("pair", pairAddr.Hex()).Str("token", token.ID).Msg("anchor pair not indexed, skipping")
			continue
		}

		if pair.Token0 == token.ID && pair.ReserveNative.GreaterThan(o.minLiquidityNative) {
			counter := o.store.Token(pair.Token1)
			if counter == nil {
				return decimal.Zero, fmt.Errorf("token %s referenced by pair %s not found", pair.Token1, pair.ID)
			}
			return pair.Token1Price.Mul(counter.DerivedNative), nil
		}
		if pair.Token1 == token.ID && pair.ReserveNative.GreaterThan(o.minLiquidityNative) {
			counter := o.store.Token(pair.Token0)
			if counter == nil {
				return decimal.Zero, fmt.Errorf("token %s referenced by pair %s not found", pair.Token0, pair.ID)
			}
			return pair.Token0Price.Mul(counter.DerivedNative), nil
		}
	}

	return decimal.Zero, nil
}

// TrackedVolumeUSD values a trade in USD under the whitelist policy: the
// average of both sides when both tokens are whitelisted, the whitelisted
// side alone when only one is, zero when neither is. Pairs with fewer than
// five liquidity providers must additionally clear a minimum combined
// reserve or contribute nothing.
func (o *Oracle) TrackedVolumeUSD(amount0 decimal.Decimal, token0 *entity.Token, amount1 decimal.Decimal, token1 *entity.Token, pair *entity.Pair) (decimal.Decimal, error) {
	bundle := o.store.Bundle()
	if bundle == nil {
		return decimal.Zero, ErrMissingBundle
	}
	price0 := token0.DerivedNative.Mul(bundle.NativePriceUSD)
	price1 := token1.DerivedNative.Mul(bundle.NativePriceUSD)

	wl0 := o.isWhitelisted(token0.ID)
	wl1 := o.isWhitelisted(token1.ID)

	if pair.LiquidityProviderCount < newPairProviderFloor {
		reserve0USD := pair.Reserve0.Mul(price0)
		reserve1USD := pair.Reserve1.Mul(price1)
		switch {
		case wl0 && wl1:
			if reserve0USD.Add(reserve1USD).LessThan(o.minUSDNewPairs) {
				return decimal.Zero, nil
			}
		case wl0 && !wl1:
			if reserve0USD.Mul(two).LessThan(o.minUSDNewPairs) {
				return decimal.Zero, nil
			}
		case !wl0 && wl1:
			if reserve1USD.Mul(two).LessThan(o.minUSDNewPairs) {
				return decimal.Zero, nil
			}
		}
	}

	switch {
	case wl0 && wl1:
		return amount0.Mul(price0).Add(amount1.Mul(price1)).Div(two), nil
	case wl0:
		return amount0.Mul(price0), nil
	case wl1:
		return amount1.Mul(price1), nil
	}

	return decimal.Zero, nil
}

// TrackedLiquidityUSD values pooled reserves in USD under the whitelist
// policy: the sum of both sides when both tokens are whitelisted, double the
// whitelisted side when only one is, zero when neither is.
func (o *Oracle) TrackedLiquidityUSD(amount0 decimal.Decimal, token0 *entity.Token, amount1 decimal.Decimal, token1 *entity.Token) (decimal.Decimal, error) {
	bundle := o.store.Bundle()
	if bundle == nil {
		return decimal.Zero, ErrMissingBundle
	}
	price0 := token0.DerivedNative.Mul(bundle.NativePriceUSD)
	price1 := token1.DerivedNative.Mul(bundle.NativePriceUSD)

	wl0 := o.isWhitelisted(token0.ID)
	wl1 := o.isWhitelisted(token1.ID)

	switch {
	case wl0 && wl1:
		return amount0.Mul(price0).Add(amount1.Mul(price1)), nil
	case wl0:
		return amount0.Mul(price0).Mul(two), nil
	case wl1:
		return amount1.Mul(price1).Mul(two), nil
	}

	return decimal.Zero, nil
}

func (o *Oracle) isWhitelisted(id string) bool {
	_, ok := o.whitelisted[id]
	return ok
}
