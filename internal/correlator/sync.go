package correlator

import (
	"context"

	"github.com/shopspring/decimal"

	"dexgraph/internal/event"
)

// HandleSync recomputes reserves, prices, and tracked liquidity after a
// reserve change. The pair's previous tracked reserve is removed from the
// factory total before the new one is added, so repeated syncs never
// double-count.
func (c *Correlator) HandleSync(ctx context.Context, ev *event.Sync) error {
	pair, err := c.pairFor(ev.Meta)
	if err != nil {
		return err
	}
	token0, token1, err := c.tokensOf(pair)
	if err != nil {
		return err
	}
	factory, err := c.factory()
	if err != nil {
		return err
	}

	factory.TotalLiquidityNative = factory.TotalLiquidityNative.Sub(pair.TrackedReserveNative)

	token0.TotalLiquidity = token0.TotalLiquidity.Sub(pair.Reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Sub(pair.Reserve1)

	pair.Reserve0 = tokenAmount(ev.Reserve0, token0.Decimals)
	pair.Reserve1 = tokenAmount(ev.Reserve1, token1.Decimals)

	if !pair.Reserve1.IsZero() {
		pair.Token0Price = pair.Reserve0.Div(pair.Reserve1)
	} else {
		pair.Token0Price = decimal.Zero
	}
	if !pair.Reserve0.IsZero() {
		pair.Token1Price = pair.Reserve1.Div(pair.Reserve0)
	} else {
		pair.Token1Price = decimal.Zero
	}

	c.store.SavePair(pair)

	// Refresh the native USD price before token derivation; USD conversion
	// downstream reads the bundle just written.
	bundle, err := c.bundle()
	if err != nil {
		return err
	}
	bundle.NativePriceUSD = c.oracle.NativePriceUSD()
	c.store.SaveBundle(bundle)

	// Both derivations see the pre-sync derived prices in the store.
	derived0, err := c.oracle.FindNativePerToken(ctx, token0)
	if err != nil {
		return err
	}
	derived1, err := c.oracle.FindNativePerToken(ctx, token1)
	if err != nil {
		return err
	}
	token0.DerivedNative = derived0
	token1.DerivedNative = derived1
	c.store.SaveToken(token0)
	c.store.SaveToken(token1)

	var trackedLiquidityNative decimal.Decimal
	if !bundle.NativePriceUSD.IsZero() {
		trackedUSD, err := c.oracle.TrackedLiquidityUSD(pair.Reserve0, token0, pair.Reserve1, token1)
		if err != nil {
			return err
		}
		trackedLiquidityNative = trackedUSD.Div(bundle.NativePriceUSD)
	}

	pair.TrackedReserveNative = trackedLiquidityNative
	pair.ReserveNative = pair.Reserve0.Mul(token0.DerivedNative).Add(pair.Reserve1.Mul(token1.DerivedNative))
	pair.ReserveUSD = pair.ReserveNative.Mul(bundle.NativePriceUSD)

	factory.TotalLiquidityNative = factory.TotalLiquidityNative.Add(trackedLiquidityNative)
	factory.TotalLiquidityUSD = factory.TotalLiquidityNative.Mul(bundle.NativePriceUSD)

	token0.TotalLiquidity = token0.TotalLiquidity.Add(pair.Reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Add(pair.Reserve1)

	c.store.SavePair(pair)
	c.store.SaveFactory(factory)
	c.store.SaveToken(token0)
	c.store.SaveToken(token1)
	return nil
}
