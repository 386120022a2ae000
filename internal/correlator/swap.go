package correlator

import (
	"context"

	"github.com/shopspring/decimal"

	"dexgraph/internal/entity"
	"dexgraph/internal/event"
)

// HandleSwap records one trade: volume accumulators on tokens, pair, and
// factory, a Swap record under the transaction, and the swap-specific bucket
// additions. When both the nominal sender and recipient are the router, the
// logical counterparty is the outer transaction's origin.
func (c *Correlator) HandleSwap(ctx context.Context, ev *event.Swap) error {
	_ = ctx

	var dest string
	if addrID(ev.Sender) == c.routerID && addrID(ev.To) == c.routerID {
		dest = addrID(ev.Origin)
	} else {
		dest = addrID(ev.To)
	}

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
	bundle, err := c.bundle()
	if err != nil {
		return err
	}

	amount0In := tokenAmount(ev.Amount0In, token0.Decimals)
	amount1In := tokenAmount(ev.Amount1In, token1.Decimals)
	amount0Out := tokenAmount(ev.Amount0Out, token0.Decimals)
	amount1Out := tokenAmount(ev.Amount1Out, token1.Decimals)

	amount0Total := amount0Out.Add(amount0In)
	amount1Total := amount1Out.Add(amount1In)

	// Untracked value: both sides priced by derivation, averaged.
	derivedAmountNative := token1.DerivedNative.Mul(amount1Total).
		Add(token0.DerivedNative.Mul(amount0Total)).
		Div(decimal.NewFromInt(2))
	derivedAmountUSD := derivedAmountNative.Mul(bundle.NativePriceUSD)

	trackedAmountUSD, err := c.oracle.TrackedVolumeUSD(amount0Total, token0, amount1Total, token1, pair)
	if err != nil {
		return err
	}

	var trackedAmountNative decimal.Decimal
	if !bundle.NativePriceUSD.IsZero() {
		trackedAmountNative = trackedAmountUSD.Div(bundle.NativePriceUSD)
	}

	token0.TradeVolume = token0.TradeVolume.Add(amount0In.Add(amount0Out))
	token0.TradeVolumeNative = token0.TradeVolumeNative.Add(trackedAmountNative)
	token0.TradeVolumeUSD = token0.TradeVolumeUSD.Add(trackedAmountUSD)
	token0.UntrackedVolumeNative = token0.UntrackedVolumeNative.Add(derivedAmountNative)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(derivedAmountUSD)

	token1.TradeVolume = token1.TradeVolume.Add(amount1In.Add(amount1Out))
	token1.TradeVolumeNative = token1.TradeVolumeNative.Add(trackedAmountNative)
	token1.TradeVolumeUSD = token1.TradeVolumeUSD.Add(trackedAmountUSD)
	token1.UntrackedVolumeNative = token1.UntrackedVolumeNative.Add(derivedAmountNative)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(derivedAmountUSD)

	token0.TxCount++
	token1.TxCount++

	pair.VolumeNative = pair.VolumeNative.Add(trackedAmountNative)
	pair.VolumeUSD = pair.VolumeUSD.Add(trackedAmountUSD)
	pair.VolumeToken0 = pair.VolumeToken0.Add(amount0Total)
	pair.VolumeToken1 = pair.VolumeToken1.Add(amount1Total)
	pair.UntrackedVolumeNative = pair.UntrackedVolumeNative.Add(derivedAmountNative)
	pair.UntrackedVolumeUSD = pair.UntrackedVolumeUSD.Add(derivedAmountUSD)
	pair.TxCount++

	factory.TotalVolumeUSD = factory.TotalVolumeUSD.Add(trackedAmountUSD)
	factory.TotalVolumeNative = factory.TotalVolumeNative.Add(trackedAmountNative)
	factory.UntrackedVolumeNative = factory.UntrackedVolumeNative.Add(derivedAmountNative)
	factory.UntrackedVolumeUSD = factory.UntrackedVolumeUSD.Add(derivedAmountUSD)
	factory.TxCount++

	c.store.SavePair(pair)
	c.store.SaveToken(token0)
	c.store.SaveToken(token1)
	c.store.SaveFactory(factory)

	hash := hashID(ev.TxHash)
	tx := c.store.Transaction(hash)
	if tx == nil {
		tx = &entity.Transaction{
			ID:          hash,
			BlockNumber: ev.BlockNumber,
			Timestamp:   ev.Timestamp,
		}
	}

	swap := &entity.Swap{
		ID:          entity.SwapID(hash, len(tx.Swaps)),
		Transaction: tx.ID,
		Pair:        pair.ID,
		Timestamp:   tx.Timestamp,
		Sender:      addrID(ev.Sender),
		From:        addrID(ev.Origin),
		To:          dest,
		Amount0In:   amount0In,
		Amount1In:   amount1In,
		Amount0Out:  amount0Out,
		Amount1Out:  amount1Out,
		LogIndex:    ev.LogIndex,
	}
	// Prefer the tracked value; fall back to the derived estimate when
	// tracking filtered the trade out.
	if trackedAmountNative.IsZero() {
		swap.AmountNative = derivedAmountNative
	} else {
		swap.AmountNative = trackedAmountNative
	}
	if trackedAmountUSD.IsZero() {
		swap.AmountUSD = derivedAmountUSD
	} else {
		swap.AmountUSD = trackedAmountUSD
	}
	c.store.SaveSwap(swap)

	tx.Swaps = append(tx.Swaps, swap.ID)
	c.store.SaveTransaction(tx)

	pairDay, err := c.rollups.UpdatePairDay(pair.ID, ev.Timestamp)
	if err != nil {
		return err
	}
	pairHour, err := c.rollups.UpdatePairHour(pair.ID, ev.Timestamp)
	if err != nil {
		return err
	}
	factoryDay, err := c.rollups.UpdateFactoryDay(c.factoryID, ev.Timestamp)
	if err != nil {
		return err
	}
	token0Day, err := c.rollups.UpdateTokenDay(token0, ev.Timestamp)
	if err != nil {
		return err
	}
	token1Day, err := c.rollups.UpdateTokenDay(token1, ev.Timestamp)
	if err != nil {
		return err
	}

	factoryDay.DailyVolumeUSD = factoryDay.DailyVolumeUSD.Add(trackedAmountUSD)
	factoryDay.DailyVolumeNative = factoryDay.DailyVolumeNative.Add(trackedAmountNative)
	factoryDay.DailyVolumeUntracked = factoryDay.DailyVolumeUntracked.Add(derivedAmountUSD)
	c.store.SaveFactoryDay(factoryDay)

	pairDay.DailyVolumeToken0 = pairDay.DailyVolumeToken0.Add(amount0Total)
	pairDay.DailyVolumeToken1 = pairDay.DailyVolumeToken1.Add(amount1Total)
	pairDay.DailyVolumeNative = pairDay.DailyVolumeNative.Add(trackedAmountNative)
	pairDay.DailyVolumeUSD = pairDay.DailyVolumeUSD.Add(trackedAmountUSD)
	c.store.SavePairDay(pairDay)

	pairHour.HourlyVolumeToken0 = pairHour.HourlyVolumeToken0.Add(amount0Total)
	pairHour.HourlyVolumeToken1 = pairHour.HourlyVolumeToken1.Add(amount1Total)
	pairHour.HourlyVolumeNative = pairHour.HourlyVolumeNative.Add(trackedAmountNative)
	pairHour.HourlyVolumeUSD = pairHour.HourlyVolumeUSD.Add(trackedAmountUSD)
	c.store.SavePairHour(pairHour)

	token0Day.DailyVolumeToken = token0Day.DailyVolumeToken.Add(amount0Total)
	token0Day.DailyVolumeNative = token0Day.DailyVolumeNative.Add(amount0Total.Mul(token0.DerivedNative))
	token0Day.DailyVolumeUSD = token0Day.DailyVolumeUSD.Add(amount0Total.Mul(token0.DerivedNative).Mul(bundle.NativePriceUSD))
	c.store.SaveTokenDay(token0Day)

	token1Day.DailyVolumeToken = token1Day.DailyVolumeToken.Add(amount1Total)
	token1Day.DailyVolumeNative = token1Day.DailyVolumeNative.Add(amount1Total.Mul(token1.DerivedNative))
	token1Day.DailyVolumeUSD = token1Day.DailyVolumeUSD.Add(amount1Total.Mul(token1.DerivedNative).Mul(bundle.NativePriceUSD))
	c.store.SaveTokenDay(token1Day)

	return nil
}

// updateBuckets runs the standard rollup set after a mint or burn.
func (c *Correlator) updateBuckets(pair *entity.Pair, token0, token1 *entity.Token, timestamp uint64) error {
	if _, err := c.rollups.UpdatePairDay(pair.ID, timestamp); err != nil {
		return err
	}
	if _, err := c.rollups.UpdatePairHour(pair.ID, timestamp); err != nil {
		return err
	}
	if _, err := c.rollups.UpdateFactoryDay(c.factoryID, timestamp); err != nil {
		return err
	}
	if _, err := c.rollups.UpdateTokenDay(token0, timestamp); err != nil {
		return err
	}
	if _, err := c.rollups.UpdateTokenDay(token1, timestamp); err != nil {
		return err
	}
	return nil
}
