// Package rollup maintains the per-interval bucket entities fed from the
// same events as the live aggregates. Updaters are idempotent per bucket
// key: reapplying an event refreshes the bucket to the same state.
package rollup

import (
	"fmt"

	"dexgraph/internal/entity"
)

// Rollups updates day and hour buckets against the entity store.
type Rollups struct {
	store *entity.Store
}

// New constructs rollup updaters over a store.
func New(store *entity.Store) *Rollups {
	return &Rollups{store: store}
}

// UpdatePairDay refreshes the pair's bucket for the event's day and bumps
// its transaction count.
func (r *Rollups) UpdatePairDay(pairID string, timestamp uint64) (*entity.PairDayData, error) {
	pair := r.store.Pair(pairID)
	if pair == nil {
		return nil, fmt.Errorf("rollup: pair %s not found", pairID)
	}

	day, start := entity.DayID(timestamp)
	id := entity.BucketID(pairID, day)

	bucket := r.store.PairDay(id)
	if bucket == nil {
		bucket = &entity.PairDayData{
			ID:          id,
			Date:        start,
			PairAddress: pair.ID,
			Token0:      pair.Token0,
			Token1:      pair.Token1,
		}
	}

	bucket.Reserve0 = pair.Reserve0
	bucket.Reserve1 = pair.Reserve1
	bucket.TotalSupply = pair.TotalSupply
	bucket.ReserveUSD = pair.ReserveUSD
	bucket.DailyTxns++

	r.store.SavePairDay(bucket)
	return bucket, nil
}

// UpdatePairHour refreshes the pair's bucket for the event's hour.
func (r *Rollups) UpdatePairHour(pairID string, timestamp uint64) (*entity.PairHourData, error) {
	pair := r.store.Pair(pairID)
	if pair == nil {
		return nil, fmt.Errorf("rollup: pair %s not found", pairID)
	}

	hour, start := entity.HourID(timestamp)
	id := entity.BucketID(pairID, hour)

	bucket := r.store.PairHour(id)
	if bucket == nil {
		bucket = &entity.PairHourData{
			ID:            id,
			HourStartUnix: start,
			Pair:          pair.ID,
		}
	}

	bucket.Reserve0 = pair.Reserve0
	bucket.Reserve1 = pair.Reserve1
	bucket.ReserveUSD = pair.ReserveUSD
	bucket.HourlyTxns++

	r.store.SavePairHour(bucket)
	return bucket, nil
}

// UpdateFactoryDay refreshes the exchange-wide bucket for the event's day.
func (r *Rollups) UpdateFactoryDay(factoryID string, timestamp uint64) (*entity.FactoryDayData, error) {
	factory := r.store.Factory(factoryID)
	if factory == nil {
		return nil, fmt.Errorf("rollup: factory %s not found", factoryID)
	}

	day, start := entity.DayID(timestamp)
	id := entity.BucketID(factory.ID, day)

	bucket := r.store.FactoryDay(id)
	if bucket == nil {
		bucket = &entity.FactoryDayData{
			ID:   id,
			Date: start,
		}
	}

	bucket.TotalVolumeNative = factory.TotalVolumeNative
	bucket.TotalVolumeUSD = factory.TotalVolumeUSD
	bucket.TotalLiquidityNative = factory.TotalLiquidityNative
	bucket.TotalLiquidityUSD = factory.TotalLiquidityUSD
	bucket.TxCount = factory.TxCount

	r.store.SaveFactoryDay(bucket)
	return bucket, nil
}

// UpdateTokenDay refreshes a token's bucket for the event's day. The bundle
// must exist, since the bucket stores USD-denominated figures.
func (r *Rollups) UpdateTokenDay(token *entity.Token, timestamp uint64) (*entity.TokenDayData, error) {
	bundle := r.store.Bundle()
	if bundle == nil {
		return nil, fmt.Errorf("rollup: bundle not found")
	}

	day, start := entity.DayID(timestamp)
	id := entity.BucketID(token.ID, day)
	priceUSD := token.DerivedNative.Mul(bundle.NativePriceUSD)

	bucket := r.store.TokenDay(id)
	if bucket == nil {
		bucket = &entity.TokenDayData{
			ID:    id,
			Date:  start,
			Token: token.ID,
		}
	}

	bucket.PriceUSD = priceUSD
	bucket.TotalLiquidityToken = token.TotalLiquidity
	bucket.TotalLiquidityNative = token.TotalLiquidity.Mul(token.DerivedNative)
	bucket.TotalLiquidityUSD = bucket.TotalLiquidityNative.Mul(bundle.NativePriceUSD)
	bucket.DailyTxns++

	r.store.SaveTokenDay(bucket)
	return bucket, nil
}
