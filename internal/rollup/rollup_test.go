package rollup

import (
	"testing"

	"github.com/shopspring/decimal"

	"dexgraph/internal/entity"
)

const (
	pairID    = "0x00000000000000000000000000000000000000dd"
	tokenID   = "0x00000000000000000000000000000000000000cc"
	factoryID = "0x00000000000000000000000000000000000000f1"
)

func seedStore() *entity.Store {
	store := entity.NewStore()
	store.SaveFactory(&entity.Factory{ID: factoryID, TxCount: 7})
	store.SaveBundle(&entity.Bundle{ID: entity.BundleID, NativePriceUSD: decimal.NewFromInt(20)})
	store.SaveToken(&entity.Token{
		ID:             tokenID,
		Decimals:       18,
		DerivedNative:  decimal.NewFromInt(2),
		TotalLiquidity: decimal.NewFromInt(100),
	})
	store.SavePair(&entity.Pair{
		ID:       pairID,
		Token0:   tokenID,
		Token1:   "0x00000000000000000000000000000000000000aa",
		Reserve0: decimal.NewFromInt(100),
		Reserve1: decimal.NewFromInt(50),
	})
	return store
}

func TestUpdatePairDayIdempotentPerBucket(t *testing.T) {
	store := seedStore()
	r := New(store)
	ts := uint64(1_700_000_000)

	first, err := r.UpdatePairDay(pairID, ts)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	second, err := r.UpdatePairDay(pairID, ts+30)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("same day produced different buckets %q and %q", first.ID, second.ID)
	}
	if second.DailyTxns != 2 {
		t.Fatalf("daily txns = %d", second.DailyTxns)
	}
	if !second.Reserve0.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("reserve0 = %s", second.Reserve0)
	}

	next, err := r.UpdatePairDay(pairID, ts+86400)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if next.ID == first.ID {
		t.Fatal("next day must open a new bucket")
	}
	if next.DailyTxns != 1 {
		t.Fatalf("fresh bucket txns = %d", next.DailyTxns)
	}
}

func TestUpdatePairHourBoundaries(t *testing.T) {
	store := seedStore()
	r := New(store)
	ts := uint64(1_700_000_000)

	inHour, err := r.UpdatePairHour(pairID, ts)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	nextHour, err := r.UpdatePairHour(pairID, ts+3600)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if inHour.ID == nextHour.ID {
		t.Fatal("next hour must open a new bucket")
	}
	if inHour.HourStartUnix%3600 != 0 {
		t.Fatalf("hour start %d not aligned", inHour.HourStartUnix)
	}
}

func TestUpdateFactoryDayMirrorsTotals(t *testing.T) {
	store := seedStore()
	r := New(store)

	bucket, err := r.UpdateFactoryDay(factoryID, 1_700_000_000)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if bucket.TxCount != 7 {
		t.Fatalf("tx count = %d", bucket.TxCount)
	}

	if _, err := r.UpdateFactoryDay("0x0000000000000000000000000000000000000000", 1_700_000_000); err == nil {
		t.Fatal("unknown factory must fail")
	}
}

func TestUpdateTokenDayPricesLiquidity(t *testing.T) {
	store := seedStore()
	r := New(store)

	bucket, err := r.UpdateTokenDay(store.Token(tokenID), 1_700_000_000)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	// 2 native per token at 20 USD per native.
	if !bucket.PriceUSD.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("price usd = %s", bucket.PriceUSD)
	}
	if !bucket.TotalLiquidityNative.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("liquidity native = %s", bucket.TotalLiquidityNative)
	}
	if !bucket.TotalLiquidityUSD.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("liquidity usd = %s", bucket.TotalLiquidityUSD)
	}
}
