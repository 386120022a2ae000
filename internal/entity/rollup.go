package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PairDayData accumulates one pair's activity over one UTC day.
type PairDayData struct {
	ID          string
	Date        uint64
	PairAddress string
	Token0      string
	Token1      string

	Reserve0    decimal.Decimal
	Reserve1    decimal.Decimal
	TotalSupply decimal.Decimal
	ReserveUSD  decimal.Decimal

	DailyVolumeToken0 decimal.Decimal
	DailyVolumeToken1 decimal.Decimal
	DailyVolumeNative decimal.Decimal
	DailyVolumeUSD    decimal.Decimal
	DailyTxns         uint64
}

// PairHourData accumulates one pair's activity over one hour.
type PairHourData struct {
	ID            string
	HourStartUnix uint64
	Pair          string

	Reserve0   decimal.Decimal
	Reserve1   decimal.Decimal
	ReserveUSD decimal.Decimal

	HourlyVolumeToken0 decimal.Decimal
	HourlyVolumeToken1 decimal.Decimal
	HourlyVolumeNative decimal.Decimal
	HourlyVolumeUSD    decimal.Decimal
	HourlyTxns         uint64
}

// FactoryDayData accumulates exchange-wide activity over one UTC day.
type FactoryDayData struct {
	ID   string
	Date uint64

	DailyVolumeNative    decimal.Decimal
	DailyVolumeUSD       decimal.Decimal
	DailyVolumeUntracked decimal.Decimal

	TotalVolumeNative    decimal.Decimal
	TotalVolumeUSD       decimal.Decimal
	TotalLiquidityNative decimal.Decimal
	TotalLiquidityUSD    decimal.Decimal
	TxCount              uint64
}

// TokenDayData accumulates one token's activity over one UTC day.
type TokenDayData struct {
	ID    string
	Date  uint64
	Token string

	DailyVolumeToken  decimal.Decimal
	DailyVolumeNative decimal.Decimal
	DailyVolumeUSD    decimal.Decimal
	DailyTxns         uint64

	TotalLiquidityToken  decimal.Decimal
	TotalLiquidityNative decimal.Decimal
	TotalLiquidityUSD    decimal.Decimal
	PriceUSD             decimal.Decimal
}

const secondsPerDay = 86400

// DayID returns the day index and period start for a unix timestamp.
func DayID(timestamp uint64) (uint64, uint64) {
	day := timestamp / secondsPerDay
	return day, day * secondsPerDay
}

// HourID returns the hour index and period start for a unix timestamp.
func HourID(timestamp uint64) (uint64, uint64) {
	hour := timestamp / 3600
	return hour, hour * 3600
}

// BucketID derives a rollup entity id from an owner id and period index.
func BucketID(owner string, period uint64) string {
	return fmt.Sprintf("%s-%d", owner, period)
}
