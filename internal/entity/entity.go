// Package entity defines the derived records maintained by the aggregation
// engine and the key-value store that owns them. Entity ids are lowercase
// hex addresses or hashes; all monetary figures use arbitrary-precision
// decimals so accumulators do not drift across millions of events.
package entity

import (
	"github.com/shopspring/decimal"
)

// BundleID is the fixed key of the singleton Bundle entity.
const BundleID = "1"

// Factory aggregates exchange-wide totals.
type Factory struct {
	ID        string
	PairCount int

	TotalVolumeUSD        decimal.Decimal
	TotalVolumeNative     decimal.Decimal
	UntrackedVolumeUSD    decimal.Decimal
	UntrackedVolumeNative decimal.Decimal

	TotalLiquidityUSD    decimal.Decimal
	TotalLiquidityNative decimal.Decimal

	TxCount uint64
}

// Pair is one token0/token1 liquidity pool contract.
type Pair struct {
	ID     string
	Token0 string
	Token1 string

	Reserve0    decimal.Decimal
	Reserve1    decimal.Decimal
	TotalSupply decimal.Decimal

	// Token0Price is reserve0/reserve1, zero when reserve1 is zero.
	Token0Price decimal.Decimal
	Token1Price decimal.Decimal

	ReserveNative        decimal.Decimal
	ReserveUSD           decimal.Decimal
	TrackedReserveNative decimal.Decimal

	VolumeToken0          decimal.Decimal
	VolumeToken1          decimal.Decimal
	VolumeNative          decimal.Decimal
	VolumeUSD             decimal.Decimal
	UntrackedVolumeNative decimal.Decimal
	UntrackedVolumeUSD    decimal.Decimal

	TxCount                uint64
	LiquidityProviderCount uint64

	CreatedAtTimestamp uint64
	CreatedAtBlock     uint64
}

// Token is one ERC-20-like contract referenced by at least one pair.
type Token struct {
	ID       string
	Symbol   string
	Name     string
	Decimals int32

	// DerivedNative is the best-effort reference price in the chain's
	// native asset, recomputed on every Sync touching one of the token's
	// pairs. Not authoritative.
	DerivedNative decimal.Decimal

	TotalLiquidity decimal.Decimal

	TradeVolume           decimal.Decimal
	TradeVolumeNative     decimal.Decimal
	TradeVolumeUSD        decimal.Decimal
	UntrackedVolumeNative decimal.Decimal
	UntrackedVolumeUSD    decimal.Decimal

	TxCount uint64
}

// Bundle is the singleton holding the native asset's USD price.
type Bundle struct {
	ID             string
	NativePriceUSD decimal.Decimal
}
