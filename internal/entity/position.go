package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// User is any address that has touched a liquidity token.
type User struct {
	ID string
}

// LiquidityPosition tracks one user's liquidity-token balance in one pair.
type LiquidityPosition struct {
	ID   string
	Pair string
	User string

	LiquidityTokenBalance decimal.Decimal
}

// LiquidityPositionID derives the id of a (pair, user) position.
func LiquidityPositionID(pair, user string) string {
	return pair + "-" + user
}

// LiquiditySnapshot is an append-only record of a position at the moment a
// transfer changed it, kept for historical return calculations.
type LiquiditySnapshot struct {
	ID        string
	Position  string
	Pair      string
	User      string
	Timestamp uint64
	Block     uint64

	Token0PriceUSD decimal.Decimal
	Token1PriceUSD decimal.Decimal

	Reserve0                  decimal.Decimal
	Reserve1                  decimal.Decimal
	ReserveUSD                decimal.Decimal
	LiquidityTokenTotalSupply decimal.Decimal
	LiquidityTokenBalance     decimal.Decimal
}

// LiquiditySnapshotID derives the id of a snapshot taken at a timestamp.
func LiquiditySnapshotID(position string, timestamp uint64) string {
	return fmt.Sprintf("%s%d", position, timestamp)
}
