package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// PairSnapshot is one flushed observation of a pair's aggregate state.
type PairSnapshot struct {
	PairAddress string
	Bucket      time.Time
	Reserve0    decimal.Decimal
	Reserve1    decimal.Decimal
	ReserveUSD  decimal.Decimal
	VolumeUSD   decimal.Decimal
	TxCount     int64
}

// PairRow is the persisted current state of a pair, as listed by show.
type PairRow struct {
	Address    string
	Token0     string
	Token1     string
	Reserve0   decimal.Decimal
	Reserve1   decimal.Decimal
	ReserveUSD decimal.Decimal
	VolumeUSD  decimal.Decimal
	TxCount    int64
	UpdatedAt  time.Time
}
