package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction groups the logical operations that occurred within one chain
// transaction. Id lists are ordered by creation.
type Transaction struct {
	ID          string
	BlockNumber uint64
	Timestamp   uint64

	Mints []string
	Burns []string
	Swaps []string
}

// MintID derives the deterministic id of the n-th mint within a transaction.
func MintID(txHash string, index int) string {
	return fmt.Sprintf("%s-%d", txHash, index)
}

// BurnID derives the deterministic id of the n-th burn within a transaction.
func BurnID(txHash string, index int) string {
	return fmt.Sprintf("%s-%d", txHash, index)
}

// SwapID derives the deterministic id of the n-th swap within a transaction.
func SwapID(txHash string, index int) string {
	return fmt.Sprintf("%s-%d", txHash, index)
}

// Mint is one logical liquidity add. It is created in a pending state by the
// liquidity-token transfer from the zero address and completed by the
// subsequent mint detail event.
type Mint struct {
	ID          string
	Transaction string
	Pair        string
	Timestamp   uint64

	To        string
	Liquidity decimal.Decimal

	// Complete is set once the mint detail event has filled the fields
	// below. A pending mint immediately followed by a burn in the same
	// transaction is the protocol fee mint, not a logical mint.
	Complete bool

	Sender       string
	Amount0      decimal.Decimal
	Amount1      decimal.Decimal
	LogIndex     uint
	AmountNative decimal.Decimal
	AmountUSD    decimal.Decimal
}

// Burn is one logical liquidity removal.
type Burn struct {
	ID          string
	Transaction string
	Pair        string
	Timestamp   uint64

	Liquidity decimal.Decimal
	Sender    string
	To        string

	// NeedsComplete marks the first half of a two-step withdrawal: the
	// liquidity tokens were sent to the pair directly and the record is
	// waiting for the transfer to the zero address plus the burn detail.
	NeedsComplete bool
	Complete      bool

	Amount0      decimal.Decimal
	Amount1      decimal.Decimal
	LogIndex     uint
	AmountNative decimal.Decimal
	AmountUSD    decimal.Decimal

	FeeTo        string
	FeeLiquidity decimal.Decimal
}

// Swap is one trade against a pair.
type Swap struct {
	ID          string
	Transaction string
	Pair        string
	Timestamp   uint64

	Sender string
	From   string
	To     string

	Amount0In  decimal.Decimal
	Amount1In  decimal.Decimal
	Amount0Out decimal.Decimal
	Amount1Out decimal.Decimal

	LogIndex     uint
	AmountNative decimal.Decimal
	AmountUSD    decimal.Decimal
}
