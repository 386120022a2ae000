package correlator

import (
	"context"
	"fmt"

	"dexgraph/internal/event"
)

// HandleMint completes the pending mint record opened by the preceding
// transfer from the zero address.
func (c *Correlator) HandleMint(ctx context.Context, ev *event.Mint) error {
	_ = ctx

	hash := hashID(ev.TxHash)
	tx := c.store.Transaction(hash)
	if tx == nil {
		return fmt.Errorf("transaction %s not found at mint detail", hash)
	}
	if len(tx.Mints) == 0 {
		return fmt.Errorf("transaction %s has no mint awaiting completion", hash)
	}
	mint := c.store.Mint(tx.Mints[len(tx.Mints)-1])
	if mint == nil {
		return fmt.Errorf("mint %s referenced but not found", tx.Mints[len(tx.Mints)-1])
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

	amount0 := tokenAmount(ev.Amount0, token0.Decimals)
	amount1 := tokenAmount(ev.Amount1, token1.Decimals)

	token0.TxCount++
	token1.TxCount++

	amountNative := token1.DerivedNative.Mul(amount1).Add(token0.DerivedNative.Mul(amount0))
	amountUSD := amountNative.Mul(bundle.NativePriceUSD)

	pair.TxCount++
	factory.TxCount++

	c.store.SaveToken(token0)
	c.store.SaveToken(token1)
	c.store.SavePair(pair)
	c.store.SaveFactory(factory)

	mint.Sender = addrID(ev.Sender)
	mint.Amount0 = amount0
	mint.Amount1 = amount1
	mint.LogIndex = ev.LogIndex
	mint.AmountNative = amountNative
	mint.AmountUSD = amountUSD
	mint.Complete = true
	c.store.SaveMint(mint)

	pos := c.position(pair.ID, mint.To)
	if err := c.snapshot(pos, ev.Meta); err != nil {
		return err
	}

	return c.updateBuckets(pair, token0, token1, ev.Meta.Timestamp)
}

// HandleBurn completes the last burn record of the transaction. A missing
// transaction is tolerated as a no-op so a replay that begins mid-transaction
// does not wedge the stream.
func (c *Correlator) HandleBurn(ctx context.Context, ev *event.Burn) error {
	_ = ctx

	hash := hashID(ev.TxHash)
	tx := c.store.Transaction(hash)
	if tx == nil {
		c.logger.Warn().Str("tx", hash).Msg("burn detail without transaction, skipping")
		return nil
	}
	if len(tx.Burns) == 0 {
		return fmt.Errorf("transaction %s has no burn awaiting completion", hash)
	}
	burn := c.store.Burn(tx.Burns[len(tx.Burns)-1])
	if burn == nil {
		return fmt.Errorf("burn %s referenced but not found", tx.Burns[len(tx.Burns)-1])
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

	amount0 := tokenAmount(ev.Amount0, token0.Decimals)
	amount1 := tokenAmount(ev.Amount1, token1.Decimals)

	token0.TxCount++
	token1.TxCount++

	amountNative := token1.DerivedNative.Mul(amount1).Add(token0.DerivedNative.Mul(amount0))
	amountUSD := amountNative.Mul(bundle.NativePriceUSD)

	factory.TxCount++
	pair.TxCount++

	c.store.SaveToken(token0)
	c.store.SaveToken(token1)
	c.store.SavePair(pair)
	c.store.SaveFactory(factory)

	burn.Amount0 = amount0
	burn.Amount1 = amount1
	burn.LogIndex = ev.LogIndex
	burn.AmountNative = amountNative
	burn.AmountUSD = amountUSD
	burn.NeedsComplete = false
	burn.Complete = true
	c.store.SaveBurn(burn)

	// The one-step withdrawal path never learns the sender; only snapshot
	// a position when one is attributable.
	if burn.Sender != "" {
		pos := c.position(pair.ID, burn.Sender)
		if err := c.snapshot(pos, ev.Meta); err != nil {
			return err
		}
	}

	return c.updateBuckets(pair, token0, token1, ev.Meta.Timestamp)
}
