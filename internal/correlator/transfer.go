package correlator

import (
	"context"
	"fmt"

	"dexgraph/internal/entity"
	"dexgraph/internal/event"
)

// HandleTransfer processes a liquidity-token transfer. A transfer opens a
// pending mint (from the zero address), a two-step burn (to the pair), or a
// final burn leg (pair to zero address), and moves liquidity positions for
// every non-mint, non-burn endpoint.
func (c *Correlator) HandleTransfer(ctx context.Context, ev *event.Transfer) error {
	_ = ctx

	// The bootstrap transfer locks the minimum liquidity at the zero
	// address forever; it is not an economic mint.
	if ev.To == zeroAddress && ev.Value.Cmp(c.bootstrapLock) == 0 {
		return nil
	}

	from := addrID(ev.From)
	to := addrID(ev.To)

	// Stake and unstake move liquidity tokens without changing ownership
	// economics.
	if _, ok := c.stakingPools[from]; ok {
		return nil
	}
	if _, ok := c.stakingPools[to]; ok {
		return nil
	}

	pair, err := c.pairFor(ev.Meta)
	if err != nil {
		return err
	}

	c.ensureUser(from)
	c.ensureUser(to)

	value := tokenAmount(ev.Value, c.lpDecimals)
	hash := hashID(ev.TxHash)

	tx := c.store.Transaction(hash)
	if tx == nil {
		tx = &entity.Transaction{
			ID:          hash,
			BlockNumber: ev.BlockNumber,
			Timestamp:   ev.Timestamp,
		}
	}

	// Mint leg.
	if ev.From == zeroAddress {
		pair.TotalSupply = pair.TotalSupply.Add(value)
		c.store.SavePair(pair)

		open := false
		if n := len(tx.Mints); n > 0 {
			complete, err := c.mintComplete(tx.Mints[n-1])
			if err != nil {
				return err
			}
			open = !complete
		}
		if !open {
			mint := &entity.Mint{
				ID:          entity.MintID(hash, len(tx.Mints)),
				Transaction: tx.ID,
				Pair:        pair.ID,
				To:          to,
				Liquidity:   value,
				Timestamp:   tx.Timestamp,
			}
			c.store.SaveMint(mint)
			tx.Mints = append(tx.Mints, mint.ID)
			c.store.SaveTransaction(tx)
		}
	}

	// Direct send to the pair: first half of a two-step withdrawal.
	if to == pair.ID {
		burn := &entity.Burn{
			ID:            entity.BurnID(hash, len(tx.Burns)),
			Transaction:   tx.ID,
			Pair:          pair.ID,
			Liquidity:     value,
			Timestamp:     tx.Timestamp,
			To:            to,
			Sender:        from,
			NeedsComplete: true,
		}
		c.store.SaveBurn(burn)
		tx.Burns = append(tx.Burns, burn.ID)
		c.store.SaveTransaction(tx)
	}

	// Burn leg: the pair sends liquidity tokens to the zero address.
	if ev.To == zeroAddress && from == pair.ID {
		pair.TotalSupply = pair.TotalSupply.Sub(value)
		c.store.SavePair(pair)

		var burn *entity.Burn
		if n := len(tx.Burns); n > 0 {
			current := c.store.Burn(tx.Burns[n-1])
			if current == nil {
				return fmt.Errorf("burn %s referenced but not found", tx.Burns[n-1])
			}
			if current.NeedsComplete {
				burn = current
			}
		}
		if burn == nil {
			burn = &entity.Burn{
				ID:          entity.BurnID(hash, len(tx.Burns)),
				Transaction: tx.ID,
				Pair:        pair.ID,
				Liquidity:   value,
				Timestamp:   tx.Timestamp,
			}
		}

		// A pending mint directly preceding a burn in the same transaction
		// is the protocol's fee mint: fold it into the burn and drop the
		// mint record.
		if n := len(tx.Mints); n > 0 {
			complete, err := c.mintComplete(tx.Mints[n-1])
			if err != nil {
				return err
			}
			if !complete {
				feeMint := c.store.Mint(tx.Mints[n-1])
				burn.FeeTo = feeMint.To
				burn.FeeLiquidity = feeMint.Liquidity
				c.store.RemoveMint(feeMint.ID)
				tx.Mints = tx.Mints[:n-1]
				c.store.SaveTransaction(tx)
			}
		}

		c.store.SaveBurn(burn)
		if burn.NeedsComplete {
			tx.Burns[len(tx.Burns)-1] = burn.ID
		} else {
			tx.Burns = append(tx.Burns, burn.ID)
		}
		c.store.SaveTransaction(tx)
	}

	// Position bookkeeping for economic holders.
	if ev.From != zeroAddress && from != pair.ID {
		pos := c.position(pair.ID, from)
		pos.LiquidityTokenBalance = pos.LiquidityTokenBalance.Sub(value)
		c.store.SaveLiquidityPosition(pos)
		if err := c.snapshot(pos, ev.Meta); err != nil {
			return err
		}
	}
	if ev.To != zeroAddress && to != pair.ID {
		pos := c.position(pair.ID, to)
		pos.LiquidityTokenBalance = pos.LiquidityTokenBalance.Add(value)
		c.store.SaveLiquidityPosition(pos)
		if err := c.snapshot(pos, ev.Meta); err != nil {
			return err
		}
	}

	c.store.SaveTransaction(tx)
	return nil
}
