package correlator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"dexgraph/internal/entity"
	"dexgraph/internal/event"
)

// HandlePairCreated indexes a new pair announced by the factory, creating
// its token entities on first sight.
func (c *Correlator) HandlePairCreated(ctx context.Context, ev *event.PairCreated) error {
	factory, err := c.factory()
	if err != nil {
		return err
	}
	factory.PairCount++
	c.store.SaveFactory(factory)

	if err := c.ensureToken(ctx, ev.Token0); err != nil {
		return err
	}
	if err := c.ensureToken(ctx, ev.Token1); err != nil {
		return err
	}

	pairID := addrID(ev.Pair)
	if c.store.Pair(pairID) != nil {
		return fmt.Errorf("pair %s created twice", pairID)
	}

	c.store.SavePair(&entity.Pair{
		ID:                 pairID,
		Token0:             addrID(ev.Token0),
		Token1:             addrID(ev.Token1),
		CreatedAtTimestamp: ev.Timestamp,
		CreatedAtBlock:     ev.BlockNumber,
	})

	c.logger.Info().
		Str("pair", pairID).
		Str("token0", addrID(ev.Token0)).
		Str("token1", addrID(ev.Token1)).
		Uint64("block", ev.BlockNumber).
		Msg("pair indexed")
	return nil
}

func (c *Correlator) ensureToken(ctx context.Context, addr common.Address) error {
	id := addrID(addr)
	if c.store.Token(id) != nil {
		return nil
	}

	meta, err := c.metadata.ReadTokenMetadata(ctx, addr)
	if err != nil {
		return fmt.Errorf("token %s metadata: %w", id, err)
	}

	c.store.SaveToken(&entity.Token{
		ID:       id,
		Symbol:   meta.Symbol,
		Name:     meta.Name,
		Decimals: meta.Decimals,
	})
	return nil
}
