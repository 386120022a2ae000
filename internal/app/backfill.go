package app

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"dexgraph/internal/storage"
)

// Backfill replays a historical block range through the engine, then flushes
// the resulting state.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	if opts.ToBlock < opts.FromBlock {
		return errors.New("--to must not be below --from")
	}

	var repo *storage.Repository
	var closeRepo func()
	var err error

	if opts.DryRun {
		a.Logger.Warn().Msg("dry run: nothing will be written to the database")
	} else {
		repo, closeRepo, err = a.openRepository(ctx)
		if err != nil {
			return err
		}
		if repo == nil {
			return errors.New("database.dsn not configured; use --dry-run for an in-memory pass")
		}
		if closeRepo != nil {
			defer closeRepo()
		}
	}

	_, svc := a.newEngine(repo)
	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}

	client, err := ethclient.DialContext(ctx, a.Config.Ethereum.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	source, err := a.newSource(client, svc)
	if err != nil {
		return err
	}

	started := time.Now()
	last, err := source.Replay(ctx, opts.FromBlock, opts.ToBlock)
	if err != nil {
		a.Logger.Error().Err(err).Uint64("block", last).Msg("backfill aborted")
		return err
	}

	if repo != nil {
		if err := svc.Flush(ctx, time.Now().UTC()); err != nil {
			return err
		}
	}

	a.Logger.Info().
		Uint64("from", opts.FromBlock).
		Uint64("to", opts.ToBlock).
		Dur("elapsed", time.Since(started)).
		Msg("backfill complete")
	return nil
}
