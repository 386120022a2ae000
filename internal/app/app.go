// Package app aggregates configuration and shared dependencies behind the
// CLI commands.
package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"dexgraph/internal/chain"
	"dexgraph/internal/config"
	"dexgraph/internal/correlator"
	"dexgraph/internal/entity"
	"dexgraph/internal/ingest"
	"dexgraph/internal/pricing"
	"dexgraph/internal/rollup"
	"dexgraph/internal/scheduler"
	"dexgraph/internal/service"
	"dexgraph/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openRepository(ctx context.Context) (*storage.Repository, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	repo := storage.NewRepository(pool)
	closer := func() {
		repo.Close()
	}
	return repo, closer, nil
}

// newEngine wires the entity store, oracle, rollups, correlator, and service
// against the given repository (nil for in-memory operation).
func (a *App) newEngine(repo *storage.Repository) (*entity.Store, *service.Service) {
	store := entity.NewStore()

	pairs := chain.NewFactory(chain.FactoryOptions{
		RPCURL:         a.Config.Ethereum.RPCURL,
		FactoryAddress: a.Config.Protocol.FactoryAddress,
		Timeout:        a.Config.Ethereum.RequestTimeout,
	}, a.Logger)

	metadata := chain.NewERC20Reader(chain.ERC20Options{
		RPCURL:  a.Config.Ethereum.RPCURL,
		Timeout: a.Config.Ethereum.RequestTimeout,
	}, a.Logger)

	oracle := pricing.NewOracle(a.Config.Protocol, store, pairs, a.Logger)
	rollups := rollup.New(store)
	corr := correlator.New(a.Config.Protocol, store, oracle, rollups, metadata, a.Logger)

	var repoIface service.Repository
	if repo != nil {
		repoIface = repo
	}
	svc := service.New(a.Config, store, corr, repoIface, a.Logger)
	return store, svc
}

func (a *App) newSource(client ingest.LogClient, svc *service.Service) (*ingest.Source, error) {
	decoder, err := ingest.NewDecoder()
	if err != nil {
		return nil, err
	}
	return ingest.NewSource(client, decoder, svc, ingest.Options{
		BatchSize:    a.Config.Ingest.BatchSize,
		PollInterval: a.Config.Ingest.PollInterval,
		Confirms:     a.Config.Ingest.Confirms,
		Known:        svc.Known,
	}, a.Logger), nil
}

// Run executes the long-running indexing service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, closeRepo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	if repo == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeRepo != nil {
		defer closeRepo()
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

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	errs := make(chan error, 2)
	workers := 1

	if repo != nil {
		sched := scheduler.New(scheduler.Options{
			Interval:     a.Config.Flush.Interval,
			AlignToStart: a.Config.Flush.AlignToBucket,
			StartupDelay: a.Config.Flush.StartupDelay,
		}, a.Logger)
		workers++
		go func() {
			errs <- sched.Run(runCtx, svc.Flush)
		}()
	}

	a.Logger.Info().Uint64("start_block", a.Config.Ingest.StartBlock).Msg("starting indexing service")
	go func() {
		errs <- source.Follow(runCtx, a.Config.Ingest.StartBlock)
	}()

	err = <-errs
	stop()
	for i := 1; i < workers; i++ {
		<-errs
	}

	if repo != nil {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelFlush()
		if flushErr := svc.Flush(flushCtx, time.Now().UTC()); flushErr != nil {
			a.Logger.Error().Err(flushErr).Msg("final flush failed")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("indexing service stopped")
	return nil
}

// ExportOptions hold parameters for exporting a pair's snapshot history.
type ExportOptions struct {
	Pair      string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// BackfillOptions configure the backfill job.
type BackfillOptions struct {
	FromBlock uint64
	ToBlock   uint64
	DryRun    bool
}
