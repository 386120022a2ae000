// Package service ties the event pipeline together: it routes decoded chain
// events to the correlator, owns bootstrap and hydration of the entity
// store, and flushes dirty state to PostgreSQL.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"dexgraph/internal/config"
	"dexgraph/internal/correlator"
	"dexgraph/internal/entity"
	"dexgraph/internal/event"
	"dexgraph/internal/storage"
)

// Repository is the persistence surface the service needs. A nil Repository
// runs the engine in memory only.
type Repository interface {
	storage.SnapshotStore
	storage.AdvisoryLocker
	EnsureSchema(ctx context.Context) error
	LoadPairs(ctx context.Context) ([]entity.Pair, error)
	LoadTokens(ctx context.Context) ([]entity.Token, error)
	LoadFactory(ctx context.Context, id string) (*entity.Factory, error)
	LoadBundle(ctx context.Context) (*entity.Bundle, error)
}

// Service dispatches events and persists derived state.
type Service struct {
	store      *entity.Store
	correlator *correlator.Correlator
	repo       Repository
	logger     zerolog.Logger

	factoryID string
	lockKey   int64
}

// New constructs a Service. repo may be nil.
func New(cfg *config.Config, store *entity.Store, corr *correlator.Correlator, repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		correlator: corr,
		repo:       repo,
		logger:     logger.With().Str("component", "service").Logger(),
		factoryID:  cfg.Protocol.FactoryAddress,
		lockKey:    cfg.Flush.AdvisoryLockKey,
	}
}

// Bootstrap prepares the schema, hydrates the entity store from the last
// persisted state, and seeds the factory and bundle singletons on a fresh
// start.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.repo != nil {
		if err := s.repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		pairs, err := s.repo.LoadPairs(ctx)
		if err != nil {
			return fmt.Errorf("load pairs: %w", err)
		}
		for i := range pairs {
			s.store.SavePair(&pairs[i])
		}

		tokens, err := s.repo.LoadTokens(ctx)
		if err != nil {
			return fmt.Errorf("load tokens: %w", err)
		}
		for i := range tokens {
			s.store.SaveToken(&tokens[i])
		}

		factory, err := s.repo.LoadFactory(ctx, s.factoryID)
		if err != nil {
			return fmt.Errorf("load factory: %w", err)
		}
		if factory != nil {
			s.store.SaveFactory(factory)
		}

		bundle, err := s.repo.LoadBundle(ctx)
		if err != nil {
			return fmt.Errorf("load bundle: %w", err)
		}
		if bundle != nil {
			s.store.SaveBundle(bundle)
		}

		// Hydrated state is already persisted; it must not feed the
		// first flush as dirty.
		s.store.DrainDirty()

		s.logger.Info().Int("pairs", len(pairs)).Int("tokens", len(tokens)).Msg("store hydrated")
	}

	if s.store.Factory(s.factoryID) == nil {
		s.store.SaveFactory(&entity.Factory{ID: s.factoryID})
		s.logger.Info().Str("factory", s.factoryID).Msg("factory seeded")
	}
	if s.store.Bundle() == nil {
		s.store.SaveBundle(&entity.Bundle{ID: entity.BundleID})
	}
	return nil
}

// Dispatch routes one decoded event to its handler. It implements
// ingest.Dispatcher.
func (s *Service) Dispatch(ctx context.Context, ev interface{}) error {
	switch e := ev.(type) {
	case *event.PairCreated:
		return s.correlator.HandlePairCreated(ctx, e)
	case *event.Transfer:
		return s.correlator.HandleTransfer(ctx, e)
	case *event.Mint:
		return s.correlator.HandleMint(ctx, e)
	case *event.Burn:
		return s.correlator.HandleBurn(ctx, e)
	case *event.Swap:
		return s.correlator.HandleSwap(ctx, e)
	case *event.Sync:
		return s.correlator.HandleSync(ctx, e)
	default:
		return fmt.Errorf("unhandled event type %T", ev)
	}
}

// Known reports whether the address emits logs the engine indexes: the
// factory, or any pair it has announced.
func (s *Service) Known(addr common.Address) bool {
	id := strings.ToLower(addr.Hex())
	if id == s.factoryID {
		return true
	}
	return s.store.Pair(id) != nil
}

// Flush persists dirty entities and appends one snapshot row per pair for
// the bucket. It is the scheduler's tick function.
func (s *Service) Flush(ctx context.Context, bucket time.Time) error {
	if s.repo == nil {
		return nil
	}

	unlock, acquired, err := s.repo.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if !acquired {
		s.logger.Info().Time("bucket", bucket).Msg("flush lock held elsewhere, skipping")
		return nil
	}
	defer unlock()

	pairs, tokens := s.store.DrainDirty()

	if err := s.repo.UpsertPairs(ctx, pairs); err != nil {
		return fmt.Errorf("upsert pairs: %w", err)
	}
	if err := s.repo.UpsertTokens(ctx, tokens); err != nil {
		return fmt.Errorf("upsert tokens: %w", err)
	}
	if factory := s.store.Factory(s.factoryID); factory != nil {
		if err := s.repo.UpsertFactory(ctx, factory); err != nil {
			return fmt.Errorf("upsert factory: %w", err)
		}
	}
	if bundle := s.store.Bundle(); bundle != nil {
		if err := s.repo.UpsertBundle(ctx, bundle); err != nil {
			return fmt.Errorf("upsert bundle: %w", err)
		}
	}
	if err := s.repo.InsertPairSnapshots(ctx, bucket, s.store.Pairs()); err != nil {
		return fmt.Errorf("insert pair snapshots: %w", err)
	}

	s.logger.Info().
		Time("bucket", bucket).
		Int("pairs", len(pairs)).
		Int("tokens", len(tokens)).
		Msg("state flushed")
	return nil
}
