package storage

import (
	"context"
	"time"

	"dexgraph/internal/entity"
)

// SnapshotStore defines the flush-side persistence operations.
type SnapshotStore interface {
	UpsertPairs(ctx context.Context, pairs []entity.Pair) error
	UpsertTokens(ctx context.Context, tokens []entity.Token) error
	UpsertFactory(ctx context.Context, f *entity.Factory) error
	UpsertBundle(ctx context.Context, b *entity.Bundle) error
	InsertPairSnapshots(ctx context.Context, bucket time.Time, pairs []entity.Pair) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

var (
	_ SnapshotStore  = (*Repository)(nil)
	_ AdvisoryLocker = (*Repository)(nil)
)
