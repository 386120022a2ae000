package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"dexgraph/internal/entity"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSchemaSQL = `
    CREATE TABLE IF NOT EXISTS pairs (
        address                  TEXT PRIMARY KEY,
        token0                   TEXT NOT NULL,
        token1                   TEXT NOT NULL,
        reserve0                 NUMERIC NOT NULL,
        reserve1                 NUMERIC NOT NULL,
        total_supply             NUMERIC NOT NULL,
        token0_price             NUMERIC NOT NULL,
        token1_price             NUMERIC NOT NULL,
        reserve_native           NUMERIC NOT NULL,
        reserve_usd              NUMERIC NOT NULL,
        tracked_reserve_native   NUMERIC NOT NULL,
        volume_token0            NUMERIC NOT NULL,
        volume_token1            NUMERIC NOT NULL,
        volume_native            NUMERIC NOT NULL,
        volume_usd               NUMERIC NOT NULL,
        untracked_volume_native  NUMERIC NOT NULL,
        untracked_volume_usd     NUMERIC NOT NULL,
        tx_count                 BIGINT NOT NULL,
        liquidity_provider_count BIGINT NOT NULL,
        created_at_ts            BIGINT NOT NULL,
        created_at_block         BIGINT NOT NULL,
        updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS tokens (
        address              TEXT PRIMARY KEY,
        symbol               TEXT NOT NULL DEFAULT '',
        name                 TEXT NOT NULL DEFAULT '',
        decimals             INT NOT NULL,
        derived_native          NUMERIC NOT NULL,
        total_liquidity         NUMERIC NOT NULL,
        trade_volume            NUMERIC NOT NULL,
        trade_volume_native     NUMERIC NOT NULL,
        trade_volume_usd        NUMERIC NOT NULL,
        untracked_volume_native NUMERIC NOT NULL,
        untracked_volume_usd    NUMERIC NOT NULL,
        tx_count                BIGINT NOT NULL,
        updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS factories (
        address                 TEXT PRIMARY KEY,
        pair_count              INT NOT NULL,
        total_volume_usd        NUMERIC NOT NULL,
        total_volume_native     NUMERIC NOT NULL,
        untracked_volume_native NUMERIC NOT NULL,
        untracked_volume_usd    NUMERIC NOT NULL,
        total_liquidity_usd     NUMERIC NOT NULL,
        total_liquidity_native  NUMERIC NOT NULL,
        tx_count                BIGINT NOT NULL,
        updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS bundles (
        id               TEXT PRIMARY KEY,
        native_price_usd NUMERIC NOT NULL,
        updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS pair_snapshots (
        pair_address TEXT NOT NULL,
        bucket_ts    TIMESTAMPTZ NOT NULL,
        reserve0     NUMERIC NOT NULL,
        reserve1     NUMERIC NOT NULL,
        reserve_usd  NUMERIC NOT NULL,
        volume_usd   NUMERIC NOT NULL,
        tx_count     BIGINT NOT NULL,
        PRIMARY KEY (pair_address, bucket_ts)
    );`

	upsertPairSQL = `INSERT INTO pairs (
        address, token0, token1,
        reserve0, reserve1, total_supply,
        token0_price, token1_price,
        reserve_native, reserve_usd, tracked_reserve_native,
        volume_token0, volume_token1, volume_native, volume_usd,
        untracked_volume_native, untracked_volume_usd,
        tx_count, liquidity_provider_count,
        created_at_ts, created_at_block, updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,now()
    )
    ON CONFLICT (address) DO UPDATE
    SET
        reserve0                 = EXCLUDED.reserve0,
        reserve1                 = EXCLUDED.reserve1,
        total_supply             = EXCLUDED.total_supply,
        token0_price             = EXCLUDED.token0_price,
        token1_price             = EXCLUDED.token1_price,
        reserve_native           = EXCLUDED.reserve_native,
        reserve_usd              = EXCLUDED.reserve_usd,
        tracked_reserve_native   = EXCLUDED.tracked_reserve_native,
        volume_token0            = EXCLUDED.volume_token0,
        volume_token1            = EXCLUDED.volume_token1,
        volume_native            = EXCLUDED.volume_native,
        volume_usd               = EXCLUDED.volume_usd,
        untracked_volume_native  = EXCLUDED.untracked_volume_native,
        untracked_volume_usd     = EXCLUDED.untracked_volume_usd,
        tx_count                 = EXCLUDED.tx_count,
        liquidity_provider_count = EXCLUDED.liquidity_provider_count,
        updated_at               = now();`

	upsertTokenSQL = `INSERT INTO tokens (
        address, symbol, name, decimals,
        derived_native, total_liquidity,
        trade_volume, trade_volume_native, trade_volume_usd,
        untracked_volume_native, untracked_volume_usd,
        tx_count, updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now()
    )
    ON CONFLICT (address) DO UPDATE
    SET
        derived_native          = EXCLUDED.derived_native,
        total_liquidity         = EXCLUDED.total_liquidity,
        trade_volume            = EXCLUDED.trade_volume,
        trade_volume_native     = EXCLUDED.trade_volume_native,
        trade_volume_usd        = EXCLUDED.trade_volume_usd,
        untracked_volume_native = EXCLUDED.untracked_volume_native,
        untracked_volume_usd    = EXCLUDED.untracked_volume_usd,
        tx_count                = EXCLUDED.tx_count,
        updated_at              = now();`

	upsertFactorySQL = `INSERT INTO factories (
        address, pair_count,
        total_volume_usd, total_volume_native,
        untracked_volume_native, untracked_volume_usd,
        total_liquidity_usd, total_liquidity_native,
        tx_count, updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,now()
    )
    ON CONFLICT (address) DO UPDATE
    SET
        pair_count              = EXCLUDED.pair_count,
        total_volume_usd        = EXCLUDED.total_volume_usd,
        total_volume_native     = EXCLUDED.total_volume_native,
        untracked_volume_native = EXCLUDED.untracked_volume_native,
        untracked_volume_usd    = EXCLUDED.untracked_volume_usd,
        total_liquidity_usd     = EXCLUDED.total_liquidity_usd,
        total_liquidity_native  = EXCLUDED.total_liquidity_native,
        tx_count                = EXCLUDED.tx_count,
        updated_at              = now();`

	upsertBundleSQL = `INSERT INTO bundles (id, native_price_usd, updated_at)
    VALUES ($1,$2,now())
    ON CONFLICT (id) DO UPDATE
    SET native_price_usd = EXCLUDED.native_price_usd, updated_at = now();`

	insertPairSnapshotSQL = `INSERT INTO pair_snapshots (
        pair_address, bucket_ts, reserve0, reserve1, reserve_usd, volume_usd, tx_count
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (pair_address, bucket_ts) DO UPDATE
    SET reserve0    = EXCLUDED.reserve0,
        reserve1    = EXCLUDED.reserve1,
        reserve_usd = EXCLUDED.reserve_usd,
        volume_usd  = EXCLUDED.volume_usd,
        tx_count    = EXCLUDED.tx_count;`

	listPairSnapshotsBetweenSQL = `SELECT
        pair_address, bucket_ts, reserve0, reserve1, reserve_usd, volume_usd, tx_count
    FROM pair_snapshots
    WHERE pair_address = $1
      AND bucket_ts >= $2
      AND bucket_ts < $3
    ORDER BY bucket_ts;`

	listPairsByReserveSQL = `SELECT
        address, token0, token1, reserve0, reserve1, reserve_usd, volume_usd, tx_count, updated_at
    FROM pairs
    ORDER BY reserve_usd DESC
    LIMIT $1;`

	loadPairsSQL = `SELECT
        address, token0, token1,
        reserve0, reserve1, total_supply,
        token0_price, token1_price,
        reserve_native, reserve_usd, tracked_reserve_native,
        volume_token0, volume_token1, volume_native, volume_usd,
        untracked_volume_native, untracked_volume_usd,
        tx_count, liquidity_provider_count,
        created_at_ts, created_at_block
    FROM pairs;`

	loadTokensSQL = `SELECT
        address, symbol, name, decimals,
        derived_native, total_liquidity,
        trade_volume, trade_volume_native, trade_volume_usd,
        untracked_volume_native, untracked_volume_usd,
        tx_count
    FROM tokens;`

	loadFactorySQL = `SELECT
        address, pair_count,
        total_volume_usd, total_volume_native,
        untracked_volume_native, untracked_volume_usd,
        total_liquidity_usd, total_liquidity_native, tx_count
    FROM factories
    WHERE address = $1;`

	loadBundleSQL = `SELECT id, native_price_usd FROM bundles WHERE id = $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// Repository persists entity snapshots to PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgx pool into a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Close releases the underlying pool resources.
func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

func (r *Repository) getPool() (*pgxpool.Pool, error) {
	if r == nil || r.pool == nil {
		return nil, ErrNotConfigured
	}
	return r.pool, nil
}

// EnsureSchema creates the snapshot tables when they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	pool, err := r.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Unlock is best effort; releasing the connection drops the
		// session lock either way.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// UpsertPairs writes the current state of the given pairs.
func (r *Repository) UpsertPairs(ctx context.Context, pairs []entity.Pair) error {
	pool, err := r.getPool()
	if err != nil {
		return err
	}

	for _, p := range pairs {
		_, execErr := pool.Exec(ctx, upsertPairSQL,
			p.ID, p.Token0, p.Token1,
			p.Reserve0.String(), p.Reserve1.String(), p.TotalSupply.String(),
			p.Token0Price.String(), p.Token1Price.String(),
			p.ReserveNative.String(), p.ReserveUSD.String(), p.TrackedReserveNative.String(),
			p.VolumeToken0.String(), p.VolumeToken1.String(), p.VolumeNative.String(), p.VolumeUSD.String(),
			p.UntrackedVolumeNative.String(), p.UntrackedVolumeUSD.String(),
			int64(p.TxCount), int64(p.LiquidityProviderCount),
			int64(p.CreatedAtTimestamp), int64(p.CreatedAtBlock),
		)
		if execErr != nil {
			return fmt.Errorf("upsert pair %s: %w", p.ID, execErr)
		}
	}
	return nil
}

// UpsertTokens writes the current state of the given tokens.
func (r *Repository) UpsertTokens(ctx context.Context, tokens []entity.Token) error {
	pool, err := r.getPool()
	if err != nil {
		return err
	}

	for _, t := range tokens {
		_, execErr := pool.Exec(ctx, upsertTokenSQL,
			t.ID, t.Symbol, t.Name, t.Decimals,
			t.DerivedNative.String(), t.TotalLiquidity.String(),
			t.TradeVolume.String(), t.TradeVolumeNative.String(), t.TradeVolumeUSD.String(),
			t.UntrackedVolumeNative.String(), t.UntrackedVolumeUSD.String(),
			int64(t.TxCount),
		)
		if execErr != nil {
			return fmt.Errorf("upsert token %s: %w", t.ID, execErr)
		}
	}
	return nil
}

// UpsertFactory writes the current factory aggregate.
func (r *Repository) UpsertFactory(ctx context.Context, f *entity.Factory) error {
	pool, err := r.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertFactorySQL,
		f.ID, f.PairCount,
		f.TotalVolumeUSD.String(), f.TotalVolumeNative.String(),
		f.UntrackedVolumeNative.String(), f.UntrackedVolumeUSD.String(),
		f.TotalLiquidityUSD.String(), f.TotalLiquidityNative.String(),
		int64(f.TxCount),
	)
	if execErr != nil {
		return fmt.Errorf("upsert factory: %w", execErr)
	}
	return nil
}

// UpsertBundle writes the singleton bundle.
func (r *Repository) UpsertBundle(ctx context.Context, b *entity.Bundle) error {
	pool, err := r.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, upsertBundleSQL, b.ID, b.NativePriceUSD.String()); execErr != nil {
		return fmt.Errorf("upsert bundle: %w", execErr)
	}
	return nil
}

// InsertPairSnapshots appends one observation per pair at the given bucket.
func (r *Repository) InsertPairSnapshots(ctx context.Context, bucket time.Time, pairs []entity.Pair) error {
	pool, err := r.getPool()
	if err != nil {
		return err
	}

	for _, p := range pairs {
		_, execErr := pool.Exec(ctx, insertPairSnapshotSQL,
			p.ID, bucket,
			p.Reserve0.String(), p.Reserve1.String(), p.ReserveUSD.String(), p.VolumeUSD.String(),
			int64(p.TxCount),
		)
		if execErr != nil {
			return fmt.Errorf("insert pair snapshot %s: %w", p.ID, execErr)
		}
	}
	return nil
}

// ListPairSnapshotsBetween lists one pair's snapshots within a time window.
func (r *Repository) ListPairSnapshotsBetween(ctx context.Context, pair string, from, to time.Time) ([]PairSnapshot, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPairSnapshotsBetweenSQL, pair, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list pair snapshots: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]PairSnapshot, 0)
	for rows.Next() {
		snap, scanErr := scanPairSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// ListPairsByReserve lists persisted pairs ordered by descending USD reserve.
func (r *Repository) ListPairsByReserve(ctx context.Context, limit int) ([]PairRow, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPairsByReserveSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list pairs: %w", queryErr)
	}
	defer rows.Close()

	pairs := make([]PairRow, 0, limit)
	for rows.Next() {
		var row PairRow
		var reserve0Str, reserve1Str, reserveUSDStr, volumeUSDStr string
		if err := rows.Scan(
			&row.Address, &row.Token0, &row.Token1,
			&reserve0Str, &reserve1Str, &reserveUSDStr, &volumeUSDStr,
			&row.TxCount, &row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		var convErr error
		if row.Reserve0, convErr = decimal.NewFromString(reserve0Str); convErr != nil {
			return nil, fmt.Errorf("parse reserve0: %w", convErr)
		}
		if row.Reserve1, convErr = decimal.NewFromString(reserve1Str); convErr != nil {
			return nil, fmt.Errorf("parse reserve1: %w", convErr)
		}
		if row.ReserveUSD, convErr = decimal.NewFromString(reserveUSDStr); convErr != nil {
			return nil, fmt.Errorf("parse reserve_usd: %w", convErr)
		}
		if row.VolumeUSD, convErr = decimal.NewFromString(volumeUSDStr); convErr != nil {
			return nil, fmt.Errorf("parse volume_usd: %w", convErr)
		}
		pairs = append(pairs, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return pairs, nil
}

// LoadPairs hydrates every persisted pair.
func (r *Repository) LoadPairs(ctx context.Context) ([]entity.Pair, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, loadPairsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("load pairs: %w", queryErr)
	}
	defer rows.Close()

	pairs := make([]entity.Pair, 0)
	for rows.Next() {
		var (
			p          entity.Pair
			nums       [14]string
			txCount    int64
			lpCount    int64
			createdTS  int64
			createdBlk int64
		)
		if err := rows.Scan(
			&p.ID, &p.Token0, &p.Token1,
			&nums[0], &nums[1], &nums[2],
			&nums[3], &nums[4],
			&nums[5], &nums[6], &nums[7],
			&nums[8], &nums[9], &nums[10], &nums[11],
			&nums[12], &nums[13],
			&txCount, &lpCount,
			&createdTS, &createdBlk,
		); err != nil {
			return nil, err
		}

		fields := []*decimal.Decimal{
			&p.Reserve0, &p.Reserve1, &p.TotalSupply,
			&p.Token0Price, &p.Token1Price,
			&p.ReserveNative, &p.ReserveUSD, &p.TrackedReserveNative,
			&p.VolumeToken0, &p.VolumeToken1, &p.VolumeNative, &p.VolumeUSD,
			&p.UntrackedVolumeNative, &p.UntrackedVolumeUSD,
		}
		for i, field := range fields {
			parsed, convErr := decimal.NewFromString(nums[i])
			if convErr != nil {
				return nil, fmt.Errorf("parse pair %s numeric %d: %w", p.ID, i, convErr)
			}
			*field = parsed
		}
		p.TxCount = uint64(txCount)
		p.LiquidityProviderCount = uint64(lpCount)
		p.CreatedAtTimestamp = uint64(createdTS)
		p.CreatedAtBlock = uint64(createdBlk)
		pairs = append(pairs, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return pairs, nil
}

// LoadTokens hydrates every persisted token.
func (r *Repository) LoadTokens(ctx context.Context) ([]entity.Token, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, loadTokensSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("load tokens: %w", queryErr)
	}
	defer rows.Close()

	tokens := make([]entity.Token, 0)
	for rows.Next() {
		var (
			t       entity.Token
			nums    [7]string
			txCount int64
		)
		if err := rows.Scan(
			&t.ID, &t.Symbol, &t.Name, &t.Decimals,
			&nums[0], &nums[1],
			&nums[2], &nums[3], &nums[4],
			&nums[5], &nums[6],
			&txCount,
		); err != nil {
			return nil, err
		}

		fields := []*decimal.Decimal{
			&t.DerivedNative, &t.TotalLiquidity,
			&t.TradeVolume, &t.TradeVolumeNative, &t.TradeVolumeUSD,
			&t.UntrackedVolumeNative, &t.UntrackedVolumeUSD,
		}
		for i, field := range fields {
			parsed, convErr := decimal.NewFromString(nums[i])
			if convErr != nil {
				return nil, fmt.Errorf("parse token %s numeric %d: %w", t.ID, i, convErr)
			}
			*field = parsed
		}
		t.TxCount = uint64(txCount)
		tokens = append(tokens, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return tokens, nil
}

// LoadFactory hydrates the factory aggregate, nil when never flushed.
func (r *Repository) LoadFactory(ctx context.Context, id string) (*entity.Factory, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}

	var (
		f    entity.Factory
		nums [6]string
		txs  int64
	)
	scanErr := pool.QueryRow(ctx, loadFactorySQL, id).Scan(
		&f.ID, &f.PairCount,
		&nums[0], &nums[1], &nums[2],
		&nums[3], &nums[4], &nums[5], &txs,
	)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load factory: %w", scanErr)
	}

	fields := []*decimal.Decimal{
		&f.TotalVolumeUSD, &f.TotalVolumeNative,
		&f.UntrackedVolumeNative, &f.UntrackedVolumeUSD,
		&f.TotalLiquidityUSD, &f.TotalLiquidityNative,
	}
	for i, field := range fields {
		parsed, convErr := decimal.NewFromString(nums[i])
		if convErr != nil {
			return nil, fmt.Errorf("parse factory numeric %d: %w", i, convErr)
		}
		*field = parsed
	}
	f.TxCount = uint64(txs)
	return &f, nil
}

// LoadBundle hydrates the singleton bundle, nil when never flushed.
func (r *Repository) LoadBundle(ctx context.Context) (*entity.Bundle, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}

	var (
		b        entity.Bundle
		priceStr string
	)
	scanErr := pool.QueryRow(ctx, loadBundleSQL, entity.BundleID).Scan(&b.ID, &priceStr)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load bundle: %w", scanErr)
	}

	price, convErr := decimal.NewFromString(priceStr)
	if convErr != nil {
		return nil, fmt.Errorf("parse bundle price: %w", convErr)
	}
	b.NativePriceUSD = price
	return &b, nil
}

func scanPairSnapshot(rows pgx.Rows) (PairSnapshot, error) {
	var (
		snap                                                  PairSnapshot
		reserve0Str, reserve1Str, reserveUSDStr, volumeUSDStr string
	)

	if err := rows.Scan(
		&snap.PairAddress, &snap.Bucket,
		&reserve0Str, &reserve1Str, &reserveUSDStr, &volumeUSDStr,
		&snap.TxCount,
	); err != nil {
		return PairSnapshot{}, err
	}

	var convErr error
	if snap.Reserve0, convErr = decimal.NewFromString(reserve0Str); convErr != nil {
		return PairSnapshot{}, fmt.Errorf("parse reserve0: %w", convErr)
	}
	if snap.Reserve1, convErr = decimal.NewFromString(reserve1Str); convErr != nil {
		return PairSnapshot{}, fmt.Errorf("parse reserve1: %w", convErr)
	}
	if snap.ReserveUSD, convErr = decimal.NewFromString(reserveUSDStr); convErr != nil {
		return PairSnapshot{}, fmt.Errorf("parse reserve_usd: %w", convErr)
	}
	if snap.VolumeUSD, convErr = decimal.NewFromString(volumeUSDStr); convErr != nil {
		return PairSnapshot{}, fmt.Errorf("parse volume_usd: %w", convErr)
	}

	return snap, nil
}
