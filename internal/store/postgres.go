package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/db"
	"github.com/sells-group/catalog-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	product_count INTEGER NOT NULL DEFAULT 0,
	ranked_count  INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_products (
	run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	url              TEXT NOT NULL,
	image_url        TEXT NOT NULL DEFAULT '',
	tagging          TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	original_price   TEXT NOT NULL DEFAULT '',
	discount_price   TEXT NOT NULL DEFAULT '',
	sizes            TEXT NOT NULL DEFAULT '',
	vouchers         TEXT NOT NULL DEFAULT '',
	available_colors TEXT NOT NULL DEFAULT '',
	color_shown      TEXT NOT NULL DEFAULT '',
	style_code       TEXT NOT NULL DEFAULT '',
	rating_score     TEXT NOT NULL DEFAULT '',
	review_count     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS run_rankings (
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	rank           INTEGER NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	rating_score   TEXT NOT NULL DEFAULT '',
	review_count   TEXT NOT NULL DEFAULT '',
	original_price TEXT NOT NULL DEFAULT '',
	discount_price TEXT NOT NULL DEFAULT '',
	url            TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS products (
	url              TEXT PRIMARY KEY,
	image_url        TEXT NOT NULL DEFAULT '',
	tagging          TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	original_price   TEXT NOT NULL DEFAULT '',
	discount_price   TEXT NOT NULL DEFAULT '',
	sizes            TEXT NOT NULL DEFAULT '',
	vouchers         TEXT NOT NULL DEFAULT '',
	available_colors TEXT NOT NULL DEFAULT '',
	color_shown      TEXT NOT NULL DEFAULT '',
	style_code       TEXT NOT NULL DEFAULT '',
	rating_score     TEXT NOT NULL DEFAULT '',
	review_count     TEXT NOT NULL DEFAULT '',
	last_run_id      TEXT NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveSnapshot writes the run row, bulk copies its products and ranking, and
// merges the products into the products table, all in one transaction.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	prepare(snap)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin snapshot tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO runs (id, source, status, product_count, ranked_count, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.RunID, snap.Source, string(snap.Status), len(snap.Products), len(snap.Ranking), snap.CreatedAt,
	); err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", snap.RunID)
	}

	runRows := make([][]any, len(snap.Products))
	catalogRows := make([][]any, len(snap.Products))
	for i := range snap.Products {
		values := productValues(&snap.Products[i])
		runRows[i] = append([]any{snap.RunID, i}, values...)
		catalogRows[i] = append(values, snap.RunID, snap.CreatedAt)
	}
	if _, err := db.CopyFrom(ctx, tx, "run_products", append([]string{"run_id", "position"}, productColumns...), runRows); err != nil {
		return eris.Wrap(err, "postgres: copy run products")
	}

	rankRows := make([][]any, len(snap.Ranking))
	for i := range snap.Ranking {
		rankRows[i] = append([]any{snap.RunID, i}, rankingValues(&snap.Ranking[i])...)
	}
	if _, err := db.CopyFrom(ctx, tx, "run_rankings", append([]string{"run_id", "position"}, rankingColumns...), rankRows); err != nil {
		return eris.Wrap(err, "postgres: copy run rankings")
	}

	// BulkUpsert nests a savepoint inside tx.
	if _, err := db.BulkUpsert(ctx, tx, db.UpsertConfig{
		Table:        "products",
		Columns:      append(append([]string{}, productColumns...), "last_run_id", "updated_at"),
		ConflictKeys: []string{"url"},
	}, catalogRows); err != nil {
		return eris.Wrap(err, "postgres: upsert products")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit snapshot")
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, status, product_count, ranked_count, created_at FROM runs ORDER BY created_at DESC LIMIT 1`,
	)
	summary, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest run")
	}

	snap := &model.Snapshot{
		RunID:     summary.RunID,
		Source:    summary.Source,
		Status:    summary.Status,
		CreatedAt: summary.CreatedAt,
	}
	if snap.Products, err = s.queryProducts(ctx,
		`SELECT `+strings.Join(productColumns, ", ")+` FROM run_products WHERE run_id = $1 ORDER BY position`,
		snap.RunID,
	); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+strings.Join(rankingColumns, ", ")+` FROM run_rankings WHERE run_id = $1 ORDER BY position`,
		snap.RunID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query ranking")
	}
	defer rows.Close()
	for rows.Next() {
		var e model.RankedEntry
		if err := rows.Scan(rankingDest(&e)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ranking")
		}
		snap.Ranking = append(snap.Ranking, e)
	}
	return snap, eris.Wrap(rows.Err(), "postgres: ranking iterate")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, status, product_count, ranked_count, created_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) Products(ctx context.Context) ([]model.Product, error) {
	return s.queryProducts(ctx, `SELECT `+strings.Join(productColumns, ", ")+` FROM products ORDER BY url`)
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(productDest(&p)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: products iterate")
}
