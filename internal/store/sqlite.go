package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/catalog-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	product_count INTEGER NOT NULL DEFAULT 0,
	ranked_count  INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_products (
	run_id           TEXT NOT NULL REFERENCES runs(id),
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
	run_id         TEXT NOT NULL REFERENCES runs(id),
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
	updated_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	sqliteInsertProduct = fmt.Sprintf(
		`INSERT INTO run_products (run_id, position, %s) VALUES (?, ?%s)`,
		strings.Join(productColumns, ", "), strings.Repeat(", ?", len(productColumns)),
	)
	sqliteInsertRanking = fmt.Sprintf(
		`INSERT INTO run_rankings (run_id, position, %s) VALUES (?, ?%s)`,
		strings.Join(rankingColumns, ", "), strings.Repeat(", ?", len(rankingColumns)),
	)
	sqliteUpsertProduct = fmt.Sprintf(
		`INSERT INTO products (%s, last_run_id, updated_at) VALUES (?%s, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET %s, last_run_id = excluded.last_run_id, updated_at = excluded.updated_at`,
		strings.Join(productColumns, ", "),
		strings.Repeat(", ?", len(productColumns)-1),
		excludedAssignments(productColumns[1:]),
	)
)

func excludedAssignments(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " = excluded." + c
	}
	return strings.Join(parts, ", ")
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	prepare(snap)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin snapshot")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, product_count, ranked_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.Source, string(snap.Status), len(snap.Products), len(snap.Ranking), snap.CreatedAt,
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", snap.RunID)
	}

	for i := range snap.Products {
		p := &snap.Products[i]
		args := append([]any{snap.RunID, i}, productValues(p)...)
		if _, err := tx.ExecContext(ctx, sqliteInsertProduct, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert run product %s", p.URL)
		}
		upsert := append(productValues(p), snap.RunID, snap.CreatedAt)
		if _, err := tx.ExecContext(ctx, sqliteUpsertProduct, upsert...); err != nil {
			return eris.Wrapf(err, "sqlite: upsert product %s", p.URL)
		}
	}
	for i := range snap.Ranking {
		args := append([]any{snap.RunID, i}, rankingValues(&snap.Ranking[i])...)
		if _, err := tx.ExecContext(ctx, sqliteInsertRanking, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert ranking row %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, product_count, ranked_count, created_at FROM runs
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest run")
	}

	snap := &model.Snapshot{
		RunID:     summary.RunID,
		Source:    summary.Source,
		Status:    summary.Status,
		CreatedAt: summary.CreatedAt,
	}
	if snap.Products, err = s.queryProducts(ctx,
		`SELECT `+strings.Join(productColumns, ", ")+` FROM run_products WHERE run_id = ? ORDER BY position`,
		snap.RunID,
	); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(rankingColumns, ", ")+` FROM run_rankings WHERE run_id = ? ORDER BY position`,
		snap.RunID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query ranking")
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var e model.RankedEntry
		if err := rows.Scan(rankingDest(&e)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ranking")
		}
		snap.Ranking = append(snap.Ranking, e)
	}
	return snap, eris.Wrap(rows.Err(), "sqlite: ranking iterate")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, status, product_count, ranked_count, created_at FROM runs
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []RunSummary
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) Products(ctx context.Context) ([]model.Product, error) {
	return s.queryProducts(ctx, `SELECT `+strings.Join(productColumns, ", ")+` FROM products ORDER BY url`)
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query products")
	}
	defer rows.Close() //nolint:errcheck

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(productDest(&p)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: products iterate")
}
