package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := testSnapshot("run-1", at)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs("run-1", "feed", "complete", 2, 2, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"run_products"}, append([]string{"run_id", "position"}, productColumns...)).
		WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"run_rankings"}, append([]string{"run_id", "position"}, rankingColumns...)).
		WillReturnResult(2)
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_products"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_products"}, append(append([]string{}, productColumns...), "last_run_id", "updated_at")).
		WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("url"\) DO UPDATE SET`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectCommit()

	require.NoError(t, s.SaveSnapshot(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_EmptySkipsCopies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "browse", "empty", 0, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	snap := &model.Snapshot{Source: "browse"}
	require.NoError(t, s.SaveSnapshot(context.Background(), snap))
	assert.NotEmpty(t, snap.RunID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_InsertRunFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveSnapshot(context.Background(), testSnapshot("run-1", time.Now().UTC()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_CopyFailsRollsBackRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs("run-1", "feed", "complete", 2, 2, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"run_products"}, append([]string{"run_id", "position"}, productColumns...)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.SaveSnapshot(context.Background(), testSnapshot("run-1", at))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy run products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_BeginFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	err := s.SaveSnapshot(context.Background(), testSnapshot("run-1", time.Now().UTC()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin snapshot tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, source, status, product_count, ranked_count, created_at FROM runs`).
		WillReturnError(pgx.ErrNoRows)

	snap, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM runs ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "source", "status", "product_count", "ranked_count", "created_at"}).
			AddRow("run-1", "feed", "complete", 1, 1, at))
	mock.ExpectQuery(`FROM run_products WHERE run_id = \$1 ORDER BY position`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow("https://shop.test/a", "", "Sale", "A", "", "₱100.00", "₱80.00", "", "", "", "", "", "4.5", "200"))
	mock.ExpectQuery(`FROM run_rankings WHERE run_id = \$1 ORDER BY position`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(rankingColumns).
			AddRow(1, "A", "4.5", "200", "₱100.00", "₱80.00", "https://shop.test/a"))

	snap, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, model.RunStatusComplete, snap.Status)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "₱80.00", snap.Products[0].DiscountPrice)
	require.Len(t, snap.Ranking, 1)
	assert.Equal(t, 1, snap.Ranking[0].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM runs ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id", "source", "status", "product_count", "ranked_count", "created_at"}).
			AddRow("run-2", "browse", "complete", 10, 3, at.Add(time.Hour)).
			AddRow("run-1", "feed", "empty", 0, 0, at))

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, model.RunStatusEmpty, runs[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
