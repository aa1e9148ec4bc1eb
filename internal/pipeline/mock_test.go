package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/enrich"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/store"
)

type fakeAssembler struct {
	result *catalog.Result
	err    error
}

func (f *fakeAssembler) Assemble(context.Context) (*catalog.Result, error) {
	return f.result, f.err
}

// fakeEnricher applies per-URL detail fields.
type fakeEnricher struct {
	details map[string]model.Product
	called  bool
}

func (f *fakeEnricher) Enrich(_ context.Context, products []*model.Product) enrich.Stats {
	f.called = true
	var stats enrich.Stats
	for _, p := range products {
		stats.Attempted++
		d, ok := f.details[p.URL]
		if !ok {
			stats.Failed++
			continue
		}
		p.RatingScore = d.RatingScore
		p.ReviewCount = d.ReviewCount
		p.Sizes = d.Sizes
		stats.Enriched++
	}
	return stats
}

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func (m *mockStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snapshot), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.RunSummary), args.Error(1)
}

func (m *mockStore) Products(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
