package catalog

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/source"
)

type mockSource struct {
	mock.Mock
	name   string
	scopes []source.Scope
}

func newMockSource(name string, scopes ...string) *mockSource {
	m := &mockSource{name: name}
	for _, s := range scopes {
		m.scopes = append(m.scopes, source.Scope{Name: s})
	}
	return m
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Scopes() []source.Scope { return m.scopes }

func (m *mockSource) Page(ctx context.Context, scope source.Scope, anchor int) (*source.Page, error) {
	args := m.Called(ctx, scope.Name, anchor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Page), args.Error(1)
}

func products(prefix string, n int) []model.Product {
	out := make([]model.Product, n)
	for i := range out {
		out[i] = model.Product{
			URL:  fmt.Sprintf("https://shop.test/%s/%d", prefix, i),
			Name: fmt.Sprintf("%s %d", prefix, i),
		}
	}
	return out
}

func page(next int, items ...model.Product) *source.Page {
	return &source.Page{Products: items, Next: next}
}
