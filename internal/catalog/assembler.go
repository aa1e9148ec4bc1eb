// Package catalog assembles the product catalog from listing sources and
// filters it for publication.
package catalog

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/source"
)

// Options configures an Assembler.
type Options struct {
	// Spacing is the minimum delay between two listing page requests.
	Spacing time.Duration
	// MaxPages caps the pages read per scope. 0 means no cap.
	MaxPages int
}

// Result is the committed output of one strategy.
type Result struct {
	Products []*model.Product
	// Source names the strategy that produced the products.
	Source string
	// Pages counts the listing pages fetched across all strategies tried.
	Pages int
}

// Assembler drives the fallback chain of listing sources. Sources are tried
// in order and the first one that yields any product is committed.
type Assembler struct {
	sources  []source.Source
	limiter  *rate.Limiter
	maxPages int
}

// NewAssembler creates an Assembler over sources in priority order.
func NewAssembler(sources []source.Source, opts Options) *Assembler {
	limit := rate.Inf
	if opts.Spacing > 0 {
		limit = rate.Every(opts.Spacing)
	}
	return &Assembler{
		sources:  sources,
		limiter:  rate.NewLimiter(limit, 1),
		maxPages: opts.MaxPages,
	}
}

// Assemble runs the chain. A chain where no source yields anything returns
// an empty Result; only context cancellation is an error.
func (a *Assembler) Assemble(ctx context.Context) (*Result, error) {
	result := &Result{}
	for _, src := range a.sources {
		products, pages, err := a.collect(ctx, src)
		result.Pages += pages
		if err != nil {
			return nil, err
		}
		if len(products) > 0 {
			result.Products = products
			result.Source = src.Name()
			zap.L().Info("catalog: listing assembled",
				zap.String("source", src.Name()),
				zap.Int("products", len(products)),
				zap.Int("pages", result.Pages),
			)
			return result, nil
		}
		zap.L().Info("catalog: source yielded no products, falling back",
			zap.String("source", src.Name()),
		)
	}

	zap.L().Warn("catalog: no source yielded products", zap.Int("pages", result.Pages))
	return result, nil
}

// collect reads one source into a fresh working set. Scopes are tried in
// order until one of them yields products.
func (a *Assembler) collect(ctx context.Context, src source.Source) ([]*model.Product, int, error) {
	seen := make(map[string]struct{})
	var products []*model.Product
	pages := 0

	for _, scope := range src.Scopes() {
		log := zap.L().With(zap.String("source", src.Name()), zap.String("scope", scope.Name))
		anchor := 0
		for page := 1; ; page++ {
			if a.maxPages > 0 && page > a.maxPages {
				log.Warn("catalog: page cap reached", zap.Int("max_pages", a.maxPages))
				break
			}
			if err := a.limiter.Wait(ctx); err != nil {
				return nil, pages, eris.Wrap(err, "catalog: wait for listing slot")
			}

			p, err := src.Page(ctx, scope, anchor)
			if err != nil {
				if ctx.Err() != nil {
					return nil, pages, eris.Wrap(ctx.Err(), "catalog: assemble")
				}
				log.Warn("catalog: page failed, ending scope", zap.Int("anchor", anchor), zap.Error(err))
				break
			}
			pages++
			if len(p.Products) == 0 {
				log.Info("catalog: page empty, ending scope", zap.Int("anchor", anchor))
				break
			}

			for i := range p.Products {
				prod := p.Products[i]
				if prod.URL == "" {
					continue
				}
				if _, dup := seen[prod.URL]; dup {
					continue
				}
				seen[prod.URL] = struct{}{}
				products = append(products, &prod)
			}
			log.Info("catalog: page collected",
				zap.Int("page", page),
				zap.Int("page_products", len(p.Products)),
				zap.Int("total", len(products)),
			)

			if p.Last || p.Next <= anchor {
				break
			}
			anchor = p.Next
		}
		if len(products) > 0 {
			break
		}
	}
	return products, pages, nil
}
