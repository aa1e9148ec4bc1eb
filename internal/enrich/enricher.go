// Package enrich fills detail-page fields into assembled products using a
// fixed pool of workers.
package enrich

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
)

// Defaults for the worker pool.
const (
	DefaultWorkers = 4
	DefaultDelay   = 500 * time.Millisecond
)

// Options configures an Enricher.
type Options struct {
	Workers int
	// Delay is slept by a worker after each fetch it makes.
	Delay time.Duration
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Attempted int64
	Enriched  int64
	Failed    int64
}

// Enricher fetches detail pages and copies their fields onto products.
type Enricher struct {
	fetcher fetcher.Fetcher
	workers int
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration)
}

// NewEnricher creates an Enricher.
func NewEnricher(f fetcher.Fetcher, opts Options) *Enricher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Enricher{fetcher: f, workers: opts.Workers, delay: opts.Delay, sleep: sleepCtx}
}

// Enrich processes every product and returns once all workers are done.
// Each product is handed to exactly one worker, which is the only writer of
// that product for the duration of the call. A failed fetch leaves the
// product untouched.
func (e *Enricher) Enrich(ctx context.Context, products []*model.Product) Stats {
	var attempted, enriched, failed atomic.Int64

	queue := make(chan *model.Product)
	var g errgroup.Group

	g.Go(func() error {
		defer close(queue)
		for _, p := range products {
			select {
			case queue <- p:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for range e.workers {
		g.Go(func() error {
			for p := range queue {
				attempted.Add(1)
				if e.enrichOne(ctx, p) {
					enriched.Add(1)
				} else {
					failed.Add(1)
				}
				e.sleep(ctx, e.delay)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{Attempted: attempted.Load(), Enriched: enriched.Load(), Failed: failed.Load()}
	zap.L().Info("enrich: detail pass complete",
		zap.Int("products", len(products)),
		zap.Int64("attempted", stats.Attempted),
		zap.Int64("enriched", stats.Enriched),
		zap.Int64("failed", stats.Failed),
	)
	return stats
}

func (e *Enricher) enrichOne(ctx context.Context, p *model.Product) bool {
	if p.URL == "" {
		return false
	}
	resp, err := e.fetcher.Get(ctx, p.URL, nil)
	if err != nil {
		zap.L().Debug("enrich: detail fetch failed", zap.String("url", p.URL), zap.Error(err))
		return false
	}
	details, err := Extract(resp.Body)
	if err != nil {
		zap.L().Debug("enrich: detail parse failed", zap.String("url", p.URL), zap.Error(err))
		return false
	}
	details.Apply(p)
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
