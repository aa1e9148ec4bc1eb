// Package store persists run snapshots: the catalog and ranking of each run,
// plus a products table holding the latest known values per product URL.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/catalog-cli/internal/model"
)

// RunSummary describes one persisted run.
type RunSummary struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Status    model.RunStatus `json:"status"`
	Products  int             `json:"products"`
	Ranked    int             `json:"ranked"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store defines the persistence interface for run snapshots.
type Store interface {
	// SaveSnapshot stores a run's catalog and ranking under its run id and
	// upserts every product into the products table. A missing run id or
	// creation time is filled in.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error

	// LatestSnapshot returns the most recent run, or nil when none exists.
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// Products returns the products table ordered by URL.
	Products(ctx context.Context) ([]model.Product, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 20

// productColumns matches the order of productValues.
var productColumns = []string{
	"url",
	"image_url",
	"tagging",
	"name",
	"description",
	"original_price",
	"discount_price",
	"sizes",
	"vouchers",
	"available_colors",
	"color_shown",
	"style_code",
	"rating_score",
	"review_count",
}

var rankingColumns = []string{
	"rank",
	"name",
	"rating_score",
	"review_count",
	"original_price",
	"discount_price",
	"url",
}

func productValues(p *model.Product) []any {
	return []any{
		p.URL,
		p.ImageURL,
		p.Tagging,
		p.Name,
		p.Description,
		p.OriginalPrice,
		p.DiscountPrice,
		p.Sizes,
		p.Vouchers,
		p.AvailableColors,
		p.ColorShown,
		p.StyleCode,
		p.RatingScore,
		p.ReviewCount,
	}
}

func productDest(p *model.Product) []any {
	return []any{
		&p.URL,
		&p.ImageURL,
		&p.Tagging,
		&p.Name,
		&p.Description,
		&p.OriginalPrice,
		&p.DiscountPrice,
		&p.Sizes,
		&p.Vouchers,
		&p.AvailableColors,
		&p.ColorShown,
		&p.StyleCode,
		&p.RatingScore,
		&p.ReviewCount,
	}
}

func rankingValues(e *model.RankedEntry) []any {
	return []any{e.Rank, e.Name, e.RatingScore, e.ReviewCount, e.OriginalPrice, e.DiscountPrice, e.URL}
}

func rankingDest(e *model.RankedEntry) []any {
	return []any{&e.Rank, &e.Name, &e.RatingScore, &e.ReviewCount, &e.OriginalPrice, &e.DiscountPrice, &e.URL}
}

// prepare fills in the run id, creation time, and status.
func prepare(snap *model.Snapshot) {
	if snap.RunID == "" {
		snap.RunID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	if snap.Status == "" {
		snap.Status = model.RunStatusComplete
		if len(snap.Products) == 0 {
			snap.Status = model.RunStatusEmpty
		}
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSummary(row scannable) (*RunSummary, error) {
	var r RunSummary
	var status string
	if err := row.Scan(&r.RunID, &r.Source, &status, &r.Products, &r.Ranked, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	return &r, nil
}
