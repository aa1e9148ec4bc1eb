// Package pipeline wires the catalog stages left to right: assemble, enrich,
// validate, write, rank, and snapshot. Each stage finishes before the next
// one starts.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/enrich"
	"github.com/sells-group/catalog-cli/internal/export"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/rank"
	"github.com/sells-group/catalog-cli/internal/store"
)

// Assembler produces the deduplicated catalog.
type Assembler interface {
	Assemble(ctx context.Context) (*catalog.Result, error)
}

// Enricher fills detail fields in place.
type Enricher interface {
	Enrich(ctx context.Context, products []*model.Product) enrich.Stats
}

// Options configures outputs and ranking.
type Options struct {
	OutputDir       string
	Format          export.Format
	CatalogFile     string
	RankingFile     string
	ReviewThreshold int
	TopN            int
	ExpensiveN      int

	// Console receives the empty-tagging count and the tables. Defaults to stdout.
	Console io.Writer
}

// PhaseResult records how long one stage took.
type PhaseResult struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration_ms"`
}

// Report summarizes one run.
type Report struct {
	RunID        string              `json:"run_id"`
	Source       string              `json:"source"`
	Assembled    int                 `json:"assembled"`
	Enrichment   enrich.Stats        `json:"enrichment"`
	EmptyTagging int                 `json:"empty_tagging"`
	Valid        int                 `json:"valid"`
	CatalogPath  string              `json:"catalog_path,omitempty"`
	RankingPath  string              `json:"ranking_path,omitempty"`
	TopExpensive []rank.Priced       `json:"-"`
	Ranking      []model.RankedEntry `json:"ranking"`
	Snapshot     bool                `json:"snapshot"`
	Phases       []PhaseResult       `json:"phases"`
}

// Pipeline runs one catalog acquisition.
type Pipeline struct {
	assembler Assembler
	enricher  Enricher
	store     store.Store
	opts      Options
}

// New creates a Pipeline. st may be nil to skip the snapshot.
func New(assembler Assembler, enricher Enricher, st store.Store, opts Options) *Pipeline {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = export.FormatCSV
	}
	if opts.CatalogFile == "" {
		opts.CatalogFile = "products_data.csv"
	}
	if opts.RankingFile == "" {
		opts.RankingFile = "top_20_rating_review.csv"
	}
	return &Pipeline{assembler: assembler, enricher: enricher, store: st, opts: opts}
}

// Run executes every stage. An empty catalog ends the run early with an
// empty Report and nil error. Only output setup failures and cancellation
// are returned as errors.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	log := zap.L().With(zap.String("run_id", report.RunID))
	log.Info("pipeline: starting run")

	var assembled *catalog.Result
	err := p.track(report, "assemble", func() error {
		var err error
		assembled, err = p.assembler.Assemble(ctx)
		return err
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: assemble")
	}
	report.Source = assembled.Source
	report.Assembled = len(assembled.Products)
	if len(assembled.Products) == 0 {
		log.Warn("pipeline: no products found")
		return report, nil
	}
	products := assembled.Products

	_ = p.track(report, "enrich", func() error {
		report.Enrichment = p.enricher.Enrich(ctx, products)
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: enrich")
	}

	report.EmptyTagging = catalog.CountEmptyTagging(products)
	log.Info("pipeline: empty tagging", zap.Int("count", report.EmptyTagging))
	fmt.Fprintf(p.opts.Console, "Total products with empty tagging: %d\n", report.EmptyTagging)

	valid := catalog.Validate(products)
	report.Valid = len(valid)
	err = p.track(report, "write_catalog", func() error {
		path := p.outputPath(p.opts.CatalogFile)
		if err := export.WriteCatalog(path, p.opts.Format, valid); err != nil {
			return err
		}
		report.CatalogPath = path
		log.Info("pipeline: catalog written", zap.String("path", path), zap.Int("products", len(valid)))
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: write catalog")
	}

	err = p.track(report, "rank", func() error {
		return p.rank(report, products)
	})
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		_ = p.track(report, "snapshot", func() error {
			p.snapshot(ctx, report, valid)
			return nil
		})
	}

	log.Info("pipeline: run complete",
		zap.String("source", report.Source),
		zap.Int("assembled", report.Assembled),
		zap.Int("valid", report.Valid),
		zap.Int("ranked", len(report.Ranking)),
	)
	return report, nil
}

// Rank prints the most expensive products and writes the leaderboard for
// an already assembled catalog.
func (p *Pipeline) Rank(products []*model.Product) (*Report, error) {
	report := &Report{Assembled: len(products)}
	if err := p.rank(report, products); err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) rank(report *Report, products []*model.Product) error {
	discounted := make([]*model.Product, 0, len(products))
	for _, prod := range products {
		if prod.HasDiscount() {
			discounted = append(discounted, prod)
		}
	}
	report.TopExpensive = rank.TopExpensive(discounted, p.opts.ExpensiveN)
	export.PrintTopExpensive(p.opts.Console, report.TopExpensive)

	report.Ranking = rank.Competition(products, p.opts.ReviewThreshold, p.opts.TopN)
	path := p.outputPath(p.opts.RankingFile)
	if err := export.WriteRanking(path, p.opts.Format, report.Ranking); err != nil {
		return eris.Wrap(err, "pipeline: write ranking")
	}
	report.RankingPath = path
	zap.L().Info("pipeline: ranking written",
		zap.String("path", path),
		zap.Int("entries", len(report.Ranking)),
	)
	return nil
}

// snapshot persists the run. Failures are logged because the output files
// already exist at this point.
func (p *Pipeline) snapshot(ctx context.Context, report *Report, valid []*model.Product) {
	snap := &model.Snapshot{
		RunID:     report.RunID,
		Source:    report.Source,
		Status:    model.RunStatusComplete,
		Products:  make([]model.Product, len(valid)),
		Ranking:   report.Ranking,
		CreatedAt: time.Now().UTC(),
	}
	for i, prod := range valid {
		snap.Products[i] = *prod
	}
	if err := p.store.SaveSnapshot(ctx, snap); err != nil {
		zap.L().Warn("pipeline: snapshot failed", zap.String("run_id", report.RunID), zap.Error(err))
		return
	}
	report.Snapshot = true
}

func (p *Pipeline) outputPath(name string) string {
	path := export.WithExtension(name, p.opts.Format)
	if p.opts.OutputDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.opts.OutputDir, path)
}

func (p *Pipeline) track(report *Report, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	report.Phases = append(report.Phases, PhaseResult{Name: name, Duration: duration})
	if err != nil {
		zap.L().Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return err
	}
	zap.L().Info("pipeline: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}
