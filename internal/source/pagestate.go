package source

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/payload"
)

// Markers of state blocks embedded in the landing page.
var stateMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<script[^>]*id="__NEXT_DATA__"[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)__PRELOADED_STATE__\s*=\s*(\{.*?\})\s*;`),
}

// PageStateSource extracts listings from state embedded in the landing
// page. It has a single scope and a single page.
type PageStateSource struct {
	fetcher fetcher.Fetcher
	site    Site
	walker  *payload.Walker
}

// NewPageStateSource creates a PageStateSource.
func NewPageStateSource(f fetcher.Fetcher, site Site) *PageStateSource {
	return &PageStateSource{fetcher: f, site: site, walker: payload.NewWalker(site.Origin)}
}

// Name implements Source.
func (s *PageStateSource) Name() string { return "page_state" }

// Scopes implements Source.
func (s *PageStateSource) Scopes() []Scope {
	return []Scope{{Name: "landing"}}
}

// Page implements Source. Blocks that fail to parse are skipped.
func (s *PageStateSource) Page(ctx context.Context, _ Scope, anchor int) (*Page, error) {
	resp, err := s.fetcher.Get(ctx, s.site.LandingURL, nil)
	if err != nil {
		return nil, transportErr(s.Name(), anchor, err)
	}

	var products []model.Product
	for _, block := range StateBlocks(resp.Body) {
		doc, err := payload.DecodeLenient(block)
		if err != nil {
			zap.L().Debug("source: skipping unparseable state block",
				zap.Int("bytes", len(block)),
				zap.Error(err),
			)
			continue
		}
		for p := range s.walker.Products(doc) {
			products = append(products, p)
		}
	}
	return &Page{Products: products, Last: true}, nil
}

// StateBlocks returns every embedded state block in html, in marker order.
func StateBlocks(html []byte) [][]byte {
	var blocks [][]byte
	for _, re := range stateMarkers {
		for _, m := range re.FindAllSubmatch(html, -1) {
			blocks = append(blocks, m[1])
		}
	}
	return blocks
}
