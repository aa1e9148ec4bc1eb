package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/payload"
)

// FeedSource reads the rollup product feed, the primary listing endpoint.
type FeedSource struct {
	fetcher fetcher.Fetcher
	site    Site
	walker  *payload.Walker
}

// NewFeedSource creates a FeedSource.
func NewFeedSource(f fetcher.Fetcher, site Site) *FeedSource {
	return &FeedSource{fetcher: f, site: site, walker: payload.NewWalker(site.Origin)}
}

// Name implements Source.
func (s *FeedSource) Name() string { return "feed" }

// Scopes implements Source. The gender filter is tried before the
// unfiltered feed.
func (s *FeedSource) Scopes() []Scope {
	scopes := make([]Scope, 0, 2)
	if s.site.Gender != "" {
		scopes = append(scopes, Scope{
			Name:   "gender:" + s.site.Gender,
			Params: url.Values{"filter": {fmt.Sprintf("gender(%s)", s.site.Gender)}},
		})
	}
	return append(scopes, Scope{Name: "all"})
}

// Page implements Source.
func (s *FeedSource) Page(ctx context.Context, scope Scope, anchor int) (*Page, error) {
	size := s.site.pageSize()
	params := url.Values{
		"filter": {
			fmt.Sprintf("marketplace(%s)", s.site.Marketplace),
			fmt.Sprintf("language(%s)", s.site.Language),
			fmt.Sprintf("channelId(%s)", s.site.ChannelID),
			"employeePrice(false)",
			"exclusiveAccess(false)",
		},
		"anchor": {strconv.Itoa(anchor)},
		"count":  {strconv.Itoa(size)},
	}
	return fetchJSONPage(ctx, s.fetcher, s.walker, s.Name(), s.site.FeedURL, merge(params, scope.Params), anchor, size)
}

// fetchJSONPage fetches and walks one page of a JSON listing endpoint.
func fetchJSONPage(ctx context.Context, f fetcher.Fetcher, w *payload.Walker, name, endpoint string, params url.Values, anchor, size int) (*Page, error) {
	resp, err := f.Get(ctx, endpoint, params)
	if err != nil {
		return nil, transportErr(name, anchor, err)
	}
	doc, err := payload.Decode(resp.Body)
	if err != nil {
		return nil, malformedErr(name, anchor, err)
	}

	var products []model.Product
	for p := range w.Products(doc) {
		products = append(products, p)
	}
	return &Page{Products: products, Next: anchor + size}, nil
}
