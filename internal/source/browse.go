package source

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/payload"
)

// BrowseSource reads the browse API, the secondary listing endpoint.
type BrowseSource struct {
	fetcher fetcher.Fetcher
	site    Site
	walker  *payload.Walker
}

// NewBrowseSource creates a BrowseSource.
func NewBrowseSource(f fetcher.Fetcher, site Site) *BrowseSource {
	return &BrowseSource{fetcher: f, site: site, walker: payload.NewWalker(site.Origin)}
}

// Name implements Source.
func (s *BrowseSource) Name() string { return "browse" }

// Scopes implements Source.
func (s *BrowseSource) Scopes() []Scope {
	scopes := make([]Scope, 0, 2)
	if s.site.Gender != "" {
		scopes = append(scopes, Scope{
			Name:   "gender:" + s.site.Gender,
			Params: url.Values{"filter": {"gender:" + s.site.Gender}},
		})
	}
	return append(scopes, Scope{Name: "all"})
}

// Page implements Source.
func (s *BrowseSource) Page(ctx context.Context, scope Scope, anchor int) (*Page, error) {
	size := s.site.pageSize()
	params := url.Values{
		"queryid":           {"products"},
		"country":           {s.site.Marketplace},
		"language":          {s.site.Language},
		"marketplace":       {s.site.Marketplace},
		"channel":           {"web"},
		"count":             {strconv.Itoa(size)},
		"anchor":            {strconv.Itoa(anchor)},
		"consumerChannelId": {s.site.ChannelID},
		"path":              {s.site.Path},
	}
	return fetchJSONPage(ctx, s.fetcher, s.walker, s.Name(), s.site.BrowseURL, merge(params, scope.Params), anchor, size)
}
