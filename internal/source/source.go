// Package source fetches paginated product listings from the catalog's
// listing endpoints. Each Source is stateless: a page depends only on the
// scope and anchor it is asked for.
package source

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Sentinel errors returned by Page. Both end the current scope.
var (
	ErrTransport = eris.New("source: transport failure")
	ErrMalformed = eris.New("source: malformed response")
)

// Scope is one filter combination queried independently, each restarting
// at anchor 0.
type Scope struct {
	Name   string
	Params url.Values
}

// Page is one listing response.
type Page struct {
	Products []model.Product
	// Next is the anchor of the following page.
	Next int
	// Last is set when no further page exists.
	Last bool
}

// Source is one listing strategy.
type Source interface {
	Name() string
	// Scopes returns the filter combinations in the order they are tried.
	Scopes() []Scope
	Page(ctx context.Context, scope Scope, anchor int) (*Page, error)
}

// Site describes the storefront being listed.
type Site struct {
	Origin      string
	LandingURL  string
	FeedURL     string
	BrowseURL   string
	ChannelID   string
	Marketplace string
	Language    string
	Path        string
	Gender      string
	PageSize    int
}

// Storefront defaults.
const (
	DefaultPageSize  = 60
	DefaultChannelID = "d9a5bc42-4b9c-4976-858a-f159cf99c647"
)

// DefaultSite returns the Philippine storefront.
func DefaultSite() Site {
	return Site{
		Origin:      "https://www.nike.com",
		LandingURL:  "https://www.nike.com/ph/w",
		FeedURL:     "https://api.nike.com/product_feed/rollup_threads/v2",
		BrowseURL:   "https://api.nike.com/cic/browse/v2",
		ChannelID:   DefaultChannelID,
		Marketplace: "PH",
		Language:    "en-PH",
		Path:        "/ph/w",
		Gender:      "Women",
		PageSize:    DefaultPageSize,
	}
}

func (s Site) pageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}

// transportErr wraps a fetch failure so it matches ErrTransport.
func transportErr(source string, anchor int, err error) error {
	return eris.Wrapf(ErrTransport, "%s anchor %d: %v", source, anchor, err)
}

func malformedErr(source string, anchor int, err error) error {
	return eris.Wrapf(ErrMalformed, "%s anchor %d: %v", source, anchor, err)
}

// merge returns a copy of base with extra appended.
func merge(base, extra url.Values) url.Values {
	out := make(url.Values, len(base)+len(extra))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = append(out[k], v...)
	}
	return out
}
