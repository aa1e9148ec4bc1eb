// Package fetcher issues rate-limited HTTP GETs for listing and detail pages
// and streams tabular files back in as header-keyed records.
package fetcher

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
)

// ErrBodyTooLarge is returned when a response body exceeds the configured cap.
var ErrBodyTooLarge = eris.New("fetcher: response body too large")

// Fetcher retrieves one document.
type Fetcher interface {
	// Get issues a GET for rawURL with params merged into its query string.
	// A non-200 response is returned as a *StatusError.
	Get(ctx context.Context, rawURL string, params url.Values) (*Response, error)
}

// Response is a fully read 200 response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError reports a response whose status was not 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}
