package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aluiziolira/go-scrape-laptops/parser"
	"github.com/aluiziolira/go-scrape-laptops/pipeline"
)

// ErrPaginationCycle is returned when a next link points at a page that was
// already fetched during the run.
var ErrPaginationCycle = errors.New("pagination cycle")

// Transport error categories.
const (
	CategoryTimeout     = "timeout"
	CategoryConnection  = "connection"
	CategoryForbidden   = "forbidden"
	CategoryNotFound    = "not_found"
	CategoryRateLimited = "rate_limited"
	CategoryHTTPStatus  = "http_status"
	CategoryOther       = "other"
)

// TransportError reports a failed page fetch: a network error or a
// non-success HTTP status.
type TransportError struct {
	URL        string
	StatusCode int
	Category   string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Errorf("transport %s: GET %s: status %d: %w", e.Category, e.URL, e.StatusCode, e.Err).Error()
	}
	return fmt.Errorf("transport %s: GET %s: %w", e.Category, e.URL, e.Err).Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorLabel maps err onto a short label for logs and metrics.
func ErrorLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Category
	}
	var missing *parser.MissingFieldError
	if errors.As(err, &missing) {
		return "missing_field"
	}
	var fsErr *pipeline.FilesystemError
	if errors.As(err, &fsErr) {
		return "filesystem"
	}
	if errors.Is(err, ErrPaginationCycle) {
		return "pagination_cycle"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return CategoryOther
}

func classifyError(url string, err error, statusCode int) *TransportError {
	if err == nil && statusCode == 0 {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("http status %d", statusCode)
	}
	te := &TransportError{URL: url, StatusCode: statusCode, Err: err}

	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		te.Category = CategoryTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		te.Category = CategoryTimeout
	case errors.As(err, &opErr):
		te.Category = CategoryConnection
	case statusCode == http.StatusForbidden:
		te.Category = CategoryForbidden
	case statusCode == http.StatusNotFound:
		te.Category = CategoryNotFound
	case statusCode == http.StatusTooManyRequests:
		te.Category = CategoryRateLimited
	case statusCode != 0:
		te.Category = CategoryHTTPStatus
	default:
		te.Category = CategoryOther
	}
	return te
}
