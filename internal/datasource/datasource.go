// Package datasource loads the scatter-plot dataset from local files,
// HTTP(S) endpoints, or in-memory readers. Every failure is reported as a
// LoadError so callers can treat loading as a single failure class.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/healthscatter/pkg/models"
)

// Source produces a dataset.
type Source interface {
	// Name returns a human-readable identifier, e.g. the path or URL.
	Name() string

	// Load fetches and parses the dataset.
	Load(ctx context.Context) (models.Dataset, error)
}

// --- Errors ---

// ErrLoadFailure is matched by every error returned from Source.Load.
var ErrLoadFailure = errors.New("dataset load failed")

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// LoadError wraps the underlying cause of a failed load.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports true for ErrLoadFailure.
func (e *LoadError) Is(target error) bool { return target == ErrLoadFailure }

func loadErr(source string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Source: source, Err: err}
}

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "healthscatter/1.0 (+https://github.com/seenimoa/healthscatter)"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}
