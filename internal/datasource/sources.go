package datasource

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/seenimoa/healthscatter/internal/infra"
	"github.com/seenimoa/healthscatter/pkg/models"
)

// DefaultPath is where the dataset lives relative to the working directory.
const DefaultPath = "assets/data/data.csv"

// Open returns the source for location: http(s) URLs become an HTTPSource,
// anything else is treated as a file path.
func Open(location string) Source {
	if location == "" {
		location = DefaultPath
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTPSource(location)
	}
	return NewFileSource(location)
}

// OpenLimited is Open with remote fetches limited to perSecond requests
// per second. perSecond <= 0 keeps the default limit.
func OpenLimited(location string, perSecond float64) Source {
	src := Open(location)
	hs, ok := src.(*HTTPSource)
	if !ok || perSecond <= 0 {
		return src
	}
	burst := int(math.Ceil(perSecond))
	return hs.WithLimiter(infra.NewRateLimiter(burst, time.Duration(float64(time.Second)/perSecond)))
}

// IsRemote reports whether location would be fetched over HTTP.
func IsRemote(location string) bool {
	_, ok := Open(location).(*HTTPSource)
	return ok
}

// --- File ---

// FileSource reads a CSV from the local filesystem.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.Path }

// Load reads and parses the file.
func (s *FileSource) Load(ctx context.Context) (models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(s.Path, err)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, loadErr(s.Path, err)
	}
	defer f.Close()

	ds, err := ParseCSV(f)
	if err != nil {
		return nil, loadErr(s.Path, err)
	}
	return ds, nil
}

// --- HTTP ---

// HTTPSource fetches a CSV over HTTP(S).
type HTTPSource struct {
	URL     string
	client  *http.Client
	limiter *infra.RateLimiter
}

// NewHTTPSource creates a source for url using the shared HTTPClient,
// limited to 5 requests per second.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:     url,
		client:  HTTPClient,
		limiter: infra.NewRateLimiter(5, time.Second),
	}
}

// WithClient returns a copy of s using client.
func (s *HTTPSource) WithClient(client *http.Client) *HTTPSource {
	cp := *s
	cp.client = client
	return &cp
}

// WithLimiter returns a copy of s sharing limiter.
func (s *HTTPSource) WithLimiter(limiter *infra.RateLimiter) *HTTPSource {
	cp := *s
	cp.limiter = limiter
	return &cp
}

// Name returns the URL.
func (s *HTTPSource) Name() string { return s.URL }

// Load fetches and parses the remote CSV.
func (s *HTTPSource) Load(ctx context.Context) (models.Dataset, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, loadErr(s.URL, err)
		}
	}

	body, err := doGet(ctx, s.client, s.URL)
	if err != nil {
		return nil, loadErr(s.URL, err)
	}
	defer body.Close()

	ds, err := ParseCSV(body)
	if err != nil {
		return nil, loadErr(s.URL, err)
	}
	return ds, nil
}

// --- In-memory ---

// ReaderSource parses CSV bytes held in memory.
type ReaderSource struct {
	Label string
	Data  []byte
}

// NewReaderSource creates a source over data.
func NewReaderSource(label string, data []byte) *ReaderSource {
	return &ReaderSource{Label: label, Data: data}
}

// Name returns the label.
func (s *ReaderSource) Name() string {
	if s.Label == "" {
		return "inline"
	}
	return s.Label
}

// Load parses the held bytes.
func (s *ReaderSource) Load(ctx context.Context) (models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(s.Name(), err)
	}
	ds, err := ParseCSV(bytes.NewReader(s.Data))
	if err != nil {
		return nil, loadErr(s.Name(), fmt.Errorf("parse: %w", err))
	}
	return ds, nil
}
