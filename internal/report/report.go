// Package report turns a chart scene into deliverable documents: the bare
// SVG, a standalone HTML page with working tooltips, the scene as JSON, and
// raster/vector exports drawn with gonum/plot.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/seenimoa/healthscatter/internal/chart"
)

// ════════════════════════════════════════════════════════════════════
// Output Formats
// ════════════════════════════════════════════════════════════════════

// Format specifies an output format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatEPS  Format = "eps"
	FormatJPG  Format = "jpg"
	FormatTIF  Format = "tif"
)

var formatInfo = map[Format]struct {
	contentType string
	exported    bool // drawn by gonum/plot
}{
	FormatSVG:  {"image/svg+xml", false},
	FormatHTML: {"text/html; charset=utf-8", false},
	FormatJSON: {"application/json", false},
	FormatPNG:  {"image/png", true},
	FormatPDF:  {"application/pdf", true},
	FormatEPS:  {"application/postscript", true},
	FormatJPG:  {"image/jpeg", true},
	FormatTIF:  {"image/tiff", true},
}

// ErrUnknownFormat is returned for format names outside AllFormats.
var ErrUnknownFormat = errors.New("unknown output format")

// AllFormats lists every supported format, sorted.
func AllFormats() []Format {
	out := make([]Format, 0, len(formatInfo))
	for f := range formatInfo {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseFormat accepts a format name or a common alias (jpeg, tiff, htm).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "jpeg":
		f = FormatJPG
	case "tiff":
		f = FormatTIF
	case "htm":
		f = FormatHTML
	}
	if _, ok := formatInfo[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// ParseFormats parses a comma-separated list, dropping duplicates.
func ParseFormats(list string) ([]Format, error) {
	seen := map[Format]bool{}
	var out []Format
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrUnknownFormat)
	}
	return out, nil
}

// Extension is the file extension, with dot.
func (f Format) Extension() string { return "." + string(f) }

// ContentType is the HTTP media type.
func (f Format) ContentType() string { return formatInfo[f].contentType }

// Exported reports whether the format is drawn by gonum/plot rather than
// serialized from the scene.
func (f Format) Exported() bool { return formatInfo[f].exported }

// ════════════════════════════════════════════════════════════════════
// Dispatcher
// ════════════════════════════════════════════════════════════════════

// Write renders s in format f to w.
func Write(w io.Writer, s *chart.Scene, f Format, opts PageOptions) error {
	switch f {
	case FormatSVG:
		return s.WriteSVG(w)
	case FormatHTML:
		page, err := Page(s, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode scene: %w", err)
		}
		return nil
	}
	if f.Exported() {
		return Export(w, s, f)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
