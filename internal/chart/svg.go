package chart

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/seenimoa/healthscatter/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Serialization
// ════════════════════════════════════════════════════════════════════

// WriteSVG writes the scene as a standalone SVG document. A failed scene
// yields the canvas and the empty chart group.
func (s *Scene) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(s.svgOpen())
	fmt.Fprintf(bw, `<g transform="translate(%d, %d)">`, s.OriginX, s.OriginY)

	if !s.Failed() {
		s.writeAxis(bw, s.XAxis)
		s.writeAxis(bw, s.YAxis)
		for _, c := range s.Circles {
			fmt.Fprintf(bw, `<circle cx="%s" cy="%s" r="%s" opacity="%s" class="%s" data-index="%d"></circle>`,
				num(c.CX), num(c.CY), num(c.R), num(c.Opacity), escapeXML(c.Class), c.Index)
		}
		for _, t := range s.Labels {
			fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="%dpx" class="%s" data-index="%d">%s</text>`,
				num(t.X), num(t.Y), t.FontSize, escapeXML(t.Class), t.Index, escapeXML(t.Text))
		}
		for _, c := range s.Captions {
			writeCaption(bw, c)
		}
	}

	bw.WriteString("</g></svg>")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// String returns the SVG document.
func (s *Scene) String() string {
	var sb strings.Builder
	_ = s.WriteSVG(&sb)
	return sb.String()
}

func (s *Scene) svgOpen() string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, s.Width, s.Height)
}

func (s *Scene) writeAxis(w *bufio.Writer, a *Axis) {
	if a == nil {
		return
	}
	fmt.Fprintf(w, `<g transform="translate(%s,%s)" fill="none" font-size="10" font-family="sans-serif" text-anchor="%s">`,
		num(a.TranslateX), num(a.TranslateY), a.textAnchor())
	fmt.Fprintf(w, `<path class="domain" stroke="currentColor" d="%s"></path>`, a.DomainPath())

	for _, t := range a.Ticks {
		fmt.Fprintf(w, `<g class="tick" opacity="1" transform="%s">`, a.tickTransform(t))
		if a.Orient == OrientLeft {
			fmt.Fprintf(w, `<line stroke="currentColor" x2="-%d"></line>`, tickSize)
			fmt.Fprintf(w, `<text fill="currentColor" x="-%d" dy="0.32em">%s</text>`, tickSize+tickPadding, escapeXML(t.Label))
		} else {
			fmt.Fprintf(w, `<line stroke="currentColor" y2="%d"></line>`, tickSize)
			fmt.Fprintf(w, `<text fill="currentColor" y="%d" dy="0.71em">%s</text>`, tickSize+tickPadding, escapeXML(t.Label))
		}
		w.WriteString("</g>")
	}
	w.WriteString("</g>")
}

func writeCaption(w *bufio.Writer, c Caption) {
	fmt.Fprintf(w, `<text transform="%s"`, escapeXML(c.Transform))
	if c.Y != 0 {
		fmt.Fprintf(w, ` y="%s"`, num(c.Y))
	}
	if c.X != 0 {
		fmt.Fprintf(w, ` x="%s"`, num(c.X))
	}
	if c.DY != "" {
		fmt.Fprintf(w, ` dy="%s"`, escapeXML(c.DY))
	}
	fmt.Fprintf(w, ` class="%s">%s</text>`, escapeXML(c.Class), escapeXML(c.Text))
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

// num formats a coordinate the way a browser stringifies numbers.
func num(v float64) string { return models.FormatNumber(v) }

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
