package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/web"
)

// PageOptions controls the standalone HTML page.
type PageOptions struct {
	Title    string // default: "Poverty vs. Healthcare"
	Subtitle string // optional line under the title
	Footer   bool   // print the source and generation time
	Now      func() time.Time
}

// DefaultTitle is used when PageOptions.Title is empty.
const DefaultTitle = "Poverty vs. Healthcare"

// pageData is the template model passed to PageTemplate.
type pageData struct {
	Title      string
	Subtitle   string
	Footer     string
	Stylesheet template.CSS
	Script     template.JS
	SVG        template.HTML
	Tooltips   template.JS
}

// tooltipTable is the JSON the page script reads: one precomputed state
// per record and mark kind.
type tooltipTable struct {
	Class  string               `json:"class"`
	Circle []chart.TooltipState `json:"circle"`
	Text   []chart.TooltipState `json:"text"`
}

var pageTmpl = template.Must(template.New("page").Parse(PageTemplate))

// Page renders s as a standalone HTML document with the SVG inside the
// #scatter container and working hover tooltips.
func Page(s *chart.Scene, opts PageOptions) (string, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tips, err := json.Marshal(tooltipTable{
		Class:  s.Config.Classes.Tooltip,
		Circle: s.TooltipsFor(chart.MarkCircle),
		Text:   s.TooltipsFor(chart.MarkText),
	})
	if err != nil {
		return "", fmt.Errorf("encode tooltips: %w", err)
	}

	data := pageData{
		Title:      opts.Title,
		Subtitle:   opts.Subtitle,
		Stylesheet: template.CSS(web.Stylesheet()),
		Script:     template.JS(web.Script()),
		// The SVG writer escapes every text node and attribute itself.
		SVG:      template.HTML(s.String()),
		Tooltips: template.JS(tips),
	}
	if opts.Footer {
		data.Footer = fmt.Sprintf("%d records · %s variant · generated %s",
			len(s.Records), s.Config.Variant, opts.Now().UTC().Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
