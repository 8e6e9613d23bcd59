// Package web embeds the stylesheet and tooltip script served with the chart.
//
// The class names in static/css/style.css are the chart's styling contract:
// stateCircle, stateText, aText/axisText and "tooltip d3-tip".
//
// Usage in the API server:
//
//	import "github.com/seenimoa/healthscatter/web"
//	fs := web.StaticFS() // rooted at static/, serve under /assets/
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static
var static embed.FS

// Asset paths inside StaticFS.
const (
	StylesheetPath = "css/style.css"
	ScriptPath     = "js/tooltip.js"
)

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func StaticFS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		log.Fatalf("web.StaticFS: %v", err)
	}
	return sub
}

// Stylesheet returns the chart stylesheet for inlining.
func Stylesheet() string { return mustRead(StylesheetPath) }

// Script returns the tooltip script for inlining.
func Script() string { return mustRead(ScriptPath) }

func mustRead(name string) string {
	b, err := fs.ReadFile(StaticFS(), name)
	if err != nil {
		log.Fatalf("web: read %s: %v", name, err)
	}
	return string(b)
}
