package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/internal/datasource"
	"github.com/seenimoa/healthscatter/internal/report"
)

// --- Render Command ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the chart to files or stdout",
	Long: `Render the scatter plot in one or more formats.

Examples:
  healthscatter render
  healthscatter render --format svg,html,png --out build/
  healthscatter render --variant starter --format html --out - > chart.html
  healthscatter render --data https://example.com/data.csv --format pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRenderFlags(cmd); err != nil {
			return err
		}
		cc, err := chartConfig()
		if err != nil {
			return err
		}
		list, _ := cmd.Flags().GetString("format")
		formats, err := report.ParseFormats(list)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		name, _ := cmd.Flags().GetString("name")
		title, _ := cmd.Flags().GetString("title")
		opts := report.PageOptions{Title: title, Footer: true}
		if out == "-" && len(formats) != 1 {
			return fmt.Errorf("--out - takes exactly one format, got %d", len(formats))
		}

		scene := renderScene(cmd, cc)

		if out == "-" {
			if err := report.Write(cmd.OutOrStdout(), scene, formats[0], opts); err != nil {
				return err
			}
		} else if err := writeFiles(out, name, scene, formats, opts); err != nil {
			return err
		}

		// The empty canvas is still written; the failure was logged by the
		// renderer.
		if scene.Failed() {
			return errLoadFailed
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().String("data", "", "dataset path or URL (default from config: assets/data/data.csv)")
	renderCmd.Flags().String("variant", "", "chart preset (classic, starter)")
	renderCmd.Flags().String("format", "svg", "comma-separated output formats (svg, html, json, png, pdf, eps, jpg, tif)")
	renderCmd.Flags().String("out", ".", "output directory, or - for stdout")
	renderCmd.Flags().String("name", "scatter", "output file base name")
	renderCmd.Flags().String("title", "", "HTML page title")
}

// applyRenderFlags folds --data and --variant into the loaded config.
func applyRenderFlags(cmd *cobra.Command) error {
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		cfg.Data.Source = data
	}
	if variant, _ := cmd.Flags().GetString("variant"); variant != "" {
		if _, err := chart.Preset(variant); err != nil {
			return err
		}
		cfg.Chart.Variant = variant
	}
	return nil
}

// renderScene loads the configured dataset and builds the scene.
func renderScene(cmd *cobra.Command, cc chart.Config) *chart.Scene {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
	defer cancel()
	src := datasource.OpenLimited(cfg.Data.Source, cfg.Data.RateLimit)
	return chart.NewRenderer(cc, src, log).Render(ctx)
}

// writeFiles writes one file per format into dir concurrently.
func writeFiles(dir, name string, scene *chart.Scene, formats []report.Format, opts report.PageOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var g errgroup.Group
	for _, f := range formats {
		f := f
		path := filepath.Join(dir, name+f.Extension())
		g.Go(func() error {
			file, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := report.Write(file, scene, f, opts); err != nil {
				file.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := file.Close(); err != nil {
				return err
			}
			log.Info("wrote chart", "format", string(f), "path", path)
			return nil
		})
	}
	return g.Wait()
}
