// healthscatter: poverty vs. healthcare scatter plot renderer
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/healthscatter/api"
	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/internal/config"
	"github.com/seenimoa/healthscatter/internal/datasource"
	"github.com/seenimoa/healthscatter/internal/infra"
	"github.com/seenimoa/healthscatter/internal/preview"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set up before any command runs.
var (
	cfg *config.Config
	log *slog.Logger
)

// errLoadFailed is returned after a dataset load failure has already been
// logged; main exits non-zero without printing it again.
var errLoadFailed = errors.New("dataset load failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errLoadFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "healthscatter",
	Short: "healthscatter — poverty vs. healthcare scatter plot",
	Long: `healthscatter renders a scatter plot of the share of people in poverty
against the share lacking healthcare, one labelled circle per state, from a
CSV dataset. Output as SVG, a standalone HTML page with hover tooltips, or an
image; serve it over HTTP; or preview it in the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = infra.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statusCmd)
}

// chartConfig resolves and validates the chart configuration.
func chartConfig() (chart.Config, error) {
	if err := cfg.Validate(); err != nil {
		return chart.Config{}, err
	}
	cc, err := cfg.ResolveChart()
	if err != nil {
		return chart.Config{}, err
	}
	if err := cc.Validate(); err != nil {
		return chart.Config{}, fmt.Errorf("chart config: %w", err)
	}
	return cc, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "healthscatter %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Serve the chart page, SVG and image exports, the JSON API and the hover WebSocket.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}
		if data, _ := cmd.Flags().GetString("data"); data != "" {
			cfg.Data.Source = data
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		api.Version = version
		srv, err := api.NewServer(cfg, log)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config: 8080)")
	serveCmd.Flags().String("data", "", "dataset path or URL")
}

// --- Preview Command ---

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the chart in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRenderFlags(cmd); err != nil {
			return err
		}
		cc, err := chartConfig()
		if err != nil {
			return err
		}
		scene := renderScene(cmd, cc)
		return preview.Run(scene)
	},
}

func init() {
	previewCmd.Flags().String("data", "", "dataset path or URL")
	previewCmd.Flags().String("variant", "", "chart preset (classic, starter)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and where each setting came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  healthscatter — Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		configFile := cfg.File
		if configFile == "" {
			configFile = "(none, defaults)"
		}
		fmt.Fprintf(out, "  Config file:   %s\n", configFile)
		kind := "file"
		if datasource.IsRemote(cfg.Data.Source) {
			kind = "http"
		}
		fmt.Fprintf(out, "  Dataset:       %s\n", kind)
		fmt.Fprintf(out, "  Variants:      %v\n", chart.Variants())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Settings:")
		for _, st := range config.CheckSettings(cfg, config.FileKeys(cfg.File)) {
			fmt.Fprintf(out, "    %-16s %-32s %-8s %s\n", st.Key, st.Value, st.Source, st.EnvVar)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\n  ❌ invalid: %v\n", err)
		} else {
			fmt.Fprintln(out, "\n  ✅ configuration valid")
		}
		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
