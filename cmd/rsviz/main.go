// rsviz — relative-strength visualizer backend.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsviz/rsviz/api"
	"github.com/rsviz/rsviz/internal/analytics"
	"github.com/rsviz/rsviz/internal/config"
	"github.com/rsviz/rsviz/internal/source"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rsviz",
	Short: "rsviz — relative-strength visualizer backend",
	Long: `rsviz fetches daily price series from interchangeable sources
(synthetic, fiat exchange rates, crypto), aligns them on a common calendar,
and derives the rebased/relative-strength views the chart UI renders.`,
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
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rsviz %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one fetch-then-process cycle and print the result as JSON",
	Long: `Fetch a raw price series from the selected source, run the analytics
pipeline, and print the processed model to stdout.

Examples:
  rsviz analyze --source synthetic --assets USD,EUR --days 90
  rsviz analyze --source crypto --assets BTC,ETH,SOL --days 180`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srcName, _ := cmd.Flags().GetString("source")
		assetList, _ := cmd.Flags().GetString("assets")
		days, _ := cmd.Flags().GetInt("days")

		var assets []string
		for _, sym := range strings.Split(assetList, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				assets = append(assets, strings.ToUpper(sym))
			}
		}

		adapter := source.NewAdapter(cfg.Sources)
		raw, err := adapter.Fetch(cmd.Context(), source.ParseKind(srcName), assets, days)
		if err != nil {
			return err
		}

		processed, err := analytics.Process(raw, assets)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(processed)
	},
}

func init() {
	analyzeCmd.Flags().String("source", "synthetic", "data source (synthetic, fiat, crypto)")
	analyzeCmd.Flags().String("assets", "", "comma-separated asset symbols; first is the base asset")
	analyzeCmd.Flags().Int("days", 90, "lookback window in days")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		srv := api.NewServer(cfg)
		fmt.Printf("rsviz API listening on http://%s\n", addr)
		return srv.ListenAndServe(addr)
	},
}
