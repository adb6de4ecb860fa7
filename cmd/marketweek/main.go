// marketweek scrapes weekly market data for a list of assets and writes
// prices and week-over-week / year-to-date changes to a workbook.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/seenimoa/marketweek/internal/config"
	"github.com/seenimoa/marketweek/internal/datasource"
	"github.com/seenimoa/marketweek/internal/infra"
	"github.com/seenimoa/marketweek/internal/pipeline"
	"github.com/seenimoa/marketweek/internal/registry"
	"github.com/seenimoa/marketweek/internal/report"
	"github.com/seenimoa/marketweek/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root command.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketweek",
	Short: "Weekly market data scraper",
	Long: `marketweek reads a list of assets and their source pages from a
spreadsheet, scrapes the last week of prices for each one and writes the
prices plus weekly and year-to-date changes to an Excel workbook.`,
	SilenceUsage: true,
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
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = infra.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("input", "", "sources workbook (overrides input.path)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketweek %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape every source and write the results workbook",
	Long: `Scrape every asset listed in the sources sheet, compute weekly and
year-to-date changes and write the prices and changes sheets.

Examples:
  marketweek run
  marketweek run --input ./Sources.xlsx --output ./results.xlsx
  marketweek run --concurrency 1 --fail-fast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd)

		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		var asOf time.Time
		if s, _ := cmd.Flags().GetString("as-of"); s != "" {
			if asOf, err = utils.ParseDate(s); err != nil {
				return fmt.Errorf("invalid --as-of %q: %w", s, err)
			}
		}

		fetcher := infra.NewFetcher(infra.FetcherOptions{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
			Logger:    logger,
		})
		parser := datasource.NewParser(datasource.Options{
			RateTableLatestIndex: cfg.Parser.RateTableLatestIndex,
			IndexTableRows:       cfg.Parser.IndexTableRows,
		})
		p := pipeline.New(fetcher, parser, infra.NewMetrics(), logger, pipeline.Options{
			OutputPath:      cfg.Output.Path,
			AsOf:            asOf,
			Concurrency:     cfg.Fetch.Concurrency,
			FetchTimeout:    time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
			Deadline:        time.Duration(cfg.Run.DeadlineSec) * time.Second,
			FailFast:        cfg.Run.FailFast,
			MetricsTextfile: cfg.Metrics.Textfile,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := p.Run(ctx, reg)
		quiet, _ := cmd.Flags().GetBool("quiet")
		out := cmd.OutOrStdout()
		if res != nil && !quiet {
			if res.Changes != nil {
				report.RenderChanges(out, res.Changes)
			}
			report.RenderFailures(out, res.Failures)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("run interrupted: %w", err)
			}
			return err
		}
		fmt.Fprintln(out, report.RunSummary(res.RunID, res.OK(), len(res.Failures), res.Output, res.Elapsed))
		return nil
	},
}

func init() {
	runCmd.Flags().String("output", "", "results workbook (overrides output.path)")
	runCmd.Flags().Int("concurrency", 0, "parallel fetches (overrides fetch.concurrency)")
	runCmd.Flags().Bool("fail-fast", false, "abort without writing when any asset fails")
	runCmd.Flags().String("as-of", "", "date of the latest price column, YYYY-MM-DD (default: today)")
	runCmd.Flags().Bool("quiet", false, "print only the run summary")
}

// applyRunFlags copies explicitly set run flags over the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("concurrency") {
		if n, _ := flags.GetInt("concurrency"); n > 0 {
			cfg.Fetch.Concurrency = n
		}
	}
	if flags.Changed("fail-fast") {
		cfg.Run.FailFast, _ = flags.GetBool("fail-fast")
	}
}

func loadRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		cfg.Input.Path = input
	}
	reg, err := registry.Load(cfg.Input.Path, cfg.Input.Sheet)
	if err != nil {
		return nil, err
	}
	for _, w := range reg.Warnings() {
		logger.Warn("registry row kept without year-start value", "error", w)
	}
	logger.Debug("registry loaded", "path", cfg.Input.Path, "assets", reg.Len())
	return reg, nil
}

// --- Sources Command ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the assets of the sources sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		report.RenderSources(cmd.OutOrStdout(), reg.Assets())
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and the last written results",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "marketweek %s (%s)\n", version, commit)
		fmt.Fprintf(out, "Last trading day: %s\n\n", utils.FormatDate(utils.LastTradingDay(utils.Today())))

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetTitle("Configuration")
		t.AppendHeader(table.Row{"Key", "Value", "Source"})
		for _, s := range config.Settings(cfg) {
			t.AppendRow(table.Row{s.Key, s.Value, string(s.Source)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if _, err := os.Stat(cfg.Output.Path); err != nil {
			fmt.Fprintf(out, "\nNo results at %s yet.\n", cfg.Output.Path)
			return nil
		}
		changes, err := report.ReadChanges(cfg.Output.Path)
		if err != nil {
			return err
		}
		if reg, err := registry.Load(cfg.Input.Path, cfg.Input.Sheet); err == nil {
			types := reg.Types()
			for i := range changes.Rows {
				changes.Rows[i].Type = types[changes.Rows[i].Asset]
			}
		}
		fmt.Fprintf(out, "\nLast results (%s):\n", cfg.Output.Path)
		report.RenderChanges(out, changes)
		return nil
	},
}
