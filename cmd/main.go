package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/TFMV/surrealmetrics"
	"github.com/TFMV/surrealmetrics/cache"
	"github.com/TFMV/surrealmetrics/config"
	"github.com/TFMV/surrealmetrics/types"
	"github.com/docopt/docopt-go"
)

const version = "surrealmetrics 0.1.0"

const usage = `surrealmetrics: line counts and Halstead metrics for source trees.

Usage:
  surrealmetrics analyze [<dir>] [--config=<file>] [--format=<fmt>] [--out=<file>] [--workers=<n>] [--no-cache] [--verbose]
  surrealmetrics file <path> [--config=<file>] [--format=<fmt>] [--verbose]
  surrealmetrics store [<dir>] [--config=<file>] [--workers=<n>] [--no-cache] [--verbose]
  surrealmetrics watch [<dir>] [--config=<file>] [--format=<fmt>] [--no-cache] [--verbose]
  surrealmetrics languages [--config=<file>]
  surrealmetrics cache clear [--config=<file>]
  surrealmetrics -h | --help
  surrealmetrics --version

Options:
  -h --help        Show this screen.
  --version        Show version.
  --config=<file>  Configuration file (default: ./.surrealmetrics.yaml if present).
  --format=<fmt>   Output format: text, json or yaml [default: text].
  --out=<file>     Write the report to a file instead of stdout.
  --workers=<n>    Number of files scanned concurrently.
  --no-cache       Do not read or write the persistent result cache.
  --verbose        Log per-file progress to stderr.
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts docopt.Opts, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if verbose, _ := opts.Bool("--verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if boolOpt(opts, "cache") {
		return clearCache(cfg, stdout)
	}

	analyzer, err := surrealmetrics.NewAnalyzer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer analyzer.Close()

	dir := stringOpt(opts, "<dir>", ".")
	format := stringOpt(opts, "--format", surrealmetrics.FormatText)

	switch {
	case boolOpt(opts, "analyze"):
		report, err := analyzer.Analyze(ctx, dir)
		if err != nil {
			return fmt.Errorf("failed to analyze %s: %w", dir, err)
		}
		return writeReport(report, format, stringOpt(opts, "--out", ""), stdout)

	case boolOpt(opts, "file"):
		metrics, err := analyzer.AnalyzeFile(stringOpt(opts, "<path>", ""))
		if err != nil {
			return err
		}
		report := types.AnalysisReport{
			Root:      metrics.Path,
			FileCount: 1,
			Summary:   metrics.Summary,
			Files:     []types.FileMetrics{metrics},
		}
		return writeReport(report, format, "", stdout)

	case boolOpt(opts, "store"):
		report, err := analyzer.Store(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Stored metrics for %d files from %s\n", report.FileCount, report.Root)
		return nil

	case boolOpt(opts, "watch"):
		fmt.Fprintf(stderr, "Watching %s (Ctrl+C to stop)\n", dir)
		return analyzer.Watch(ctx, dir, func(report types.AnalysisReport) {
			if err := writeReport(report, format, "", stdout); err != nil {
				logger.Error("failed to render report", "error", err)
			}
		})

	case boolOpt(opts, "languages"):
		for _, l := range analyzer.Languages() {
			fmt.Fprintf(stdout, "%-12s %s\n", l.Name, strings.Join(l.Extensions, " "))
		}
		return nil
	}

	return fmt.Errorf("no command given")
}

func loadConfig(opts docopt.Opts) (*config.Config, error) {
	cfg, err := config.Load(stringOpt(opts, "--config", ""))
	if err != nil {
		return nil, err
	}

	if raw := stringOpt(opts, "--workers", ""); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --workers %q: %w", raw, err)
		}
		cfg.Workers = workers
	}
	if boolOpt(opts, "--no-cache") {
		cfg.Cache.Enabled = false
	}

	return cfg, nil
}

func clearCache(cfg *config.Config, stdout io.Writer) error {
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	n, err := store.Len()
	if err != nil {
		return fmt.Errorf("failed to inspect cache: %w", err)
	}
	if err := store.Purge(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Removed %d cached entries from %s\n", n, cfg.Cache.Path)
	return nil
}

func writeReport(report types.AnalysisReport, format, outFile string, stdout io.Writer) error {
	out, err := surrealmetrics.Render(report, format)
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(stdout, "Report written to %s\n", outFile)
		return nil
	}

	fmt.Fprintln(stdout, strings.TrimRight(out, "\n"))
	return nil
}

func stringOpt(opts docopt.Opts, key, def string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return def
}

func boolOpt(opts docopt.Opts, key string) bool {
	v, _ := opts[key].(bool)
	return v
}
