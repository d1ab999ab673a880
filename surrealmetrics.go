// Package surrealmetrics computes line counts and Halstead complexity metrics for
// source trees and optionally stores the results in SurrealDB.
//
// Start SurrealDB for the store command:
//
//	surreal start --user root --pass root --bind 0.0.0.0:8000 memory
package surrealmetrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TFMV/surrealmetrics/analysis"
	"github.com/TFMV/surrealmetrics/cache"
	"github.com/TFMV/surrealmetrics/config"
	"github.com/TFMV/surrealmetrics/db"
	"github.com/TFMV/surrealmetrics/lang"
	"github.com/TFMV/surrealmetrics/parser"
	"github.com/TFMV/surrealmetrics/types"
	"github.com/TFMV/surrealmetrics/watch"
)

// Output formats understood by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Analyzer wires configuration, parsing, caching and storage together.
type Analyzer struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *lang.Registry
	parser   *parser.Parser
	analyzer *analysis.Analyzer
	cache    *cache.Store
	store    *db.SurrealDB
}

// NewAnalyzer validates cfg and builds an analyzer from it. A nil cfg uses the
// defaults; a nil logger uses slog.Default().
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to build language registry: %w", err)
	}

	p := parser.NewParser(registry, cfg.Tokenizer()).WithLogger(logger)

	a := &Analyzer{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		parser:   p,
	}

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			// A locked or corrupt cache only costs speed.
			logger.Warn("result cache unavailable, continuing without it", "path", cfg.Cache.Path, "error", err)
		} else {
			a.cache = store
			p.WithCache(store)
		}
	}

	a.analyzer = analysis.NewAnalyzer(p, nil)
	a.analyzer.Exclude = cfg.Exclude
	a.analyzer.Workers = cfg.Workers
	a.analyzer.Logger = logger

	return a, nil
}

// Analyze computes the metrics report for dir.
func (a *Analyzer) Analyze(ctx context.Context, dir string) (types.AnalysisReport, error) {
	return a.analyzer.GetAnalysis(ctx, dir)
}

// AnalyzeFile computes the metrics for a single file, whatever its extension.
func (a *Analyzer) AnalyzeFile(path string) (types.FileMetrics, error) {
	fa, err := a.parser.ParseFile(path)
	if err != nil {
		return types.FileMetrics{}, err
	}
	return types.FileMetrics{
		Path:     fa.Path,
		Language: fa.Language,
		Summary:  analysis.Summarize(fa.Counts),
	}, nil
}

// Store analyzes dir and writes the report to SurrealDB, connecting on first use.
func (a *Analyzer) Store(ctx context.Context, dir string) (types.AnalysisReport, error) {
	if a.store == nil {
		store, err := db.NewSurrealDB(a.cfg.Database())
		if err != nil {
			return types.AnalysisReport{}, err
		}
		a.analyzer.DB = store
		if err := a.analyzer.Initialize(ctx); err != nil {
			_ = store.Close()
			a.analyzer.DB = nil
			return types.AnalysisReport{}, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.store = store
	}
	return a.analyzer.AnalyzeDirectory(ctx, dir)
}

// Watch analyzes dir, then re-analyzes it whenever a recognized source file changes,
// passing each report to onReport. It returns when ctx is cancelled.
func (a *Analyzer) Watch(ctx context.Context, dir string, onReport func(types.AnalysisReport)) error {
	report, err := a.Analyze(ctx, dir)
	if err != nil {
		return err
	}
	onReport(report)

	w := watch.New(dir, a.registry, a.cfg.Exclude)
	w.Logger = a.logger
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		a.logger.Info("re-analyzing", "changed", strings.Join(changed, ", "))
		report, err := a.Analyze(ctx, dir)
		if err != nil {
			return err
		}
		onReport(report)
		return nil
	})
}

// Languages returns the languages this analyzer recognizes, sorted by name.
func (a *Analyzer) Languages() []*lang.Language {
	return a.registry.Languages()
}

// Extensions returns the recognized file extensions, sorted.
func (a *Analyzer) Extensions() []string {
	return a.registry.Extensions()
}

// Close releases the result cache and database connection.
func (a *Analyzer) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
		a.cache = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	return errors.Join(errs...)
}

// Render formats report as text, json or yaml.
func Render(report types.AnalysisReport, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return report.Text(), nil
	case FormatJSON:
		return report.PrettyPrint(), nil
	case FormatYAML:
		return report.YAML()
	default:
		return "", fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
	}
}
