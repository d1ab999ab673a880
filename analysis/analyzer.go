package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/TFMV/surrealmetrics/db"
	"github.com/TFMV/surrealmetrics/parser"
	"github.com/TFMV/surrealmetrics/types"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// ErrNotDirectory is returned when the analysis root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// DefaultExclude is empty: every directory is walked and files are filtered by
// extension only. Patterns such as "**/node_modules/**" are opt-in.
var DefaultExclude = []string{}

// Analyzer provides a high-level interface for code analysis and storage
type Analyzer struct {
	DB      db.DB
	Parser  *parser.Parser
	Exclude []string // doublestar patterns, matched against slash-separated paths relative to the root
	Workers int
	Logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer with no exclusions and one worker per CPU.
func NewAnalyzer(p *parser.Parser, store db.DB) *Analyzer {
	return &Analyzer{
		DB:      store,
		Parser:  p,
		Exclude: append([]string(nil), DefaultExclude...),
		Workers: runtime.NumCPU(),
	}
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Initialize sets up the database connection and schema
func (a *Analyzer) Initialize(ctx context.Context) error {
	if a.DB == nil {
		return errors.New("no database configured")
	}
	return a.DB.Initialize(ctx)
}

// AnalyzeDirectory scans a directory tree and stores analysis results
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, dir string) (types.AnalysisReport, error) {
	report, err := a.GetAnalysis(ctx, dir)
	if err != nil {
		return report, fmt.Errorf("failed to analyze directory: %w", err)
	}

	if a.DB == nil {
		return report, errors.New("no database configured")
	}
	if err := a.DB.StoreAnalysis(ctx, report); err != nil {
		return report, fmt.Errorf("failed to store analysis results: %w", err)
	}

	return report, nil
}

// fileResult is what one worker produces for one file: either an analysis or a warning.
type fileResult struct {
	rel      string
	analysis *parser.FileAnalysis
	warning  *types.Warning
}

// GetAnalysis performs code analysis without storing results.
//
// Files are scanned concurrently but merged in path order, so the report does not
// depend on scheduling. Unreadable files become warnings. If ctx is cancelled the
// partial report built from the files finished so far is returned with ctx's error.
func (a *Analyzer) GetAnalysis(ctx context.Context, dir string) (types.AnalysisReport, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return types.AnalysisReport{}, fmt.Errorf("failed to access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return types.AnalysisReport{}, fmt.Errorf("failed to analyze %s: %w", dir, ErrNotDirectory)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return types.AnalysisReport{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	filePaths, walkWarnings, err := a.collectFiles(root)
	if err != nil {
		return types.AnalysisReport{}, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	results := make([]fileResult, len(filePaths))

	for i, path := range filePaths {
		rel := relativePath(root, path)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			analysis, err := a.Parser.ParseFile(path)
			if err != nil {
				a.logger().Warn("could not read file, skipping", "file", rel, "error", err)
				results[i] = fileResult{rel: rel, warning: &types.Warning{Path: rel, Reason: err.Error()}}
				return nil
			}

			results[i] = fileResult{rel: rel, analysis: &analysis}
			return nil
		})
	}

	waitErr := g.Wait()
	report := a.buildReport(root, results, walkWarnings)
	if waitErr != nil {
		return report, waitErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	a.logger().Debug("analysis complete", "root", root, "files", report.FileCount, "warnings", len(report.Warnings))
	return report, nil
}

// collectFiles walks root and returns the recognized, non-excluded source files in
// lexical order. Unreadable subdirectories are reported as warnings.
func (a *Analyzer) collectFiles(root string) ([]string, []types.Warning, error) {
	var (
		filePaths []string
		warnings  []types.Warning
	)
	registry := a.Parser.Registry()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			rel := relativePath(root, path)
			a.logger().Warn("could not read directory entry, skipping", "path", rel, "error", err)
			warnings = append(warnings, types.Warning{Path: rel, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		rel := relativePath(root, path)
		excluded, err := a.excluded(rel)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if excluded {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded || !d.Type().IsRegular() {
			return nil
		}
		if _, ok := registry.ForFile(path); !ok {
			return nil
		}

		filePaths = append(filePaths, path)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return filePaths, warnings, nil
}

func (a *Analyzer) excluded(rel string) (bool, error) {
	for _, pattern := range a.Exclude {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		if !matched {
			// "dir/**" patterns should also prune the directory itself.
			matched, _ = doublestar.Match(pattern, rel+"/")
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

type languageAccumulator struct {
	files  int
	counts types.Counts
}

// buildReport merges per-file results into the project report. results must be in
// path order.
func (a *Analyzer) buildReport(root string, results []fileResult, walkWarnings []types.Warning) types.AnalysisReport {
	report := types.AnalysisReport{
		Root:      root,
		Files:     make([]types.FileMetrics, 0, len(results)),
		Languages: make([]types.LanguageSummary, 0),
		Warnings:  append(make([]types.Warning, 0, len(walkWarnings)), walkWarnings...),
	}

	total := types.NewCounts()
	byLanguage := make(map[string]*languageAccumulator)

	for _, res := range results {
		switch {
		case res.warning != nil:
			report.Warnings = append(report.Warnings, *res.warning)
		case res.analysis != nil:
			fa := res.analysis
			total.Merge(fa.Counts)

			acc, ok := byLanguage[fa.Language]
			if !ok {
				acc = &languageAccumulator{counts: types.NewCounts()}
				byLanguage[fa.Language] = acc
			}
			acc.files++
			acc.counts.Merge(fa.Counts)

			report.Files = append(report.Files, types.FileMetrics{
				Path:     res.rel,
				Language: fa.Language,
				Summary:  Summarize(fa.Counts),
			})
		}
	}

	for name, acc := range byLanguage {
		report.Languages = append(report.Languages, types.LanguageSummary{
			Language: name,
			Files:    acc.files,
			Summary:  Summarize(acc.counts),
		})
	}
	sort.Slice(report.Languages, func(i, j int) bool {
		return report.Languages[i].Language < report.Languages[j].Language
	})
	sort.SliceStable(report.Warnings, func(i, j int) bool {
		return report.Warnings[i].Path < report.Warnings[j].Path
	})

	report.FileCount = len(report.Files)
	report.Summary = Summarize(total)
	return report
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
