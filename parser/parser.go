package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/TFMV/surrealmetrics/expr"
	"github.com/TFMV/surrealmetrics/lang"
	"github.com/TFMV/surrealmetrics/types"
)

// Cache stores per-file counts keyed by the file content and a scope string that
// identifies the language and vocabulary used to produce them.
type Cache interface {
	Lookup(scope string, content []byte) (types.Counts, bool)
	Store(scope string, content []byte, counts types.Counts) error
}

type Parser struct {
	registry  *lang.Registry
	tokenizer *expr.Tokenizer
	cache     Cache
	logger    *slog.Logger
}

func NewParser(registry *lang.Registry, tokenizer *expr.Tokenizer) *Parser {
	if registry == nil {
		registry = lang.NewRegistry()
	}
	return &Parser{
		registry:  registry,
		tokenizer: tokenizer,
		logger:    slog.Default(),
	}
}

// WithCache makes the parser reuse results for content it has seen before.
func (p *Parser) WithCache(c Cache) *Parser {
	p.cache = c
	return p
}

// WithLogger sets the logger used for per-file diagnostics.
func (p *Parser) WithLogger(l *slog.Logger) *Parser {
	if l != nil {
		p.logger = l
	}
	return p
}

// Registry returns the language registry the parser resolves files with.
func (p *Parser) Registry() *lang.Registry {
	return p.registry
}

// FileAnalysis represents the analysis results of a single file
type FileAnalysis struct {
	Path     string
	Language string
	Counts   types.Counts
}

// ParseFile reads path and counts its lines and tokens. Files with an unknown
// extension are scanned with brace-family rules. Invalid UTF-8 is replaced, not
// rejected; only I/O failures are returned as errors.
func (p *Parser) ParseFile(path string) (FileAnalysis, error) {
	l, ok := p.registry.ForFile(path)
	if !ok {
		l = lang.Fallback
	}

	content, err := readSource(path)
	if err != nil {
		return FileAnalysis{}, err
	}

	scope := l.Signature() + "\x00" + p.tokenizer.Mode()
	if p.cache != nil {
		if counts, hit := p.cache.Lookup(scope, content); hit {
			p.logger.Debug("cache hit", "file", path)
			return FileAnalysis{Path: path, Language: l.Name, Counts: counts}, nil
		}
	}

	counts := p.Scan(string(content), l)

	if p.cache != nil {
		if err := p.cache.Store(scope, content, counts); err != nil {
			p.logger.Warn("failed to cache file result", "file", path, "error", err)
		}
	}

	p.logger.Debug("parsed file", "file", path, "language", l.Name, "lines", counts.TotalLines)
	return FileAnalysis{Path: path, Language: l.Name, Counts: counts}, nil
}

// Scan classifies every line of content and tokenizes the code lines.
func (p *Parser) Scan(content string, l *lang.Language) types.Counts {
	counts := types.NewCounts()
	var state lang.CommentState

	for _, line := range SplitLines(content) {
		var kind lang.LineKind
		kind, state = lang.Classify(line, l, state)
		counts.AddLine(kind)
		if kind != lang.Code {
			continue
		}
		tokens := p.tokenizer.Tokenize(lang.StripComments(line, l))
		expr.Classify(tokens, l, &counts)
	}

	return counts
}

// SplitLines splits content into physical lines. "\n", "\r\n" and a lone "\r" all
// end a line, and a trailing line ending does not start an extra line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = lineEndings.Replace(content)
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func readSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD")), nil
}
