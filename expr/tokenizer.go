package expr

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/TFMV/surrealmetrics/lang"
	"github.com/golang/groupcache/lru"
)

// MultiCharOperators are spaced out first, longest first.
var MultiCharOperators = []string{
	"===", "!==", ">>>", "<<<", "==", "!=", "<=", ">=", "//",
	"<<", ">>", "++", "--", "+=", "-=", "*=", "/=", "%=", "&&",
	"||", "->", "::", "**",
}

// SingleCharOperators are the operator and punctuation characters split out of a line.
var SingleCharOperators = []string{
	"+", "-", "*", "/", "%", "=", "<", ">", "&", "|",
	"^", "~", "!", "?", ":", "(", ")", "{", "}", "[", "]", ";", ",", ".", "#",
}

// AtomicOperators are kept whole by SplitAtomic.
var AtomicOperators = append(append([]string(nil), MultiCharOperators...),
	"<<=", ">>=", ">>>=", "**=", "//=", "&=", "|=", "^=", "=>",
)

// Tokenizer modes.
const (
	ModeSequential = "sequential"
	ModeAtomic     = "atomic"
)

var (
	sequentialMulti = byLength(MultiCharOperators)

	// RE2 alternation prefers earlier branches, so longer operators are listed first.
	atomicPattern = buildOperatorPattern(append(byLength(AtomicOperators), SingleCharOperators...))
)

func byLength(ops []string) []string {
	out := append([]string(nil), ops...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func buildOperatorPattern(ops []string) *regexp.Regexp {
	quoted := make([]string, 0, len(ops))
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if seen[op] {
			continue
		}
		seen[op] = true
		quoted = append(quoted, regexp.QuoteMeta(op))
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

// Split tokenizes a single code line without caching. Every multi-character
// operator is padded with spaces, then every single-character one, so the second
// pass breaks "==" into "=" "=" again. Metric values depend on this.
func Split(line string) []string {
	for _, op := range sequentialMulti {
		line = strings.ReplaceAll(line, op, " "+op+" ")
	}
	for _, op := range SingleCharOperators {
		line = strings.ReplaceAll(line, op, " "+op+" ")
	}
	return strings.Fields(line)
}

// SplitAtomic tokenizes a line keeping each of AtomicOperators as one token.
func SplitAtomic(line string) []string {
	return strings.Fields(atomicPattern.ReplaceAllString(line, " $0 "))
}

// AtomicVocabulary extends l so every operator SplitAtomic keeps whole counts as
// an operator.
func AtomicVocabulary(l *lang.Language) *lang.Language {
	return l.Extend(nil, AtomicOperators)
}

// Tokenizer splits code lines into tokens and memoizes the result per line.
type Tokenizer struct {
	cache  *lru.Cache
	mu     sync.Mutex // lru.Cache.Get reorders entries, so reads need the lock too
	atomic bool
}

// NewTokenizer creates a Tokenizer caching up to size distinct lines. A size of
// zero or less disables caching.
func NewTokenizer(size int) *Tokenizer {
	t := &Tokenizer{}
	if size > 0 {
		t.cache = lru.New(size)
	}
	return t
}

// WithAtomicOperators switches between Split (off, the default) and SplitAtomic.
func (t *Tokenizer) WithAtomicOperators(on bool) *Tokenizer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.atomic != on && t.cache != nil {
		t.cache.Clear()
	}
	t.atomic = on
	return t
}

// Mode names the splitting rule in use.
func (t *Tokenizer) Mode() string {
	if t != nil && t.atomic {
		return ModeAtomic
	}
	return ModeSequential
}

func (t *Tokenizer) split(line string) []string {
	if t != nil && t.atomic {
		return SplitAtomic(line)
	}
	return Split(line)
}

// Tokenize returns the tokens of line in source order. The returned slice is owned
// by the caller.
func (t *Tokenizer) Tokenize(line string) []string {
	if t == nil || t.cache == nil {
		return t.split(line)
	}

	t.mu.Lock()
	if val, ok := t.cache.Get(line); ok {
		t.mu.Unlock()
		return append([]string(nil), val.([]string)...)
	}
	t.mu.Unlock()

	tokens := t.split(line)

	t.mu.Lock()
	t.cache.Add(line, tokens)
	t.mu.Unlock()

	return append([]string(nil), tokens...)
}

// Len reports how many lines are cached.
func (t *Tokenizer) Len() int {
	if t == nil || t.cache == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache.Len()
}

// Clear clears the cache.
func (t *Tokenizer) Clear() {
	if t == nil || t.cache == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Clear()
}
