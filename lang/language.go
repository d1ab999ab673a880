package lang

import (
	"path/filepath"
	"sort"
	"strings"
)

// Delimiter is a block comment opener and its terminator.
type Delimiter struct {
	Open  string
	Close string
}

// Language describes how a source language is scanned: its comment syntax and the
// vocabulary used to tell operators from operands.
type Language struct {
	Name          string
	Extensions    []string
	LineComments  []string
	BlockComments []Delimiter
	// DocStrings marks block delimiters that only act as comments at the start of a
	// line (Python docstrings); elsewhere they delimit string literals.
	DocStrings bool
	Keywords   map[string]struct{}
	Operators  map[string]struct{}
}

// IsKeyword reports whether tok is a keyword of the language.
func (l *Language) IsKeyword(tok string) bool {
	_, ok := l.Keywords[tok]
	return ok
}

// IsOperator reports whether tok is an operator or punctuation symbol of the language.
func (l *Language) IsOperator(tok string) bool {
	_, ok := l.Operators[tok]
	return ok
}

// Extend returns a copy of l with extra keywords and operators added.
func (l *Language) Extend(keywords, operators []string) *Language {
	out := *l
	out.Keywords = union(l.Keywords, keywords)
	out.Operators = union(l.Operators, operators)
	return &out
}

// Shared vocabulary for every built-in language. Kept identical across languages so
// metric values stay comparable between mixed-language trees.
var (
	defaultKeywords = []string{
		"if", "else", "elif", "while", "for", "do", "return", "break", "continue",
		"switch", "case", "default", "import", "package", "public", "private", "protected",
		"class", "def", "void", "int", "float", "double", "char", "String", "boolean",
		"static", "final", "try", "catch", "finally", "new", "this", "super", "extends",
		"implements", "interface", "throws", "throw", "const", "var", "let", "function",
		"lambda", "async", "await", "yield", "sizeof", "typedef", "enum", "goto", "namespace",
		"True", "False", "None", "and", "or", "not",
	}

	defaultOperators = []string{
		"+", "-", "*", "/", "%", "++", "--", "+=", "-=", "*=", "/=", "%=",
		"=", "==", "!=", "<", ">", "<=", ">=", "&&", "||", "!", "&", "|", "^", "~", "<<", ">>", ">>>",
		"<<=", ">>=", ">>>=",
		"->", "::", ".", ",", ";", ":", "?",
		"(", ")", "{", "}", "[", "]",
	}
)

var (
	braceLineComments  = []string{"//"}
	braceBlockComments = []Delimiter{{Open: "/*", Close: "*/"}}
)

func newLanguage(name string, exts, lineComments []string, blocks []Delimiter) *Language {
	return &Language{
		Name:          name,
		Extensions:    exts,
		LineComments:  lineComments,
		BlockComments: blocks,
		Keywords:      union(nil, defaultKeywords),
		Operators:     union(nil, defaultOperators),
	}
}

// Built-in languages.
var (
	C          = newLanguage("C", []string{".c"}, braceLineComments, braceBlockComments)
	CPP        = newLanguage("C++", []string{".cpp"}, braceLineComments, braceBlockComments)
	Java       = newLanguage("Java", []string{".java"}, braceLineComments, braceBlockComments)
	JavaScript = newLanguage("JavaScript", []string{".js"}, braceLineComments, braceBlockComments)
	TypeScript = newLanguage("TypeScript", []string{".ts"}, braceLineComments, braceBlockComments)
	Python     = newLanguage("Python", []string{".py"}, []string{"#"}, []Delimiter{
		{Open: `"""`, Close: `"""`},
		{Open: "'''", Close: "'''"},
	})
)

func init() {
	Python.DocStrings = true
}

// Fallback is used for anything not in the table; brace-family comment rules apply.
var Fallback = C

// Registry maps file extensions to languages.
type Registry struct {
	languages []*Language
	byExt     map[string]*Language
}

// NewRegistry returns a registry holding the built-in languages.
func NewRegistry() *Registry {
	return NewRegistryFrom(C, CPP, Java, JavaScript, TypeScript, Python)
}

// NewRegistryFrom builds a registry from an explicit language list. Later entries win
// when two languages claim the same extension.
func NewRegistryFrom(languages ...*Language) *Registry {
	r := &Registry{byExt: make(map[string]*Language)}
	for _, l := range languages {
		r.languages = append(r.languages, l)
		for _, ext := range l.Extensions {
			r.byExt[strings.ToLower(ext)] = l
		}
	}
	return r
}

// ForFile returns the language registered for the file's extension.
func (r *Registry) ForFile(path string) (*Language, bool) {
	l, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// ByName looks a language up by its display name, case-insensitively.
func (r *Registry) ByName(name string) (*Language, bool) {
	for _, l := range r.languages {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return nil, false
}

// Lookup is ByName with the brace-family fallback for unknown names.
func (r *Registry) Lookup(name string) *Language {
	if l, ok := r.ByName(name); ok {
		return l
	}
	return Fallback
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Languages returns the registered languages sorted by name.
func (r *Registry) Languages() []*Language {
	out := append([]*Language(nil), r.languages...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Restrict returns a registry that only recognizes the given extensions.
func (r *Registry) Restrict(exts []string) *Registry {
	out := &Registry{byExt: make(map[string]*Language)}
	seen := make(map[*Language]bool)
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		l, ok := r.byExt[ext]
		if !ok {
			continue
		}
		out.byExt[ext] = l
		if !seen[l] {
			seen[l] = true
			out.languages = append(out.languages, l)
		}
	}
	return out
}

// Replace swaps the language with the same name for l.
func (r *Registry) Replace(l *Language) {
	for i, existing := range r.languages {
		if existing.Name == l.Name {
			r.languages[i] = l
		}
	}
	for ext, existing := range r.byExt {
		if existing.Name == l.Name {
			r.byExt[ext] = l
		}
	}
}

func union(base map[string]struct{}, extra []string) map[string]struct{} {
	out := make(map[string]struct{}, len(base)+len(extra))
	for k := range base {
		out[k] = struct{}{}
	}
	for _, k := range extra {
		out[k] = struct{}{}
	}
	return out
}

// Signature identifies the language together with its exact vocabulary, so results
// computed under one vocabulary are never mistaken for another's.
func (l *Language) Signature() string {
	var b strings.Builder
	b.WriteString(l.Name)
	for _, set := range []map[string]struct{}{l.Keywords, l.Operators} {
		b.WriteByte(0)
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(strings.Join(keys, "\x1f"))
	}
	return b.String()
}
