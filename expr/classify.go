package expr

import (
	"regexp"

	"github.com/TFMV/surrealmetrics/types"
)

// TokenKind is the Halstead role of a token.
type TokenKind int

const (
	NumericLiteral TokenKind = iota
	StringLiteral
	OperatorOrKeyword
	CallName
	Operand
)

// String returns the string representation of TokenKind.
func (k TokenKind) String() string {
	switch k {
	case NumericLiteral:
		return "numeric"
	case StringLiteral:
		return "string"
	case OperatorOrKeyword:
		return "operator"
	case CallName:
		return "call"
	case Operand:
		return "operand"
	default:
		return "unknown"
	}
}

// IsOperator reports whether tokens of this kind count toward N1/n1.
func (k TokenKind) IsOperator() bool {
	return k == OperatorOrKeyword || k == CallName
}

// Vocabulary tells operators and keywords apart from everything else.
// *lang.Language implements it.
type Vocabulary interface {
	IsOperator(tok string) bool
	IsKeyword(tok string) bool
}

var numericLiteral = regexp.MustCompile(`^\d+(\.\d*)?$`)

// ClassifyToken labels tokens[i] using one token of lookahead. value is what gets
// recorded in the distinct sets: the interior for string literals, the token
// itself otherwise.
func ClassifyToken(tokens []string, i int, vocab Vocabulary) (kind TokenKind, value string) {
	tok := tokens[i]
	switch {
	case numericLiteral.MatchString(tok):
		return NumericLiteral, tok
	case isQuoted(tok):
		return StringLiteral, interior(tok)
	case vocab.IsOperator(tok) || vocab.IsKeyword(tok):
		return OperatorOrKeyword, tok
	case i+1 < len(tokens) && tokens[i+1] == "(":
		return CallName, tok
	default:
		return Operand, tok
	}
}

// Classify labels every token and records it in c.
func Classify(tokens []string, vocab Vocabulary, c *types.Counts) []TokenKind {
	kinds := make([]TokenKind, len(tokens))
	for i := range tokens {
		kind, value := ClassifyToken(tokens, i, vocab)
		kinds[i] = kind
		if kind.IsOperator() {
			c.AddOperator(value)
		} else {
			c.AddOperand(value)
		}
	}
	return kinds
}

// isQuoted reports whether tok starts and ends with the same quote character. A
// lone quote qualifies: splitting on operators leaves one behind for every string
// that contains punctuation, as in "Hello, ".
func isQuoted(tok string) bool {
	if tok == "" {
		return false
	}
	q := tok[0]
	return (q == '"' || q == '\'') && tok[len(tok)-1] == q
}

func interior(tok string) string {
	if len(tok) < 2 {
		return ""
	}
	return tok[1 : len(tok)-1]
}
