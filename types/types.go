package types

import (
	"encoding/json"
	"sort"

	"github.com/TFMV/surrealmetrics/lang"
)

// Counts accumulates line categories and operator/operand occurrences. It is the
// unit of work passed between the scanner and the aggregator: each file produces
// one, and Merge folds them together. Merge is a set union plus integer sums, so the
// result does not depend on the order files are merged in.
type Counts struct {
	TotalLines   int
	BlankLines   int
	CommentLines int
	CodeLines    int

	Operators      map[string]struct{}
	Operands       map[string]struct{}
	TotalOperators int
	TotalOperands  int
}

// NewCounts returns an empty accumulator.
func NewCounts() Counts {
	return Counts{
		Operators: make(map[string]struct{}),
		Operands:  make(map[string]struct{}),
	}
}

// AddLine counts one physical line.
func (c *Counts) AddLine(kind lang.LineKind) {
	c.TotalLines++
	switch kind {
	case lang.Blank:
		c.BlankLines++
	case lang.Comment:
		c.CommentLines++
	case lang.Code:
		c.CodeLines++
	}
}

// AddOperator records one operator occurrence.
func (c *Counts) AddOperator(tok string) {
	if c.Operators == nil {
		c.Operators = make(map[string]struct{})
	}
	c.Operators[tok] = struct{}{}
	c.TotalOperators++
}

// AddOperand records one operand occurrence.
func (c *Counts) AddOperand(tok string) {
	if c.Operands == nil {
		c.Operands = make(map[string]struct{})
	}
	c.Operands[tok] = struct{}{}
	c.TotalOperands++
}

// Merge folds other into c.
func (c *Counts) Merge(other Counts) {
	c.TotalLines += other.TotalLines
	c.BlankLines += other.BlankLines
	c.CommentLines += other.CommentLines
	c.CodeLines += other.CodeLines
	c.TotalOperators += other.TotalOperators
	c.TotalOperands += other.TotalOperands

	if c.Operators == nil {
		c.Operators = make(map[string]struct{}, len(other.Operators))
	}
	if c.Operands == nil {
		c.Operands = make(map[string]struct{}, len(other.Operands))
	}
	for k := range other.Operators {
		c.Operators[k] = struct{}{}
	}
	for k := range other.Operands {
		c.Operands[k] = struct{}{}
	}
}

// DistinctOperators is n1.
func (c Counts) DistinctOperators() int { return len(c.Operators) }

// DistinctOperands is n2.
func (c Counts) DistinctOperands() int { return len(c.Operands) }

type countsJSON struct {
	TotalLines     int      `json:"total_lines"`
	BlankLines     int      `json:"blank_lines"`
	CommentLines   int      `json:"comment_lines"`
	CodeLines      int      `json:"code_lines"`
	Operators      []string `json:"operators"`
	Operands       []string `json:"operands"`
	TotalOperators int      `json:"total_operators"`
	TotalOperands  int      `json:"total_operands"`
}

// MarshalJSON encodes the distinct sets as sorted lists so equal counts always
// produce equal bytes.
func (c Counts) MarshalJSON() ([]byte, error) {
	return json.Marshal(countsJSON{
		TotalLines:     c.TotalLines,
		BlankLines:     c.BlankLines,
		CommentLines:   c.CommentLines,
		CodeLines:      c.CodeLines,
		Operators:      sortedKeys(c.Operators),
		Operands:       sortedKeys(c.Operands),
		TotalOperators: c.TotalOperators,
		TotalOperands:  c.TotalOperands,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Counts) UnmarshalJSON(data []byte) error {
	var raw countsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = NewCounts()
	c.TotalLines = raw.TotalLines
	c.BlankLines = raw.BlankLines
	c.CommentLines = raw.CommentLines
	c.CodeLines = raw.CodeLines
	c.TotalOperators = raw.TotalOperators
	c.TotalOperands = raw.TotalOperands
	for _, k := range raw.Operators {
		c.Operators[k] = struct{}{}
	}
	for _, k := range raw.Operands {
		c.Operands[k] = struct{}{}
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
