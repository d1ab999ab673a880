package lang

import "strings"

// LineKind is the category a physical line is counted under.
type LineKind int

const (
	Blank LineKind = iota
	Comment
	Code
)

// String returns the string representation of LineKind.
func (k LineKind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Code:
		return "code"
	default:
		return "unknown"
	}
}

// CommentState is carried from one line to the next while scanning a file.
// The zero value is the state at the start of every file.
type CommentState struct {
	InsideBlock bool
}

// Classify categorizes one physical line and returns the state for the next line.
//
// Detection is prefix based on the trimmed line. A line closing a block comment is
// counted as Comment in full, even if code follows the terminator. Comment markers
// inside string literals are not recognized as such.
func Classify(line string, l *Language, st CommentState) (LineKind, CommentState) {
	if l == nil {
		l = Fallback
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Blank, st
	}

	if st.InsideBlock {
		for _, d := range l.BlockComments {
			if strings.Contains(trimmed, d.Close) {
				return Comment, CommentState{}
			}
		}
		return Comment, st
	}

	for _, marker := range l.LineComments {
		if strings.HasPrefix(trimmed, marker) {
			return Comment, st
		}
	}

	for _, d := range l.BlockComments {
		if !strings.HasPrefix(trimmed, d.Open) {
			continue
		}
		// /* ... */ on one line leaves the state untouched.
		if strings.Contains(trimmed[len(d.Open):], d.Close) {
			return Comment, st
		}
		return Comment, CommentState{InsideBlock: true}
	}

	return Code, st
}

// StripComments removes comment text from a line already classified as Code, so
// that only code reaches the tokenizer. A trailing line comment is cut, inline
// block comments are removed, and an unterminated block opener drops the rest of
// the line.
func StripComments(line string, l *Language) string {
	if l == nil {
		l = Fallback
	}
	var b strings.Builder
	rest := line
	for rest != "" {
		idx, block := firstMarker(rest, l)
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:idx])
		if block == nil {
			break
		}
		after := rest[idx+len(block.Open):]
		end := strings.Index(after, block.Close)
		if end < 0 {
			break
		}
		b.WriteByte(' ')
		rest = after[end+len(block.Close):]
	}
	return b.String()
}

// firstMarker finds the leftmost comment marker in s. The delimiter is nil for
// line comments.
func firstMarker(s string, l *Language) (int, *Delimiter) {
	best := -1
	var block *Delimiter
	for _, m := range l.LineComments {
		if i := strings.Index(s, m); i >= 0 && (best < 0 || i < best) {
			best, block = i, nil
		}
	}
	if l.DocStrings {
		// Mid-line triple quotes are string literals, not comments.
		return best, block
	}
	for i := range l.BlockComments {
		d := &l.BlockComments[i]
		if j := strings.Index(s, d.Open); j >= 0 && (best < 0 || j < best) {
			best, block = j, d
		}
	}
	return best, block
}
