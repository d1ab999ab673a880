package analysis

import (
	"math"

	"github.com/TFMV/surrealmetrics/types"
)

// Derive computes the Halstead measures from aggregated counts. Every ratio whose
// denominator would be zero resolves to 0, so Derive never fails and never yields
// NaN or Inf.
//
//	n  = n1 + n2               N  = N1 + N2
//	N^ = n1·log2 n1 + n2·log2 n2
//	V  = N·log2 n              D  = (n1/2)·(N2/n2)
//	E  = D·V                   T  = E/18          B = V/3000
func Derive(c types.Counts) types.HalsteadMetrics {
	n1 := float64(c.DistinctOperators())
	n2 := float64(c.DistinctOperands())
	N2 := float64(c.TotalOperands)

	vocabulary := c.DistinctOperators() + c.DistinctOperands()
	length := c.TotalOperators + c.TotalOperands

	var estimatedLength float64
	if n1 > 0 && n2 > 0 {
		estimatedLength = n1*math.Log2(n1) + n2*math.Log2(n2)
	}

	var volume float64
	if vocabulary > 0 {
		volume = float64(length) * math.Log2(float64(vocabulary))
	}

	var difficulty float64
	if n2 > 0 {
		difficulty = (n1 / 2.0) * (N2 / n2)
	}

	effort := difficulty * volume

	var time float64
	if effort > 0 {
		time = effort / 18.0
	}

	var bugs float64
	if volume > 0 {
		bugs = volume / 3000.0
	}

	return types.HalsteadMetrics{
		Vocabulary:      vocabulary,
		Length:          length,
		EstimatedLength: estimatedLength,
		Volume:          volume,
		Difficulty:      difficulty,
		Effort:          effort,
		Time:            time,
		Bugs:            bugs,
	}
}

// CommentDensity is the percentage of lines that are comments; 0 for an empty input.
func CommentDensity(commentLines, totalLines int) float64 {
	if totalLines <= 0 {
		return 0
	}
	return float64(commentLines) / float64(totalLines) * 100
}

// Summarize flattens counts into the reported metric block.
func Summarize(c types.Counts) types.Summary {
	return types.Summary{
		TotalLines:        c.TotalLines,
		BlankLines:        c.BlankLines,
		CommentLines:      c.CommentLines,
		CodeLines:         c.CodeLines,
		DistinctOperators: c.DistinctOperators(),
		DistinctOperands:  c.DistinctOperands(),
		TotalOperators:    c.TotalOperators,
		TotalOperands:     c.TotalOperands,
		CommentDensity:    CommentDensity(c.CommentLines, c.TotalLines),
		Halstead:          Derive(c),
	}
}
