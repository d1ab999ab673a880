package db

import (
	"context"

	"github.com/TFMV/surrealmetrics/types"
)

// DB persists analysis reports.
type DB interface {
	Initialize(ctx context.Context) error
	StoreAnalysis(ctx context.Context, report types.AnalysisReport) error
}
