package db

import (
	"context"
	"sync"

	"github.com/TFMV/surrealmetrics/types"
)

// MockDB records stored reports in memory. Either hook may be overridden.
type MockDB struct {
	InitializeFunc    func(ctx context.Context) error
	StoreAnalysisFunc func(ctx context.Context, report types.AnalysisReport) error

	mu      sync.Mutex
	reports []types.AnalysisReport
}

func NewMockDB() *MockDB {
	return &MockDB{
		InitializeFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

func (m *MockDB) Initialize(ctx context.Context) error {
	if m.InitializeFunc == nil {
		return nil
	}
	return m.InitializeFunc(ctx)
}

func (m *MockDB) StoreAnalysis(ctx context.Context, report types.AnalysisReport) error {
	if m.StoreAnalysisFunc != nil {
		if err := m.StoreAnalysisFunc(ctx, report); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.reports = append(m.reports, report)
	m.mu.Unlock()
	return nil
}

// Reports returns every report stored so far, oldest first.
func (m *MockDB) Reports() []types.AnalysisReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.AnalysisReport(nil), m.reports...)
}
