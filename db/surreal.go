package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/TFMV/surrealmetrics/schema"
	"github.com/TFMV/surrealmetrics/types"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// reportRecord is the reports row: the project report without its per-file
// metrics, which go to the files table.
type reportRecord struct {
	ID        *models.RecordID `json:"id,omitempty"`
	Root      string           `json:"root"`
	FileCount int              `json:"file_count"`
	types.Summary
	Languages []types.LanguageSummary `json:"languages"`
	Warnings  []types.Warning         `json:"warnings"`
}

func newReportRecord(report types.AnalysisReport) reportRecord {
	return reportRecord{
		Root:      report.Root,
		FileCount: report.FileCount,
		Summary:   report.Summary,
		Languages: report.Languages,
		Warnings:  report.Warnings,
	}
}

// fileRecord is a per-file row linked back to the report it belongs to.
type fileRecord struct {
	types.FileMetrics
	Report *models.RecordID `json:"report"`
}

func NewSurrealDB(config Config) (*SurrealDB, error) {
	if config.URL == "" {
		return nil, errors.New("database url is required")
	}

	db, err := surrealdb.New(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SurrealDB{
		db:     db,
		config: config,
	}, nil
}

func (s *SurrealDB) Initialize(ctx context.Context) error {
	if err := s.db.Use(s.config.Namespace, s.config.Database); err != nil {
		return fmt.Errorf("failed to set namespace/database: %w", err)
	}

	if s.config.Username != "" {
		authData := &surrealdb.Auth{
			Username: s.config.Username,
			Password: s.config.Password,
		}
		token, err := s.db.SignIn(authData)
		if err != nil {
			return fmt.Errorf("failed to sign in: %w", err)
		}

		if err := s.db.Authenticate(token); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := schema.InitializeSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// StoreAnalysis writes the project report to the reports table and each file's
// metrics to the files table, linked by the report's record ID.
func (s *SurrealDB) StoreAnalysis(ctx context.Context, report types.AnalysisReport) error {
	created, err := surrealdb.Create[reportRecord](s.db, models.Table(schema.ReportsTable), newReportRecord(report))
	if err != nil {
		return fmt.Errorf("error storing report for %s: %w", report.Root, err)
	}

	for _, f := range report.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := fileRecord{FileMetrics: f, Report: created.ID}
		if _, err := surrealdb.Create[fileRecord](s.db, models.Table(schema.FilesTable), rec); err != nil {
			return fmt.Errorf("error storing file %s: %w", f.Path, err)
		}
	}

	return nil
}

// Close ends the database session.
func (s *SurrealDB) Close() error {
	return s.db.Close()
}
