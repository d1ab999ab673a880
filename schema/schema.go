package schema

import (
	"fmt"

	surrealdb "github.com/surrealdb/surrealdb.go"
)

const (
	ReportsTable = "reports"
	FilesTable   = "files"
)

// Statements returns the SurrealQL definitions for the metrics tables, in the order
// they must be applied.
func Statements() []string {
	return []string{
		// One row per analysis run; nested summary and language blocks stay flexible.
		`DEFINE TABLE reports SCHEMAFULL;
		 DEFINE FIELD root ON reports TYPE string;
		 DEFINE FIELD file_count ON reports TYPE int;
		 DEFINE FIELD total_lines ON reports TYPE int;
		 DEFINE FIELD blank_lines ON reports TYPE int;
		 DEFINE FIELD comment_lines ON reports TYPE int;
		 DEFINE FIELD code_lines ON reports TYPE int;
		 DEFINE FIELD distinct_operators ON reports TYPE int;
		 DEFINE FIELD distinct_operands ON reports TYPE int;
		 DEFINE FIELD total_operators ON reports TYPE int;
		 DEFINE FIELD total_operands ON reports TYPE int;
		 DEFINE FIELD comment_density ON reports TYPE float;
		 DEFINE FIELD halstead ON reports FLEXIBLE TYPE object;
		 DEFINE FIELD languages ON reports FLEXIBLE TYPE option<array>;
		 DEFINE FIELD warnings ON reports FLEXIBLE TYPE option<array>;
		 DEFINE FIELD created_at ON reports TYPE datetime DEFAULT time::now();
		 DEFINE INDEX report_root ON reports FIELDS root;`,

		// Per-file metrics
		`DEFINE TABLE files SCHEMAFULL;
		 DEFINE FIELD report ON files TYPE record<reports>;
		 DEFINE FIELD path ON files TYPE string;
		 DEFINE FIELD language ON files TYPE string;
		 DEFINE FIELD total_lines ON files TYPE int;
		 DEFINE FIELD blank_lines ON files TYPE int;
		 DEFINE FIELD comment_lines ON files TYPE int;
		 DEFINE FIELD code_lines ON files TYPE int;
		 DEFINE FIELD distinct_operators ON files TYPE int;
		 DEFINE FIELD distinct_operands ON files TYPE int;
		 DEFINE FIELD total_operators ON files TYPE int;
		 DEFINE FIELD total_operands ON files TYPE int;
		 DEFINE FIELD comment_density ON files TYPE float;
		 DEFINE FIELD halstead ON files FLEXIBLE TYPE object;
		 DEFINE FIELD created_at ON files TYPE datetime DEFAULT time::now();
		 DEFINE INDEX file_report ON files FIELDS report;
		 DEFINE INDEX file_path ON files FIELDS path;
		 DEFINE INDEX file_language ON files FIELDS language;`,
	}
}

// InitializeSchema sets up the database schema and indexes for the metrics tables
func InitializeSchema(db *surrealdb.DB) error {
	for _, schema := range Statements() {
		if _, err := surrealdb.Query[any](db, schema, map[string]interface{}{}); err != nil {
			return fmt.Errorf("schema initialization error: %w", err)
		}
	}

	return nil
}
