package schema_test

import (
	"strings"
	"testing"

	"github.com/TFMV/surrealmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	stmts := schema.Statements()
	require.Len(t, stmts, 2)

	assert.Contains(t, stmts[0], "DEFINE TABLE "+schema.ReportsTable)
	assert.Contains(t, stmts[1], "DEFINE TABLE "+schema.FilesTable)
	// files link back to the report they belong to
	assert.Contains(t, stmts[1], "TYPE record<reports>")

	for _, field := range []string{"total_lines", "comment_lines", "halstead", "comment_density"} {
		for _, stmt := range stmts {
			assert.True(t, strings.Contains(stmt, "DEFINE FIELD "+field+" "), "missing field %s", field)
		}
	}
}
