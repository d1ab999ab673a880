package analysis_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/surrealmetrics/analysis"
	"github.com/TFMV/surrealmetrics/db"
	"github.com/TFMV/surrealmetrics/expr"
	"github.com/TFMV/surrealmetrics/lang"
	"github.com/TFMV/surrealmetrics/parser"
	"github.com/TFMV/surrealmetrics/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzer(store db.DB) *analysis.Analyzer {
	p := parser.NewParser(lang.NewRegistry(), expr.NewTokenizer(100))
	return analysis.NewAnalyzer(p, store)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"main.c":                "x = 1 + 2\n",
		"lib/util.py":           "# comment\n",
		"README.md":             "# not source\n",
		"node_modules/dep/a.js": "var ignored = 1;\n",
	})
}

func TestAnalyzer_GetAnalysis(t *testing.T) {
	root := sampleTree(t)

	a := newAnalyzer(nil)
	a.Exclude = []string{"**/node_modules/**"}

	report, err := a.GetAnalysis(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.FileCount)
	require.Len(t, report.Files, 2)
	assert.Equal(t, "lib/util.py", report.Files[0].Path)
	assert.Equal(t, "Python", report.Files[0].Language)
	assert.Equal(t, "main.c", report.Files[1].Path)
	assert.Equal(t, "C", report.Files[1].Language)

	s := report.Summary
	assert.Equal(t, 2, s.TotalLines)
	assert.Equal(t, 1, s.CommentLines)
	assert.Equal(t, 1, s.CodeLines)
	assert.Equal(t, 0, s.BlankLines)
	assert.Equal(t, 2, s.DistinctOperators)
	assert.Equal(t, 3, s.DistinctOperands)
	assert.Equal(t, 5, s.Halstead.Vocabulary)
	assert.Equal(t, 5, s.Halstead.Length)
	assert.InDelta(t, 50.0, s.CommentDensity, 1e-9)

	require.Len(t, report.Languages, 2)
	assert.Equal(t, "C", report.Languages[0].Language)
	assert.Equal(t, 1, report.Languages[0].Files)
	assert.Equal(t, "Python", report.Languages[1].Language)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzer_NothingExcludedByDefault(t *testing.T) {
	root := writeTree(t, map[string]string{
		"m.c":         "int a = 1;\nint b = 2;\n",
		"build/gen.c": "int c = 3;\n",
	})

	a := newAnalyzer(nil)
	assert.Empty(t, a.Exclude)

	report, err := a.GetAnalysis(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.FileCount)
	assert.Equal(t, 3, report.Summary.TotalLines)
	require.Len(t, report.Files, 2)
	assert.Equal(t, "build/gen.c", report.Files[0].Path)
}

func TestAnalyzer_VocabularyIsProjectWide(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.js": "x = y;\n",
		"b.ts": "x = z;\n",
	})

	report, err := newAnalyzer(nil).GetAnalysis(context.Background(), root)
	require.NoError(t, err)

	// x y z are distinct once across both files; = and ; likewise.
	assert.Equal(t, 3, report.Summary.DistinctOperands)
	assert.Equal(t, 2, report.Summary.DistinctOperators)
	assert.Equal(t, 4, report.Summary.TotalOperands)
	assert.Equal(t, 4, report.Summary.TotalOperators)
}

func TestAnalyzer_Deterministic(t *testing.T) {
	files := map[string]string{}
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files["pkg/"+name+".java"] = "int " + name + " = " + string(rune('0'+i)) + ";\n// note\n"
	}
	root := writeTree(t, files)

	serial := newAnalyzer(nil)
	serial.Workers = 1
	parallel := newAnalyzer(nil)
	parallel.Workers = 8

	first, err := serial.GetAnalysis(context.Background(), root)
	require.NoError(t, err)
	second, err := parallel.GetAnalysis(context.Background(), root)
	require.NoError(t, err)
	third, err := parallel.GetAnalysis(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.PrettyPrint(), second.PrettyPrint())
	assert.Equal(t, second.PrettyPrint(), third.PrettyPrint())
	assert.Equal(t, 8, first.FileCount)
}

func TestAnalyzer_EmptyDirectory(t *testing.T) {
	report, err := newAnalyzer(nil).GetAnalysis(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Zero(t, report.FileCount)
	assert.Empty(t, report.Files)
	assert.Equal(t, types.Summary{}, report.Summary)
}

func TestAnalyzer_InvalidRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(file, []byte("int x;"), 0644))

	_, err := newAnalyzer(nil).GetAnalysis(context.Background(), file)
	assert.ErrorIs(t, err, analysis.ErrNotDirectory)

	_, err = newAnalyzer(nil).GetAnalysis(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyzer_UnreadableFileIsWarning(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := writeTree(t, map[string]string{
		"ok.c":     "int a = 1;\n",
		"secret.c": "int b = 2;\n",
	})
	secret := filepath.Join(root, "secret.c")
	require.NoError(t, os.Chmod(secret, 0))
	t.Cleanup(func() { _ = os.Chmod(secret, 0644) })

	report, err := newAnalyzer(nil).GetAnalysis(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FileCount)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "secret.c", report.Warnings[0].Path)
	assert.NotEmpty(t, report.Warnings[0].Reason)
}

func TestAnalyzer_Exclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.ts":          "let a = 1;\n",
		"src/gen/app.gen.ts":  "let b = 2;\n",
		"build/out.js":        "var c = 3;\n",
		"tests/app_test.py":   "x = 1\n",
		"tests/fixtures/f.py": "y = 2\n",
	})

	a := newAnalyzer(nil)
	a.Exclude = append(a.Exclude, "src/gen/**", "**/fixtures/**")

	report, err := a.GetAnalysis(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, f := range report.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"build/out.js", "src/app.ts", "tests/app_test.py"}, paths)
}

func TestAnalyzer_InvalidExcludePattern(t *testing.T) {
	root := sampleTree(t)

	a := newAnalyzer(nil)
	a.Exclude = []string{"[oops"}

	_, err := a.GetAnalysis(context.Background(), root)
	assert.Error(t, err)
}

func TestAnalyzer_Cancelled(t *testing.T) {
	root := sampleTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(nil).GetAnalysis(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzer_AnalyzeDirectoryStoresReport(t *testing.T) {
	root := sampleTree(t)
	store := db.NewMockDB()

	a := newAnalyzer(store)
	require.NoError(t, a.Initialize(context.Background()))

	report, err := a.AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	stored := store.Reports()
	require.Len(t, stored, 1)
	assert.Equal(t, report.PrettyPrint(), stored[0].PrettyPrint())
}

func TestAnalyzer_AnalyzeDirectoryWithoutDB(t *testing.T) {
	_, err := newAnalyzer(nil).AnalyzeDirectory(context.Background(), sampleTree(t))
	assert.Error(t, err)
}
