package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/surrealmetrics/cache"
	"github.com/TFMV/surrealmetrics/expr"
	"github.com/TFMV/surrealmetrics/lang"
	"github.com/TFMV/surrealmetrics/parser"
	"github.com/TFMV/surrealmetrics/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCounts() types.Counts {
	c := types.NewCounts()
	c.AddLine(lang.Code)
	c.AddLine(lang.Blank)
	c.AddOperator("=")
	c.AddOperand("x")
	c.AddOperand("1")
	return c
}

func TestStore_RoundTrip(t *testing.T) {
	s, err := cache.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	content := []byte("x = 1\n")
	_, ok := s.Lookup("C", content)
	assert.False(t, ok)

	want := sampleCounts()
	require.NoError(t, s.Store("C", content, want))

	got, ok := s.Lookup("C", content)
	require.True(t, ok)
	assert.Equal(t, want, got)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_ScopeSeparatesEntries(t *testing.T) {
	s, err := cache.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	content := []byte("x = 1\n")
	require.NoError(t, s.Store("C", content, sampleCounts()))

	_, ok := s.Lookup("Python", content)
	assert.False(t, ok)
	_, ok = s.Lookup("C", []byte("x = 2\n"))
	assert.False(t, ok)
}

func TestStore_Purge(t *testing.T) {
	s, err := cache.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Store("C", []byte("a"), sampleCounts()))
	require.NoError(t, s.Store("C", []byte("b"), sampleCounts()))
	require.NoError(t, s.Purge())

	n, err := s.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	content := []byte("int y = 2;")

	s, err := cache.Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Store("Java", content, sampleCounts()))
	require.NoError(t, s.Close())

	s, err = cache.Open(dir)
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.Lookup("Java", content)
	require.True(t, ok)
	assert.Equal(t, 1, got.CodeLines)
}

func TestStore_BacksParser(t *testing.T) {
	s, err := cache.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(path, []byte("int x = 1;\n// done\n"), 0644))

	p := parser.NewParser(lang.NewRegistry(), expr.NewTokenizer(0)).WithCache(s)

	first, err := p.ParseFile(path)
	require.NoError(t, err)
	second, err := p.ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, first.Counts, second.Counts)
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKey(t *testing.T) {
	a := cache.Key("C", []byte("x"))
	assert.Equal(t, a, cache.Key("C", []byte("x")))
	assert.NotEqual(t, a, cache.Key("C", []byte("y")))
	assert.NotEqual(t, a, cache.Key("Cx", nil))
}
