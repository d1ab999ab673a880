package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TFMV/surrealmetrics/lang"
	"github.com/TFMV/surrealmetrics/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, exclude []string) <-chan []string {
	t.Helper()

	w := watch.New(root, lang.NewRegistry(), exclude)
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 10)
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not become ready")
	}
	return changes
}

func TestWatcher_ReportsSourceChanges(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.c"), []byte("int x;\n"), 0644))

	select {
	case changed := <-changes:
		assert.Contains(t, changed, "main.c")
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_IgnoresUnrecognizedAndExcluded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gen"), 0755))
	changes := startWatcher(t, root, []string{"gen/**"})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("# hi\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen", "out.js"), []byte("var a;\n"), 0644))

	select {
	case changed := <-changes:
		t.Fatalf("unexpected change report: %v", changed)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_BatchesBursts(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	for _, name := range []string{"a.py", "b.py", "c.py"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x = 1\n"), 0644))
	}

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(seen) < 3 {
		select {
		case changed := <-changes:
			for _, p := range changed {
				seen[p] = true
			}
		case <-deadline:
			t.Fatalf("only saw %v", seen)
		}
	}
	assert.True(t, seen["a.py"] && seen["b.py"] && seen["c.py"])
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := watch.New(filepath.Join(t.TempDir(), "missing"), nil, nil)
	err := w.Run(context.Background(), func(context.Context, []string) error { return nil })
	assert.Error(t, err)
}
