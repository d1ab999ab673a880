// Package cache persists per-file scan results in BadgerDB so unchanged files are
// not re-scanned across runs.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TFMV/surrealmetrics/types"
	"github.com/dgraph-io/badger/v4"
	"github.com/zeebo/blake3"
)

// Key prefix for cached file counts.
const prefixCounts = "counts:"

// Store implements parser.Cache on top of BadgerDB. It is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a cache at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // suppress badger logs
	return open(opts)
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Key derives the cache key for content scanned under scope.
func Key(scope string, content []byte) []byte {
	h := blake3.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write(content)
	return h.Sum([]byte(prefixCounts))
}

// Lookup returns the cached counts for content, if any. Undecodable entries are
// treated as misses.
func (s *Store) Lookup(scope string, content []byte) (types.Counts, bool) {
	var counts types.Counts
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(scope, content))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(val, &counts)
	})
	if err != nil {
		return types.Counts{}, false
	}
	return counts, true
}

// Store records counts for content scanned under scope.
func (s *Store) Store(scope string, content []byte, counts types.Counts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal counts: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(Key(scope, content), data)
	})
}

// Len reports the number of cached entries.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixCounts)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Purge removes every cached entry.
func (s *Store) Purge() error {
	if err := s.db.DropPrefix([]byte(prefixCounts)); err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return errors.New("cache is not open")
	}
	return s.db.Close()
}
