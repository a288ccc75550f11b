// Package cache implements the two-tier (in-memory + on-disk) TTL-keyed
// store used by the registry client and the version matcher. Each
// namespace is its own typed Store[V], never a single store of
// map[string]any, so callers get compile-time value shapes while the
// disk/memory tiering and TTL logic stays shared.
package cache

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// record is the on-disk/in-memory envelope around a cached value.
// Unknown fields are tolerated on read (spec.md's "on-disk records must
// tolerate unknown fields" note) because Go's encoding/json already
// ignores fields absent from the target struct.
type record[V any] struct {
	Value       V     `json:"value"`
	FetchedAtMs int64 `json:"fetchedAtMs"`
}

// Store is a single-namespace, two-tier TTL cache. The zero value is not
// usable; construct with NewStore.
type Store[V any] struct {
	namespace string
	ttl       time.Duration
	fs        afero.Fs
	root      string
	disabled  bool
	now       func() int64

	mu  sync.Mutex
	mem map[string]record[V]
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithTTL overrides the default TTL for this namespace.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(s *Store[V]) { s.ttl = ttl }
}

// WithDisabled puts the store into disabled mode: every Get is a miss
// and every Set is a no-op, matching the `--no-cache` / test-harness
// requirement in spec.md §4.6, while the store remains fully callable.
func WithDisabled[V any](disabled bool) Option[V] {
	return func(s *Store[V]) { s.disabled = disabled }
}

// WithClock overrides the store's notion of "now" in milliseconds, for
// deterministic freshness tests.
func WithClock[V any](now func() int64) Option[V] {
	return func(s *Store[V]) { s.now = now }
}

// NewStore builds a Store for one namespace rooted at
// filepath.Join(cacheRoot, namespace). Initialization of the namespace
// directory is idempotent and lazy: it happens on first Set, not here,
// so constructing a disabled or read-only store never touches disk.
func NewStore[V any](fs afero.Fs, cacheRoot, namespace string, ttl time.Duration, opts ...Option[V]) *Store[V] {
	s := &Store[V]{
		namespace: namespace,
		ttl:       ttl,
		fs:        fs,
		root:      filepath.Join(cacheRoot, namespace),
		now:       nowMs,
		mem:       make(map[string]record[V]),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns (value, true) on a fresh hit, memory first, then disk.
// A stale disk entry is deleted (best-effort) and reported as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	if s.disabled {
		return zero, false
	}

	safe := SanitizeKey(key)
	now := s.now()

	s.mu.Lock()
	if rec, ok := s.mem[safe]; ok {
		s.mu.Unlock()
		if s.fresh(rec.FetchedAtMs, now) {
			return rec.Value, true
		}
		s.mu.Lock()
		delete(s.mem, safe)
		s.mu.Unlock()
		s.removeDiskFile(safe)
		return zero, false
	}
	s.mu.Unlock()

	rec, ok := s.readDisk(safe)
	if !ok {
		return zero, false
	}
	if !s.fresh(rec.FetchedAtMs, now) {
		s.removeDiskFile(safe)
		return zero, false
	}

	s.mu.Lock()
	s.mem[safe] = rec
	s.mu.Unlock()
	return rec.Value, true
}

// Set writes value to the memory tier and best-effort to the disk tier.
// Disk write failures are swallowed: the cache is always advisory and
// must never fail a caller's operation.
func (s *Store[V]) Set(key string, value V) {
	if s.disabled {
		return
	}

	safe := SanitizeKey(key)
	rec := record[V]{Value: value, FetchedAtMs: s.now()}

	s.mu.Lock()
	s.mem[safe] = rec
	s.mu.Unlock()

	_ = s.writeDisk(safe, rec)
}

// Delete removes key from both tiers, best-effort.
func (s *Store[V]) Delete(key string) {
	safe := SanitizeKey(key)
	s.mu.Lock()
	delete(s.mem, safe)
	s.mu.Unlock()
	s.removeDiskFile(safe)
}

// fresh reports whether a record fetched at fetchedAtMs is still within
// this store's TTL as of now.
func (s *Store[V]) fresh(fetchedAtMs, now int64) bool {
	return now-fetchedAtMs <= s.ttl.Milliseconds()
}

func (s *Store[V]) path(safeKey string) string {
	return filepath.Join(s.root, safeKey)
}

func (s *Store[V]) readDisk(safeKey string) (record[V], bool) {
	var rec record[V]
	data, err := afero.ReadFile(s.fs, s.path(safeKey))
	if err != nil {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false
	}
	return rec, true
}

func (s *Store[V]) writeDisk(safeKey string, rec record[V]) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling cache record")
	}

	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return nil //nolint:nilerr // disk tier is best-effort; swallow and stay memory-only.
	}

	staged := filepath.Join(s.root, "."+safeKey+"."+uuid.NewString()+".tmp")
	if err := afero.WriteFile(s.fs, staged, data, 0o644); err != nil {
		return nil //nolint:nilerr
	}
	if err := s.fs.Rename(staged, s.path(safeKey)); err != nil {
		_ = s.fs.Remove(staged)
		return nil //nolint:nilerr
	}
	return nil
}

func (s *Store[V]) removeDiskFile(safeKey string) {
	_ = s.fs.Remove(s.path(safeKey))
}

// DiskUsageBytes walks this namespace's directory and sums file sizes,
// for Stats().
func (s *Store[V]) DiskUsageBytes() int64 {
	var total int64
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if !e.IsDir() {
			total += e.Size()
		}
	}
	return total
}

// Count returns the number of entries currently on disk for this
// namespace (used for reporting, not for freshness decisions).
func (s *Store[V]) Count() int {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

// Clear removes every entry in this namespace, both tiers, and
// reinitializes the (now empty) namespace directory.
func (s *Store[V]) Clear() error {
	s.mu.Lock()
	s.mem = make(map[string]record[V])
	s.mu.Unlock()

	if err := s.fs.RemoveAll(s.root); err != nil {
		return errors.Wrap(err, "removing namespace directory")
	}
	return s.fs.MkdirAll(s.root, 0o755)
}

// Init idempotently creates this namespace's directory.
func (s *Store[V]) Init() error {
	return s.fs.MkdirAll(s.root, 0o755)
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
