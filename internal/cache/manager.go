package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Namespace names, matching spec.md §3's table exactly.
const (
	NSMetadata            = "metadata"
	NSFingerprint         = "fingerprint"
	NSMinifiedFingerprint = "minified-fingerprint"
	NSMatch               = "match"
	NSSourceMap           = "sourcemap"
	NSExtraction          = "extraction"
	NSPage                = "page"
	NSDiscovery           = "discovery"
	NSAnalysis            = "analysis"
	NSManifest            = "manifest"
	NSFileList            = "file-list"
	NSRegistryExistence   = "registry-existence"
	NSRegistryVersion     = "registry-version"
)

// defaultTTL and longTTL are spec.md §3's "default 7 days; 30 days for
// registry existence/version validation" rule.
const (
	defaultTTL = 7 * 24 * time.Hour
	longTTL    = 30 * 24 * time.Hour
)

// Manager owns one typed Store per namespace plus the shared afero.Fs
// and root directory they're all rooted under, mirroring the teacher's
// single cache.Local instance wired everywhere via dependency injection
// rather than a package-level global.
type Manager struct {
	fs       afero.Fs
	root     string
	disabled bool

	Metadata           *Store[Metadata]
	Fingerprint        *Store[Fingerprint]
	MinifiedFingerprint *Store[Fingerprint]
	Match              *Store[MatchRecord]
	SourceMap          *Store[SourceMapRecord]
	Extraction         *Store[ExtractionRecord]
	Page               *Store[PageRecord]
	Discovery          *Store[DiscoveryRecord]
	Analysis           *Store[AnalysisRecord]
	Manifest           *Store[ManifestRecord]
	FileList           *Store[FileListRecord]
	RegistryExistence  *Store[bool]
	RegistryVersion    *Store[bool]
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	fs       afero.Fs
	root     string
	disabled bool
}

// WithFS overrides the filesystem, primarily for tests.
func WithFS(fs afero.Fs) ManagerOption {
	return func(c *managerConfig) { c.fs = fs }
}

// WithRoot overrides the cache root directory.
func WithRoot(root string) ManagerOption {
	return func(c *managerConfig) { c.root = root }
}

// WithManagerDisabled puts every namespace store into disabled mode.
func WithManagerDisabled(disabled bool) ManagerOption {
	return func(c *managerConfig) { c.disabled = disabled }
}

// NewManager builds a Manager with one Store per namespace, rooted at
// $CACHE_HOME/recon by default (os.UserCacheDir, per spec.md §6).
func NewManager(opts ...ManagerOption) (*Manager, error) {
	cfg := managerConfig{fs: afero.NewOsFs()}

	if cfg.root == "" {
		home, err := os.UserCacheDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolving cache home")
		}
		cfg.root = filepath.Join(home, "recon")
	}

	for _, o := range opts {
		o(&cfg)
	}

	m := &Manager{fs: cfg.fs, root: cfg.root, disabled: cfg.disabled}

	m.Metadata = newNS[Metadata](m, NSMetadata, defaultTTL)
	m.Fingerprint = newNS[Fingerprint](m, NSFingerprint, defaultTTL)
	m.MinifiedFingerprint = newNS[Fingerprint](m, NSMinifiedFingerprint, defaultTTL)
	m.Match = newNS[MatchRecord](m, NSMatch, defaultTTL)
	m.SourceMap = newNS[SourceMapRecord](m, NSSourceMap, defaultTTL)
	m.Extraction = newNS[ExtractionRecord](m, NSExtraction, defaultTTL)
	m.Page = newNS[PageRecord](m, NSPage, defaultTTL)
	m.Discovery = newNS[DiscoveryRecord](m, NSDiscovery, defaultTTL)
	m.Analysis = newNS[AnalysisRecord](m, NSAnalysis, defaultTTL)
	m.Manifest = newNS[ManifestRecord](m, NSManifest, defaultTTL)
	m.FileList = newNS[FileListRecord](m, NSFileList, defaultTTL)
	m.RegistryExistence = newNS[bool](m, NSRegistryExistence, longTTL)
	m.RegistryVersion = newNS[bool](m, NSRegistryVersion, longTTL)

	if err := m.Init(); err != nil {
		return nil, err
	}

	return m, nil
}

func newNS[V any](m *Manager, namespace string, ttl time.Duration) *Store[V] {
	return NewStore[V](m.fs, m.root, namespace, ttl, WithDisabled[V](m.disabled))
}

// allStores lists every namespace store for operations that apply
// uniformly across all thirteen (Init, Clear, Stats).
func (m *Manager) allStores() []interface {
	Init() error
	Clear() error
	Count() int
	DiskUsageBytes() int64
} {
	return []interface {
		Init() error
		Clear() error
		Count() int
		DiskUsageBytes() int64
	}{
		m.Metadata, m.Fingerprint, m.MinifiedFingerprint, m.Match,
		m.SourceMap, m.Extraction, m.Page, m.Discovery, m.Analysis,
		m.Manifest, m.FileList, m.RegistryExistence, m.RegistryVersion,
	}
}

// Init idempotently creates every namespace directory.
func (m *Manager) Init() error {
	for _, s := range m.allStores() {
		if err := s.Init(); err != nil {
			return errors.Wrap(err, "initializing cache namespace")
		}
	}
	return nil
}

// Clear removes the cache root and clears every namespace, emptying its
// memory tier and recreating its directory.
func (m *Manager) Clear() error {
	if err := m.fs.RemoveAll(m.root); err != nil {
		return errors.Wrap(err, "clearing cache root")
	}
	for _, s := range m.allStores() {
		if err := s.Clear(); err != nil {
			return errors.Wrap(err, "clearing cache namespace")
		}
	}
	return nil
}

// Stats reports counts of metadata and fingerprint entries plus total
// bytes on disk across every namespace, per spec.md §4.6.
type Stats struct {
	MetadataEntries    int
	FingerprintEntries int
	TotalBytes         int64
}

// Stats computes Stats by walking every namespace directory.
func (m *Manager) Stats() Stats {
	var s Stats
	s.MetadataEntries = m.Metadata.Count()
	s.FingerprintEntries = m.Fingerprint.Count() + m.MinifiedFingerprint.Count()
	for _, store := range m.allStores() {
		s.TotalBytes += store.DiskUsageBytes()
	}
	return s
}
