package extract

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// maxManifestFiles caps how many individual file paths a single bundle
// entry lists; runs extracting more files than this still count toward
// FilesExtracted but only the first maxManifestFiles names are recorded.
const maxManifestFiles = 100

// BundleManifest summarizes one bundle's reconstruction.
type BundleManifest struct {
	BundleURL      string   `json:"bundleUrl"`
	SourceMapURL   string   `json:"sourceMapUrl"`
	FilesExtracted int      `json:"filesExtracted"`
	Files          []string `json:"files"`
}

// Manifest is the top-level manifest.json written after a full run.
type Manifest struct {
	OriginatingURL string            `json:"originatingUrl"`
	Bundles        []BundleManifest  `json:"bundles"`
	TotalFiles     int               `json:"totalFiles"`
	ByExtension    map[string]int    `json:"byExtension"`
	ByTopDir       map[string]int    `json:"byTopLevelDirectory"`
	GeneratedAtMs  int64             `json:"generatedAtMs"`
}

// NewBundleManifest builds a BundleManifest from a completed
// reconstruction, truncating the recorded file list at maxManifestFiles
// while still reporting the true FilesExtracted count.
func NewBundleManifest(bundleURL, sourceMapURL string, results []FileResult) BundleManifest {
	bm := BundleManifest{BundleURL: bundleURL, SourceMapURL: sourceMapURL}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		bm.FilesExtracted++
		if len(bm.Files) < maxManifestFiles {
			bm.Files = append(bm.Files, r.Path)
		}
	}
	return bm
}

// BuildManifest aggregates per-bundle manifests into the top-level
// manifest, computing grand totals and the by-extension / by-top-
// directory breakdowns spec.md requires.
func BuildManifest(originatingURL string, bundles []BundleManifest, nowMs int64) Manifest {
	m := Manifest{
		OriginatingURL: originatingURL,
		Bundles:        bundles,
		ByExtension:    map[string]int{},
		ByTopDir:       map[string]int{},
		GeneratedAtMs:  nowMs,
	}

	for _, b := range bundles {
		m.TotalFiles += b.FilesExtracted
		for _, f := range b.Files {
			m.ByExtension[extensionOf(f)]++
			m.ByTopDir[topDirOf(f)]++
		}
	}

	return m
}

func extensionOf(p string) string {
	ext := filepath.Ext(p)
	if ext == "" {
		return "(none)"
	}
	return strings.TrimPrefix(ext, ".")
}

func topDirOf(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return "(root)"
}

// WriteManifest marshals m and writes it to outputDir/manifest.json
// through the same stage-then-rename pattern Reconstructor uses, so a
// reader never observes a half-written manifest.
func WriteManifest(fs afero.Fs, outputDir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling manifest")
	}

	if err := fs.MkdirAll(outputDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	target := filepath.Join(outputDir, "manifest.json")
	staged := filepath.Join(outputDir, ".manifest."+uuid.NewString()+".tmp")
	if err := afero.WriteFile(fs, staged, data, 0o644); err != nil {
		return errors.Wrap(err, "staging manifest write")
	}
	if err := fs.Rename(staged, target); err != nil {
		_ = fs.Remove(staged)
		return errors.Wrap(err, "renaming staged manifest into place")
	}
	return nil
}
