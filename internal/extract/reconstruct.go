package extract

import (
	"crypto/md5" //nolint:gosec // content-identity digest, not a security boundary.
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var errPathEscapesRoot = errors.New("reconstructed path escapes bundle root")

// FileResult records what happened to a single reconstructed file.
type FileResult struct {
	Path      string
	Written   bool
	Unchanged bool
	Err       error
}

// Reconstructor writes extracted sources to a filesystem, deduping
// unchanged files by (size, md5) and staging every write through a
// uuid-suffixed temp file so a concurrent writer to the same path never
// observes a partial file.
type Reconstructor struct {
	fs afero.Fs
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithFS overrides the filesystem a Reconstructor writes through,
// primarily so tests can pass afero.NewMemMapFs().
func WithFS(fs afero.Fs) Option {
	return func(r *Reconstructor) { r.fs = fs }
}

// NewReconstructor builds a Reconstructor writing to the OS filesystem
// unless overridden with WithFS.
func NewReconstructor(opts ...Option) *Reconstructor {
	r := &Reconstructor{fs: afero.NewOsFs()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reconstruct writes every source under outputDir/bundleName. Source.Path
// values are joined to that directory as given, without being sanitized
// again here; a path that resolves outside the directory is not written
// and its FileResult carries errPathEscapesRoot.
func (r *Reconstructor) Reconstruct(outputDir, bundleName string, sources []Source) ([]FileResult, error) {
	root, err := filepath.Abs(filepath.Join(outputDir, bundleName))
	if err != nil {
		return nil, errors.Wrap(err, "resolving bundle root")
	}

	results := make([]FileResult, 0, len(sources))
	for _, src := range sources {
		res := r.writeOne(root, src)
		results = append(results, res)
	}
	return results, nil
}

func (r *Reconstructor) writeOne(root string, src Source) FileResult {
	target := filepath.Join(root, filepath.FromSlash(src.Path))
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return FileResult{Path: src.Path, Err: errors.Wrap(err, "resolving target path")}
	}
	if !withinRoot(root, absTarget) {
		return FileResult{Path: src.Path, Err: errors.WithStack(errPathEscapesRoot)}
	}

	content := []byte(src.Content)
	sum := md5.Sum(content) //nolint:gosec

	if existing, statErr := r.fs.Stat(absTarget); statErr == nil && !existing.IsDir() {
		if existing.Size() == int64(len(content)) {
			if existingContent, readErr := afero.ReadFile(r.fs, absTarget); readErr == nil {
				if md5.Sum(existingContent) == sum { //nolint:gosec
					return FileResult{Path: src.Path, Unchanged: true}
				}
			}
		}
	}

	dir := filepath.Dir(absTarget)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return FileResult{Path: src.Path, Err: errors.Wrap(err, "creating parent directories")}
	}

	staged := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(absTarget), uuid.NewString()))
	if err := afero.WriteFile(r.fs, staged, content, 0o644); err != nil {
		return FileResult{Path: src.Path, Err: errors.Wrap(err, "staging file write")}
	}
	if err := r.fs.Rename(staged, absTarget); err != nil {
		_ = r.fs.Remove(staged)
		return FileResult{Path: src.Path, Err: errors.Wrap(err, "renaming staged file into place")}
	}

	return FileResult{Path: src.Path, Written: true}
}

// withinRoot reports whether target is root itself or a descendant of
// it, guarding against ".." segments that would otherwise let a write
// escape the bundle directory. The check is lexical only: symlinks are
// not resolved, so a symlinked directory inside the bundle directory can
// still lead a write outside it.
func withinRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}
