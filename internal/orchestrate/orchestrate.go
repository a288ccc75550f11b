// Package orchestrate runs the batched, bounded-concurrency package
// search spec.md's orchestration stage describes: a metadata prefetch
// pass followed by per-package matching, each phase capped by a
// weighted semaphore instead of an unbounded fan-out.
package orchestrate

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/webrecon/recon/internal/match"
	"github.com/webrecon/recon/internal/reconlog"
	"github.com/webrecon/recon/internal/registry"
)

// Default concurrency caps, per spec.md §5's "Concurrency caps" table.
const (
	DefaultMetadataConcurrency = 10
	DefaultPackageConcurrency  = 3
	DefaultVersionConcurrency  = 6
)

// EventType labels a progress Event.
type EventType string

const (
	EventMetadataStarted   EventType = "metadata_started"
	EventMetadataCompleted EventType = "metadata_completed"
	EventMetadataFailed    EventType = "metadata_failed"
	EventPackageStarted    EventType = "package_started"
	EventPackageMatched    EventType = "package_matched"
	EventPackageFailed     EventType = "package_failed"
)

// Event is one step of the progress stream a caller's renderer
// consumes. Consumers may drop events; nothing downstream depends on
// every event being observed, per spec.md §9's "Progress is a
// structured event stream; implementations may drop events."
type Event struct {
	Type    EventType
	Package string
	Result  match.Result
	Err     error
}

// ProgressFunc receives Events as the search proceeds. A nil
// ProgressFunc is valid and simply drops every event.
type ProgressFunc func(Event)

// Options configures Search.
type Options struct {
	MetadataConcurrency int
	PackageConcurrency  int
	MatchOptions        match.Options
	Progress            ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.MetadataConcurrency == 0 {
		o.MetadataConcurrency = DefaultMetadataConcurrency
	}
	if o.PackageConcurrency == 0 {
		o.PackageConcurrency = DefaultPackageConcurrency
	}
	if o.Progress == nil {
		o.Progress = func(Event) {}
	}
	return o
}

// Package is one logical npm package's extracted file set to search
// for, keyed by package name.
type Package struct {
	Name  string
	Files []match.File
}

// Orchestrator runs Search over a registry client and matcher.
type Orchestrator struct {
	registry *registry.Client
	matcher  *match.Matcher
	log      reconlog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a Logger; the default is reconlog.Noop.
func WithLogger(l reconlog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(reg *registry.Client, matcher *match.Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{registry: reg, matcher: matcher, log: reconlog.Noop}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search prefetches metadata for every package (bounded by
// MetadataConcurrency), then matches each package against its files
// (bounded by PackageConcurrency, with version probing inside each
// match bounded by MatchOptions.VersionConcurrency). A single package's
// failure is reported via Progress and excluded from the result map;
// it never aborts the rest of the search.
func (o *Orchestrator) Search(ctx context.Context, packages []Package, opts Options) (map[string]match.Result, error) {
	opts = opts.withDefaults()

	if err := o.prefetchMetadata(ctx, packages, opts); err != nil {
		return nil, err
	}

	return o.matchAll(ctx, packages, opts)
}

func (o *Orchestrator) prefetchMetadata(ctx context.Context, packages []Package, opts Options) error {
	sem := semaphore.NewWeighted(int64(opts.MetadataConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	for _, pkg := range packages {
		pkg := pkg
		if err := sem.Acquire(ctx, 1); err != nil {
			return errors.Wrap(err, "acquiring metadata prefetch slot")
		}
		g.Go(func() error {
			defer sem.Release(1)
			opts.Progress(Event{Type: EventMetadataStarted, Package: pkg.Name})
			if _, err := o.registry.GetMetadata(gctx, pkg.Name); err != nil {
				o.log.Error("metadata prefetch failed", "package", pkg.Name, "err", err)
				opts.Progress(Event{Type: EventMetadataFailed, Package: pkg.Name, Err: err})
				return nil
			}
			o.log.Debug("metadata prefetched", "package", pkg.Name)
			opts.Progress(Event{Type: EventMetadataCompleted, Package: pkg.Name})
			return nil
		})
	}

	return g.Wait()
}

func (o *Orchestrator) matchAll(ctx context.Context, packages []Package, opts Options) (map[string]match.Result, error) {
	results := make(map[string]match.Result, len(packages))
	resultsCh := make(chan struct {
		name   string
		result match.Result
	}, len(packages))

	sem := semaphore.NewWeighted(int64(opts.PackageConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	for _, pkg := range packages {
		pkg := pkg
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, errors.Wrap(err, "acquiring package match slot")
		}
		g.Go(func() error {
			defer sem.Release(1)
			opts.Progress(Event{Type: EventPackageStarted, Package: pkg.Name})

			result, err := o.matcher.Match(gctx, pkg.Name, pkg.Files, opts.MatchOptions)
			if err != nil {
				o.log.Error("package match failed", "package", pkg.Name, "err", err)
				opts.Progress(Event{Type: EventPackageFailed, Package: pkg.Name, Err: err})
				return nil
			}

			o.log.Info("package matched", "package", pkg.Name, "version", result.Version, "confidence", result.Confidence)
			opts.Progress(Event{Type: EventPackageMatched, Package: pkg.Name, Result: result})
			resultsCh <- struct {
				name   string
				result match.Result
			}{pkg.Name, result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)

	for r := range resultsCh {
		results[r.name] = r.result
	}
	return results, nil
}
