package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"

	"github.com/webrecon/recon/internal/cache"
	"github.com/webrecon/recon/internal/match"
	"github.com/webrecon/recon/internal/orchestrate"
	"github.com/webrecon/recon/internal/reconlog"
	"github.com/webrecon/recon/internal/registry"
)

// matchCmd identifies the published npm package version a directory of
// previously extracted source files most likely came from.
//
// Packages is repeatable, each entry shaped "name=directory", so a
// single invocation can search several packages concurrently through
// the same orchestration pass C9 implements.
type matchCmd struct {
	Packages      []string `arg:"" required:"" help:"One or more name=directory pairs to search for."`
	MinSimilarity float64  `name:"min-similarity" help:"Minimum similarity to count as a match (default 0.5)."`
	Hint          string   `name:"hint" help:"Version hint to search outward from."`
}

func (c *matchCmd) Run(ctx context.Context, p pterm.TextPrinter, reg *registry.Client, cacheMgr *cache.Manager, log reconlog.Logger) error {
	packages, err := c.loadPackages()
	if err != nil {
		return err
	}

	matcher := match.NewMatcher(reg, cacheMgr)
	orch := orchestrate.NewOrchestrator(reg, matcher, orchestrate.WithLogger(log))

	spinner, _ := pterm.DefaultSpinner.Start("searching")

	opts := orchestrate.Options{
		MatchOptions: match.Options{
			MinSimilarity: c.MinSimilarity,
			VersionHint:   c.Hint,
		},
		Progress: func(ev orchestrate.Event) {
			switch ev.Type {
			case orchestrate.EventPackageStarted:
				spinner.UpdateText("probing " + ev.Package)
			case orchestrate.EventPackageMatched:
				spinner.UpdateText(fmt.Sprintf("%s -> %s (%s)", ev.Package, ev.Result.Version, ev.Result.Confidence))
			case orchestrate.EventPackageFailed:
				spinner.UpdateText(ev.Package + ": " + ev.Err.Error())
			}
		},
	}

	results, err := orch.Search(ctx, packages, opts)
	_ = spinner.Stop()
	if err != nil {
		return errors.Wrap(err, "searching packages")
	}

	for _, pkg := range packages {
		r, ok := results[pkg.Name]
		if !ok {
			p.Printfln("%s: no result", pkg.Name)
			continue
		}
		p.Printfln("%s: version=%s similarity=%.2f confidence=%s source=%s probes=%d",
			pkg.Name, r.Version, r.Similarity, r.Confidence, r.Source, r.ProbeCount)
	}
	return nil
}

func (c *matchCmd) loadPackages() ([]orchestrate.Package, error) {
	fs := afero.NewOsFs()
	packages := make([]orchestrate.Package, 0, len(c.Packages))

	for _, entry := range c.Packages {
		name, dir, err := parsePackageArg(entry)
		if err != nil {
			return nil, err
		}

		files, err := walkDir(fs, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "reading extracted files for %s", name)
		}

		packages = append(packages, orchestrate.Package{Name: name, Files: files})
	}

	return packages, nil
}

// parsePackageArg splits a "name=directory" CLI argument, rejecting a
// missing "=" or an empty name/directory on either side of it.
func parsePackageArg(entry string) (name, dir string, err error) {
	name, dir, ok := strings.Cut(entry, "=")
	if !ok || name == "" || dir == "" {
		return "", "", errors.Errorf("invalid package argument %q, expected name=directory", entry)
	}
	return name, dir, nil
}
