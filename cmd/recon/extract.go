package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"

	"github.com/webrecon/recon/internal/discovery"
	"github.com/webrecon/recon/internal/extract"
	"github.com/webrecon/recon/internal/fetch"
	"github.com/webrecon/recon/internal/pathutil"
	"github.com/webrecon/recon/internal/sourcemap"
)

// extractCmd fetches a bundle, locates its source map, and reconstructs
// the original sources it references onto disk.
type extractCmd struct {
	URL     string   `arg:"" required:"" help:"URL of the bundle to extract."`
	Output  string   `short:"o" name:"output" default:"." help:"Directory to write extracted sources under."`
	Exclude []string `name:"exclude" help:"Regex patterns of normalized paths to exclude."`
}

func (c *extractCmd) Run(ctx context.Context, p pterm.TextPrinter, f fetch.Fetcher) error {
	bundleResp, err := f.Fetch(ctx, fetch.Request{URL: c.URL})
	if err != nil {
		return errors.Wrap(err, "fetching bundle")
	}
	if !bundleResp.Ok || bundleResp.Status >= 400 {
		return errors.Errorf("bundle fetch returned status %d", bundleResp.Status)
	}

	disco, err := discovery.Discover(ctx, f, c.URL, bundleResp)
	if err != nil {
		return errors.Wrap(err, "discovering source map")
	}
	if !disco.Found {
		return errors.WithStack(discovery.ErrNoSourceMapFound)
	}

	var mapData []byte
	if strings.HasPrefix(disco.URL, "data:") {
		mapData = []byte(disco.URL)
	} else {
		mapResp, err := f.Fetch(ctx, fetch.Request{URL: disco.URL})
		if err != nil {
			return errors.Wrap(err, "fetching source map")
		}
		if !mapResp.Ok || mapResp.Status >= 400 {
			return errors.Errorf("source map fetch returned status %d", mapResp.Status)
		}
		mapData = mapResp.Bytes()
	}

	parsed, result, err := sourcemap.ParseAuto(mapData, disco.URL)
	if err != nil {
		return errors.Wrap(err, "parsing source map")
	}
	for _, e := range result.Errors {
		p.Printfln("validation error: %s", e.Error())
	}
	for _, w := range result.Warnings {
		p.Printfln("warning: %s", w)
	}

	filter := pathutil.NewFilter(c.Exclude)
	extractOpts := extract.Options{Filter: filter}

	var regularMaps []*sourcemap.RegularMap
	switch {
	case parsed.Regular != nil:
		regularMaps = append(regularMaps, parsed.Regular)
	case parsed.Index != nil:
		for _, section := range parsed.Index.Sections {
			if section.Map != nil {
				regularMaps = append(regularMaps, section.Map)
			}
		}
	default:
		return errors.New("parsed source map has neither a regular map nor an index map")
	}

	var sources []extract.Source
	for _, rm := range regularMaps {
		s, _, err := extract.Extract(rm, extractOpts)
		if err != nil && !errors.Is(err, extract.ErrNoExtractableSources) {
			return errors.Wrap(err, "extracting sources")
		}
		sources = append(sources, s...)
	}

	bundleName := pathutil.BundleName(c.URL)
	fs := afero.NewOsFs()
	reconstructor := extract.NewReconstructor(extract.WithFS(fs))
	fileResults, err := reconstructor.Reconstruct(c.Output, bundleName, sources)
	if err != nil {
		return errors.Wrap(err, "reconstructing sources")
	}

	bm := extract.NewBundleManifest(c.URL, disco.URL, fileResults)
	manifest := extract.BuildManifest(c.URL, []extract.BundleManifest{bm}, nowMs())
	if err := extract.WriteManifest(fs, c.Output, manifest); err != nil {
		return errors.Wrap(err, "writing manifest")
	}

	p.Printfln("%s: %d files extracted to %s/%s", c.URL, bm.FilesExtracted, c.Output, bundleName)
	return nil
}
