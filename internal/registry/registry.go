// Package registry wraps the npm registry and CDN endpoints the
// matcher needs behind the fetch and cache packages, so the matcher
// itself never builds a registry URL or reasons about cache tiers.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/webrecon/recon/internal/cache"
	"github.com/webrecon/recon/internal/fetch"
)

const (
	defaultRegistryBase = "https://registry.npmjs.org"
	defaultCDNBase      = "https://unpkg.com"
	defaultFileListBase = "https://data.jsdelivr.com/v1/package/npm"
)

// Client is the npm registry client the matcher (C8) depends on.
type Client struct {
	fetcher      fetch.Fetcher
	cache        *cache.Manager
	registryBase string
	cdnBase      string
	fileListBase string
}

// Option configures a Client.
type Option func(*Client)

// WithRegistryBase overrides the npm registry API base URL, for tests.
func WithRegistryBase(base string) Option {
	return func(c *Client) { c.registryBase = base }
}

// WithCDNBase overrides the file-content CDN base URL, for tests.
func WithCDNBase(base string) Option {
	return func(c *Client) { c.cdnBase = base }
}

// WithFileListBase overrides the file-listing API base URL, for tests.
func WithFileListBase(base string) Option {
	return func(c *Client) { c.fileListBase = base }
}

// NewClient builds a registry Client over f and cacheMgr.
func NewClient(f fetch.Fetcher, cacheMgr *cache.Manager, opts ...Option) *Client {
	c := &Client{
		fetcher:      f,
		cache:        cacheMgr,
		registryBase: defaultRegistryBase,
		cdnBase:      defaultCDNBase,
		fileListBase: defaultFileListBase,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// npmPackageDoc is the subset of the registry's package document this
// client reads.
type npmPackageDoc struct {
	DistTags map[string]string `json:"dist-tags"`
	Versions map[string]struct {
		Main    string            `json:"main"`
		Module  string            `json:"module"`
		Types   string            `json:"types"`
		Exports json.RawMessage   `json:"exports"`
		Peer    map[string]string `json:"peerDependencies"`
		Deps    map[string]string `json:"dependencies"`
	} `json:"versions"`
	Time map[string]string `json:"time"`
}

// GetMetadata returns the cached or freshly-fetched Metadata for name.
func (c *Client) GetMetadata(ctx context.Context, name string) (cache.Metadata, error) {
	if v, ok := c.cache.Metadata.Get(name); ok {
		return v, nil
	}

	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: c.registryBase + "/" + escapePackageName(name)})
	if err != nil {
		return cache.Metadata{}, errors.Wrap(err, "fetching package metadata")
	}
	if !resp.Ok || resp.Status >= 400 {
		return cache.Metadata{}, errors.Errorf("registry returned status %d for %s", resp.Status, name)
	}

	var doc npmPackageDoc
	if err := json.Unmarshal(resp.Bytes(), &doc); err != nil {
		return cache.Metadata{}, errors.Wrap(err, "decoding package metadata")
	}

	meta := cache.Metadata{
		DistTags:        doc.DistTags,
		VersionManifest: make(map[string]cache.VersionManifest, len(doc.Versions)),
		PublishedAtMs:   make(map[string]int64, len(doc.Time)),
	}
	for v, vd := range doc.Versions {
		meta.Versions = append(meta.Versions, v)
		var exports map[string]any
		_ = json.Unmarshal(vd.Exports, &exports)
		meta.VersionManifest[v] = cache.VersionManifest{
			Main:    vd.Main,
			Module:  vd.Module,
			Types:   vd.Types,
			Exports: exports,
			Peer:    vd.Peer,
			Deps:    vd.Deps,
		}
	}
	for v, ts := range doc.Time {
		if v == "created" || v == "modified" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			meta.PublishedAtMs[v] = parsed.UnixMilli()
		}
	}

	c.cache.Metadata.Set(name, meta)
	return meta, nil
}

// Exists reports whether name is a published package at all.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	if v, ok := c.cache.RegistryExistence.Get(name); ok {
		return v, nil
	}

	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: c.registryBase + "/" + escapePackageName(name)})
	if err != nil {
		return false, errors.Wrap(err, "checking package existence")
	}
	exists := resp.Ok && resp.Status < 400
	c.cache.RegistryExistence.Set(name, exists)
	return exists, nil
}

// VersionExists reports whether the exact version is published.
func (c *Client) VersionExists(ctx context.Context, name, version string) (bool, error) {
	key := name + "@" + version
	if v, ok := c.cache.RegistryVersion.Get(key); ok {
		return v, nil
	}

	meta, err := c.GetMetadata(ctx, name)
	if err != nil {
		return false, err
	}
	exists := false
	for _, v := range meta.Versions {
		if v == version {
			exists = true
			break
		}
	}
	c.cache.RegistryVersion.Set(key, exists)
	return exists, nil
}

// FetchFile retrieves the raw content of path within name@version from
// the CDN, uncached — callers that want the computed fingerprint of a
// file cache that result themselves under the fingerprint namespaces.
func (c *Client) FetchFile(ctx context.Context, name, version, path string) (string, error) {
	url := fmt.Sprintf("%s/%s@%s/%s", c.cdnBase, name, version, strings.TrimPrefix(path, "/"))
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: url})
	if err != nil {
		return "", errors.Wrap(err, "fetching package file")
	}
	if !resp.Ok || resp.Status >= 400 {
		return "", errors.Errorf("CDN returned status %d for %s@%s/%s", resp.Status, name, version, path)
	}
	return resp.Text(), nil
}

// FileList returns every filename published under name@version.
func (c *Client) FileList(ctx context.Context, name, version string) ([]string, error) {
	key := name + "@" + version
	if v, ok := c.cache.FileList.Get(key); ok {
		return v.Files, nil
	}

	url := fmt.Sprintf("%s/%s@%s", c.fileListBase, name, version)
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: url})
	if err != nil {
		return nil, errors.Wrap(err, "fetching package file list")
	}
	if !resp.Ok || resp.Status >= 400 {
		return nil, errors.Errorf("file list API returned status %d for %s@%s", resp.Status, name, version)
	}

	var doc struct {
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	if err := json.Unmarshal(resp.Bytes(), &doc); err != nil {
		return nil, errors.Wrap(err, "decoding file list")
	}

	files := make([]string, 0, len(doc.Files))
	for _, f := range doc.Files {
		files = append(files, strings.TrimPrefix(f.Name, "/"))
	}

	c.cache.FileList.Set(key, cache.FileListRecord{Files: files})
	return files, nil
}

func escapePackageName(name string) string {
	if strings.HasPrefix(name, "@") {
		parts := strings.SplitN(name, "/", 2)
		if len(parts) == 2 {
			return parts[0] + "%2F" + parts[1]
		}
	}
	return name
}
