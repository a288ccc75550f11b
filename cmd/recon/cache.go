package main

import (
	"github.com/pterm/pterm"

	"github.com/webrecon/recon/internal/cache"
)

// cacheCmd groups subcommands that inspect or reset the local cache.
type cacheCmd struct {
	Stats cacheStatsCmd `cmd:"" help:"Print cache entry counts and disk usage."`
	Clear cacheClearCmd `cmd:"" help:"Remove every cached entry."`
}

type cacheStatsCmd struct{}

func (c *cacheStatsCmd) Run(p pterm.TextPrinter, cacheMgr *cache.Manager) error {
	stats := cacheMgr.Stats()
	p.Printfln("metadata entries: %d", stats.MetadataEntries)
	p.Printfln("fingerprint entries: %d", stats.FingerprintEntries)
	p.Printfln("total bytes on disk: %d", stats.TotalBytes)
	return nil
}

type cacheClearCmd struct{}

func (c *cacheClearCmd) Run(p pterm.TextPrinter, cacheMgr *cache.Manager) error {
	if err := cacheMgr.Clear(); err != nil {
		return err
	}
	p.Printfln("cache cleared")
	return nil
}
