// Command recon extracts original sources from a webpack-style bundle's
// source map and identifies the npm package version those sources came
// from.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/pterm/pterm"

	"github.com/webrecon/recon/internal/cache"
	"github.com/webrecon/recon/internal/fetch"
	"github.com/webrecon/recon/internal/reconcfg"
	"github.com/webrecon/recon/internal/reconlog"
	"github.com/webrecon/recon/internal/registry"
)

const toolVersion = "0.1.0"

type versionFlag bool

func (v versionFlag) BeforeApply(ctx *kong.Context) error { //nolint:unparam
	fmt.Fprintln(ctx.Stdout, "recon "+toolVersion)
	ctx.Exit(0)
	return nil
}

type cli struct {
	CacheDir string      `name:"cache-dir" help:"Override the cache root directory."`
	NoCache  bool        `name:"no-cache" help:"Disable the on-disk cache entirely."`
	Quiet    bool        `short:"q" name:"quiet" help:"Suppress all non-essential output."`
	Version  versionFlag `short:"v" name:"version" help:"Print version and exit."`

	Extract extractCmd `cmd:"" help:"Extract original sources from a bundle's source map."`
	Match   matchCmd   `cmd:"" help:"Identify the npm package version a set of extracted files came from."`
	Cache   cacheCmd   `cmd:"" help:"Inspect or clear the local cache."`
}

// AfterApply builds the shared collaborators every subcommand's Run
// method depends on and binds them into the kong context.
func (c *cli) AfterApply(ctx *kong.Context) error {
	if c.Quiet {
		ctx.Stdout, ctx.Stderr = io.Discard, io.Discard
	}
	ctx.BindTo(pterm.DefaultBasicText.WithWriter(ctx.Stdout), (*pterm.TextPrinter)(nil))

	cfgPath, err := reconcfg.DefaultPath()
	var cfg reconcfg.Config
	if err == nil {
		cfg, err = reconcfg.Load(cfgPath)
	}
	if err != nil {
		cfg = reconcfg.Default()
	}

	root := cfg.CacheRoot
	if c.CacheDir != "" {
		root = c.CacheDir
	}
	disabled := cfg.CacheDisabled || c.NoCache

	var opts []cache.ManagerOption
	if root != "" {
		opts = append(opts, cache.WithRoot(root))
	}
	opts = append(opts, cache.WithManagerDisabled(disabled))

	cacheMgr, err := cache.NewManager(opts...)
	if err != nil {
		return err
	}

	fetcher := fetch.NewHTTPFetcher()
	reg := registry.NewClient(fetcher, cacheMgr)

	var logger reconlog.Logger = reconlog.Noop
	if !c.Quiet {
		logger = reconlog.NewPtermLogger()
	}

	ctx.Bind(cfg)
	ctx.Bind(cacheMgr)
	ctx.Bind(reg)
	ctx.BindTo(fetcher, (*fetch.Fetcher)(nil))
	ctx.BindTo(logger, (*reconlog.Logger)(nil))
	return nil
}

func main() {
	c := cli{}

	parser := kong.Must(&c,
		kong.Name("recon"),
		kong.Description("Source-map extraction and npm package fingerprint matching."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		defer cancel()
		<-sigCh
		kongCtx.Exit(1)
	}()

	kongCtx.BindTo(ctx, (*context.Context)(nil))
	kongCtx.FatalIfErrorf(kongCtx.Run())
}
