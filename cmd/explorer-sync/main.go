package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joerlop/block-explorer-test/node"
	"github.com/joerlop/block-explorer-test/node/store"
	"github.com/joerlop/block-explorer-test/node/store/bolt"
	"github.com/joerlop/block-explorer-test/node/store/sqlite"
)

type options struct {
	configPath string
	dryRun     bool
}

func newFlagSet(cfg *node.Config, opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("explorer-sync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "JSON config file; flags override its values")
	fs.StringVar(&cfg.Peer, "peer", cfg.Peer, "peer host:port")
	fs.StringVar(&cfg.Network, "network", cfg.Network, "network name (mainnet/testnet)")
	fs.StringVar(&cfg.StartHash, "start-hash", cfg.StartHash, "block hash to sync after when the store is empty (default: genesis)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "store backend: bolt|sqlite")
	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	fs.IntVar(&cfg.MaxBlocks, "max-blocks", cfg.MaxBlocks, "stop after N blocks (0 = until caught up)")
	fs.IntVar(&cfg.ReadTimeoutSec, "read-timeout-sec", cfg.ReadTimeoutSec, "per-message read timeout in seconds (0 = none)")
	fs.BoolVar(&cfg.VerifyScripts, "verify-scripts", cfg.VerifyScripts, "verify input scripts against stored outputs")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print effective config and exit")
	return fs
}

// parseConfig applies flags over the config file (if any) over defaults.
func parseConfig(args []string, stderr io.Writer) (node.Config, options, error) {
	cfg := node.DefaultConfig()
	var opts options
	if err := newFlagSet(&cfg, &opts, stderr).Parse(args); err != nil {
		return cfg, opts, err
	}
	if opts.configPath != "" {
		fileCfg, err := node.LoadConfigFile(opts.configPath)
		if err != nil {
			return cfg, opts, err
		}
		cfg = fileCfg
		if err := newFlagSet(&cfg, &opts, io.Discard).Parse(args); err != nil {
			return cfg, opts, err
		}
	}
	cfg.Normalize()
	return cfg, opts, node.ValidateConfig(cfg)
}

func openStore(cfg node.Config) (store.Store, error) {
	switch cfg.Backend {
	case node.BackendSQLite:
		return sqlite.Open(cfg.DataDir, cfg.NetworkValue())
	default:
		return bolt.Open(cfg.DataDir, cfg.NetworkValue())
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, opts, err := parseConfig(args, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if err := printConfig(stdout, cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}
	if opts.dryRun {
		return 0
	}
	if cfg.Peer == "" {
		_, _ = fmt.Fprintln(stderr, "invalid config: peer is required")
		return 2
	}

	logger := node.NewLogger(cfg.LogLevel, stderr)
	slog.SetDefault(logger)

	s, err := openStore(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer s.Close()

	engine, err := node.NewSyncEngine(cfg, s, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "sync engine init failed: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := engine.Run(ctx)
	_, _ = fmt.Fprintf(stdout, "sync: blocks=%d headers=%d tip=%s scripts_checked=%d script_failures=%d missing_prevouts=%d\n",
		sum.Blocks, sum.Headers, sum.Tip, sum.ScriptsChecked, sum.ScriptFailures, sum.MissingPrevOut)
	if err != nil {
		logger.Error("sync failed", "err", err)
		return 1
	}
	return 0
}

func printConfig(w io.Writer, cfg node.Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
