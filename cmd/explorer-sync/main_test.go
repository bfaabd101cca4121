package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/joerlop/block-explorer-test/node"
	"github.com/joerlop/block-explorer-test/node/store"
)

func TestRunDryRunOK(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--log-level", "INFO", "--backend", "SQLite"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	var cfg node.Config
	if err := json.Unmarshal(out.Bytes(), &cfg); err != nil {
		t.Fatalf("stdout is not config json: %v\n%s", err, out.String())
	}
	if cfg.LogLevel != "info" || cfg.Backend != node.BackendSQLite || cfg.DataDir != dir {
		t.Fatalf("effective config %+v", cfg)
	}
	// Dry run never touches the data directory.
	if _, err := os.Stat(filepath.Join(dir, "chains")); !os.IsNotExist(err) {
		t.Fatalf("dry run created chain dir: %v", err)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cases := [][]string{
		{"--dry-run", "--network", "regtest"},
		{"--dry-run", "--backend", "leveldb"},
		{"--dry-run", "--peer", "nohost"},
		{"--dry-run", "--max-blocks", "-1"},
		{"--dry-run", "--start-hash", "abcd"},
		{"--no-such-flag"},
	}
	for _, args := range cases {
		var out, errOut bytes.Buffer
		if code := run(args, &out, &errOut); code != 2 {
			t.Fatalf("%v: code=%d, want 2", args, code)
		}
	}
}

func TestRunRequiresPeer(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"--datadir", t.TempDir()}, &out, &errOut); code != 2 {
		t.Fatalf("code=%d stderr=%q", code, errOut.String())
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.json")
	body := `{"network":"testnet","data_dir":"` + filepath.ToSlash(dir) + `","peer":"10.0.0.1:18333","backend":"bolt","log_level":"debug","max_blocks":5,"read_timeout_sec":10,"verify_scripts":true}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	var errOut bytes.Buffer
	cfg, opts, err := parseConfig([]string{"--config", path, "--max-blocks", "7", "--dry-run"}, &errOut)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if !opts.dryRun || cfg.MaxBlocks != 7 || cfg.Network != "testnet" || cfg.Peer != "10.0.0.1:18333" || !cfg.VerifyScripts {
		t.Fatalf("cfg=%+v opts=%+v", cfg, opts)
	}

	if err := os.WriteFile(path, []byte(`{"bogus":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := parseConfig([]string{"--config", path}, &errOut); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestOpenStoreByBackend(t *testing.T) {
	for _, backend := range []string{node.BackendBolt, node.BackendSQLite} {
		cfg := node.DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Backend = backend
		s, err := openStore(cfg)
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		if _, ok := s.(store.OutputLookup); !ok {
			t.Fatalf("%s: no output lookup", backend)
		}
		m, err := store.ReadManifest(store.ChainDir(cfg.DataDir, cfg.NetworkValue()))
		if err != nil || m.Backend != backend {
			t.Fatalf("%s: manifest %+v err=%v", backend, m, err)
		}
		_ = s.Close()
	}
}
