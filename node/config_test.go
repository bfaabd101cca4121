package node

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joerlop/block-explorer-test/script"
)

func TestValidateConfigOK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Peer = "127.0.0.1:8333"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfigRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty network":   func(c *Config) { c.Network = " " },
		"unknown network": func(c *Config) { c.Network = "regtest" },
		"empty datadir":   func(c *Config) { c.DataDir = "" },
		"peer no port":    func(c *Config) { c.Peer = "bad-peer" },
		"peer no host":    func(c *Config) { c.Peer = ":8333" },
		"short hash":      func(c *Config) { c.StartHash = "00ff" },
		"non-hex hash":    func(c *Config) { c.StartHash = strings.Repeat("zz", 32) },
		"backend":         func(c *Config) { c.Backend = "leveldb" },
		"log level":       func(c *Config) { c.LogLevel = "verbose" },
		"max blocks":      func(c *Config) { c.MaxBlocks = -1 },
		"timeout low":     func(c *Config) { c.ReadTimeoutSec = -1 },
		"timeout high":    func(c *Config) { c.ReadTimeoutSec = maxReadTimeoutSec + 1 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{Network: " TestNet ", Backend: "SQLITE", LogLevel: "Warn ", Peer: " 1.2.3.4:18333 "}
	cfg.Normalize()
	if cfg.Network != "testnet" || cfg.Backend != BackendSQLite || cfg.LogLevel != "warn" || cfg.Peer != "1.2.3.4:18333" {
		t.Fatalf("normalized=%+v", cfg)
	}
	if cfg.NetworkValue() != script.Testnet {
		t.Fatalf("network value=%v", cfg.NetworkValue())
	}
}

func TestStartBlockDefaultsToGenesis(t *testing.T) {
	cfg := DefaultConfig()
	h, err := cfg.StartBlock()
	if err != nil || h.String() != MainnetGenesisHash {
		t.Fatalf("mainnet start=%s err=%v", h, err)
	}
	cfg.Network = "testnet"
	h, err = cfg.StartBlock()
	if err != nil || h.String() != TestnetGenesisHash {
		t.Fatalf("testnet start=%s err=%v", h, err)
	}
	cfg.StartHash = "0000000000000000000995e3397b662e673e275ac904adef1e4e2cfa142a8177"
	h, err = cfg.StartBlock()
	if err != nil || h.String() != cfg.StartHash {
		t.Fatalf("explicit start=%s err=%v", h, err)
	}
}

func TestReadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadTimeoutSec = 3
	if cfg.ReadTimeout() != 3*time.Second {
		t.Fatalf("timeout=%v", cfg.ReadTimeout())
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(path, []byte(`{"peer":"10.0.0.2:8333","max_blocks":3}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Peer != "10.0.0.2:8333" || cfg.MaxBlocks != 3 || cfg.Backend != BackendBolt || cfg.LogLevel != "info" {
		t.Fatalf("cfg=%+v", cfg)
	}

	if err := os.WriteFile(path, []byte(`{"max_peers":3}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if _, err := LoadConfigFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	if err := os.WriteFile(path, []byte(`{"peer":"10.0.0.2:8333"} {"peer":"10.0.0.3:8333"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for trailing object")
	}
	if _, err := LoadConfigFile(dir + string(filepath.Separator)); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

func TestOpenConfigFileRejectsNonBareNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", ".", "..", "../x", "sub/x"} {
		if f, err := openConfigFile(dir, name); err == nil {
			_ = f.Close()
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("WARN", &buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=1") {
		t.Fatalf("log output %q", out)
	}
	if ParseLogLevel("bogus") != slog.LevelInfo || ParseLogLevel("debug") != slog.LevelDebug {
		t.Fatalf("ParseLogLevel")
	}
}
