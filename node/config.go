package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/script"
)

const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"

	MainnetGenesisHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	TestnetGenesisHash = "000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"

	maxReadTimeoutSec = 3600
)

type Config struct {
	Network        string `json:"network"`
	DataDir        string `json:"data_dir"`
	Peer           string `json:"peer"`
	StartHash      string `json:"start_hash"`
	Backend        string `json:"backend"`
	LogLevel       string `json:"log_level"`
	MaxBlocks      int    `json:"max_blocks"`
	ReadTimeoutSec int    `json:"read_timeout_sec"`
	VerifyScripts  bool   `json:"verify_scripts"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".block-explorer"
	}
	return filepath.Join(home, ".block-explorer")
}

func DefaultConfig() Config {
	return Config{
		Network:        "mainnet",
		DataDir:        DefaultDataDir(),
		Backend:        BackendBolt,
		LogLevel:       "info",
		MaxBlocks:      0,
		ReadTimeoutSec: 60,
	}
}

// LoadConfigFile overlays the single JSON object at path onto DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := openConfigFile(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if dec.More() {
		return cfg, fmt.Errorf("decode config %s: trailing data after object", path)
	}
	return cfg, nil
}

// openConfigFile opens name inside dir only; name must be a bare file name.
func openConfigFile(dir, name string) (fs.File, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid config file name %q", name)
	}
	return os.DirFS(dir).Open(name)
}

// Normalize lowercases and trims the enumerated fields in place.
func (c *Config) Normalize() {
	c.Network = strings.ToLower(strings.TrimSpace(c.Network))
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Peer = strings.TrimSpace(c.Peer)
	c.StartHash = strings.TrimSpace(c.StartHash)
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if _, err := script.ParseNetwork(strings.ToLower(strings.TrimSpace(cfg.Network))); err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if cfg.Peer != "" {
		if err := validatePeerAddr(cfg.Peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", cfg.Peer, err)
		}
	}
	if cfg.StartHash != "" {
		if _, err := chainhash.NewHashFromStr(cfg.StartHash); err != nil || len(cfg.StartHash) != 2*chainhash.HashSize {
			return fmt.Errorf("invalid start_hash %q", cfg.StartHash)
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendBolt, BackendSQLite:
	default:
		return fmt.Errorf("invalid backend %q", cfg.Backend)
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxBlocks < 0 {
		return errors.New("max_blocks must be >= 0")
	}
	if cfg.ReadTimeoutSec < 0 {
		return errors.New("read_timeout_sec must be >= 0")
	}
	if cfg.ReadTimeoutSec > maxReadTimeoutSec {
		return fmt.Errorf("read_timeout_sec must be <= %d", maxReadTimeoutSec)
	}
	return nil
}

func (c Config) NetworkValue() script.Network {
	n, err := script.ParseNetwork(strings.ToLower(strings.TrimSpace(c.Network)))
	if err != nil {
		return script.Mainnet
	}
	return n
}

func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// StartBlock is the hash headers are requested from when the store is empty:
// the configured start hash, or the network's genesis block.
func (c Config) StartBlock() (chainhash.Hash, error) {
	s := c.StartHash
	if s == "" {
		s = MainnetGenesisHash
		if c.NetworkValue() == script.Testnet {
			s = TestnetGenesisHash
		}
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("start hash: %w", err)
	}
	return *h, nil
}

func validatePeerAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.TrimSpace(host) == "" {
		return errors.New("missing host")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}
