package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the node's full runtime configuration: network identity, p2p
// and storage layout, plus the consensus-facing knobs (the genesis parameter
// bundle to load, the DA/worker-pool shape) that have no UTXO analogue.
type Config struct {
	Network  string   `mapstructure:"network"`
	DataDir  string   `mapstructure:"data_dir"`
	BindAddr string   `mapstructure:"bind_addr"`
	LogLevel string   `mapstructure:"log_level"`
	Peers    []string `mapstructure:"peers"`
	MaxPeers int      `mapstructure:"max_peers"`

	// MetricsAddr is where the Prometheus registry is exposed; empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`
	// PolicyBundlePath points at the JSON-encoded genesis parameter bundle.
	PolicyBundlePath string `mapstructure:"policy_bundle_path"`
	// WorkerPoolSize bounds concurrent per-receipt crypto verification.
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
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
		return ".animica"
	}
	return filepath.Join(home, ".animica")
}

func DefaultConfig() Config {
	return Config{
		Network:          "devnet",
		DataDir:          DefaultDataDir(),
		BindAddr:         "0.0.0.0:19111",
		Peers:            nil,
		LogLevel:         "info",
		MaxPeers:         64,
		MetricsAddr:      "127.0.0.1:9191",
		PolicyBundlePath: "",
		WorkerPoolSize:   8,
	}
}

// LoadConfig builds the effective configuration by layering, lowest to
// highest precedence: compiled-in defaults, an optional config file
// (--config, or <datadir-guess>/animica.yaml / animica.json / animica.toml
// found on the search path), ANIMICA_-prefixed environment variables, and
// finally any bound command-line flags. flags may be nil for callers (like
// tests) that only want the file/env layers.
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	defaults := DefaultConfig()
	v := viper.New()

	v.SetDefault("network", defaults.Network)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("bind_addr", defaults.BindAddr)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("max_peers", defaults.MaxPeers)
	v.SetDefault("metrics_addr", defaults.MetricsAddr)
	v.SetDefault("policy_bundle_path", defaults.PolicyBundlePath)
	v.SetDefault("worker_pool_size", defaults.WorkerPoolSize)

	v.SetEnvPrefix("ANIMICA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("animica")
	v.AddConfigPath(".")
	v.AddConfigPath(defaults.DataDir)

	if flags != nil {
		if cfgFile, err := flags.GetString("config"); err == nil && cfgFile != "" {
			v.SetConfigFile(cfgFile)
		}
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Peers = NormalizePeers(cfg.Peers...)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

func NormalizePeers(raw ...string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		for _, p := range strings.Split(token, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if err := validateAddr(cfg.BindAddr); err != nil {
		return fmt.Errorf("invalid bind_addr: %w", err)
	}
	for _, peer := range cfg.Peers {
		if err := validatePeerAddr(peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", peer, err)
		}
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxPeers <= 0 {
		return errors.New("max_peers must be > 0")
	}
	if cfg.MaxPeers > 4096 {
		return errors.New("max_peers must be <= 4096")
	}
	if cfg.WorkerPoolSize <= 0 {
		return errors.New("worker_pool_size must be > 0")
	}
	if cfg.MetricsAddr != "" {
		if err := validateAddr(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics_addr: %w", err)
		}
	}
	return nil
}

func validateAddr(addr string) error {
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
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}

func validatePeerAddr(addr string) error {
	if err := validateAddr(addr); err != nil {
		return err
	}
	host, _, _ := net.SplitHostPort(addr)
	if strings.TrimSpace(host) == "" {
		return errors.New("missing host")
	}
	return nil
}
