// Package config loads the server configuration from a YAML file layered
// over defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses "5m"-style strings in yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	Store      StoreConfig   `yaml:"store"`
	Remote     RemoteConfig  `yaml:"remote"`
	Menu       MenuConfig    `yaml:"menu"`
	Orders     OrdersConfig  `yaml:"orders"`
	Pricing    PricingConfig `yaml:"pricing"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"` // sqlite | redis | mysql | memory
	SQLitePath string `yaml:"sqlite_path"`
	RedisAddr  string `yaml:"redis_addr"`
	MySQLDSN   string `yaml:"mysql_dsn"`
}

type RemoteConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

type MenuConfig struct {
	// CacheTTL is the freshness window; zero disables the window so every
	// read tries the network first.
	CacheTTL Duration `yaml:"cache_ttl"`
}

type OrdersConfig struct {
	HistoryLimit  int      `yaml:"history_limit"`
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryDelay    Duration `yaml:"retry_delay"`
}

type PricingConfig struct {
	TaxRate     float64 `yaml:"tax_rate"`
	DeliveryFee float64 `yaml:"delivery_fee"`
}

func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Store: StoreConfig{
			Backend:    "sqlite",
			SQLitePath: "cartsync.db",
			RedisAddr:  "localhost:6379",
		},
		Remote: RemoteConfig{
			Timeout: Duration(10 * time.Second),
		},
		Orders: OrdersConfig{
			HistoryLimit:  50,
			RetryAttempts: 3,
			RetryDelay:    Duration(2 * time.Second),
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "redis", "mysql", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if c.Store.Backend == "mysql" && c.Store.MySQLDSN == "" {
		return fmt.Errorf("store.mysql_dsn is required for the mysql backend")
	}
	return nil
}
