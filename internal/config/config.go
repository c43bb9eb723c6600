// Package config loads and validates the service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a field.
const (
	DefaultListen        = ":8888"
	DefaultDatabase      = "custodia.db"
	DefaultLedgerTimeout = 30 * time.Second
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// LedgerConfig points at the ledger gateway and its deployed contracts.
type LedgerConfig struct {
	// URL is the gateway base URL.
	URL string `yaml:"url"`

	// CustodyContract is the ChainCustody contract address.
	CustodyContract string `yaml:"custody_contract"`

	// WasteContract is the WasteChain contract address.
	WasteContract string `yaml:"waste_contract"`

	// Operator is the process's own signing identity.
	Operator string `yaml:"operator"`

	// Timeout bounds one submit-and-confirm round trip.
	Timeout Duration `yaml:"timeout"`
}

// Config is the full service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Database is the mirror SQLite path.
	Database string `yaml:"database"`

	Ledger LedgerConfig `yaml:"ledger"`
}

// Load reads, parses, and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Ledger.Timeout == 0 {
		c.Ledger.Timeout = Duration(DefaultLedgerTimeout)
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Ledger.URL == "" {
		return errors.New("config: ledger.url is required")
	}
	if c.Ledger.CustodyContract == "" {
		return errors.New("config: ledger.custody_contract is required")
	}
	if c.Ledger.WasteContract == "" {
		return errors.New("config: ledger.waste_contract is required")
	}
	if c.Ledger.Operator == "" {
		return errors.New("config: ledger.operator is required")
	}
	if c.Ledger.Timeout < 0 {
		return errors.New("config: ledger.timeout must be positive")
	}
	return nil
}
