// Package config loads the optional YAML configuration file. Flags on
// cmd/server override anything set here.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/absence-engine/absence"
)

// Config is the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Entitlement EntitlementConfig `yaml:"entitlement"`
}

// ServerConfig covers the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig covers the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EntitlementConfig overrides the vacation accrual constants. Zero values
// mean "keep the default". MonthlyRatio is a decimal string so fractional
// ratios survive the round trip.
type EntitlementConfig struct {
	BaseDays          int    `yaml:"base_days"`
	IncrementPerYear  int    `yaml:"increment_per_year"`
	RampYears         int    `yaml:"ramp_years"`
	BlockYears        int    `yaml:"block_years"`
	BlockIncrement    int    `yaml:"block_increment"`
	MonthlyRatio      string `yaml:"monthly_ratio"`
	LegalWindowMonths int    `yaml:"legal_window_months"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "absence.db"},
	}
}

// Load reads a configuration file and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AccrualConfig merges the file overrides onto the built-in accrual
// constants.
func (c *Config) AccrualConfig() (absence.EntitlementConfig, error) {
	ec := absence.DefaultEntitlementConfig()
	o := c.Entitlement
	if o.BaseDays > 0 {
		ec.BaseDays = o.BaseDays
	}
	if o.IncrementPerYear > 0 {
		ec.IncrementPerYear = o.IncrementPerYear
	}
	if o.RampYears > 0 {
		ec.RampYears = o.RampYears
	}
	if o.BlockYears > 0 {
		ec.BlockYears = o.BlockYears
	}
	if o.BlockIncrement > 0 {
		ec.BlockIncrement = o.BlockIncrement
	}
	if o.LegalWindowMonths > 0 {
		ec.LegalWindowMonths = o.LegalWindowMonths
	}
	if o.MonthlyRatio != "" {
		ratio, err := decimal.NewFromString(o.MonthlyRatio)
		if err != nil {
			return ec, fmt.Errorf("config: entitlement.monthly_ratio %q: %w", o.MonthlyRatio, err)
		}
		ec.MonthlyRatio = ratio
	}
	return ec, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must be set")
	}
	return nil
}
