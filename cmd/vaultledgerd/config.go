package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Settlement modes supported by the bundled transferer.
const (
	// SettlementAccept approves every outbound transfer and records it in
	// the service log. Intended for development and embedded use.
	SettlementAccept = "accept"
	// SettlementWebhook settles transfers by POSTing them to an external
	// endpoint; any non-2xx reply fails the withdrawal.
	SettlementWebhook = "webhook"
)

// Config holds the daemon configuration.
type Config struct {
	Address           string        `toml:"address"`
	Environment       string        `toml:"environment"`
	LogLevel          string        `toml:"log_level"`
	SnapshotPath      string        `toml:"snapshot_path"`
	SettlementMode    string        `toml:"settlement_mode"`
	SettlementURL     string        `toml:"settlement_url"`
	SettlementTimeout time.Duration `toml:"-"`
}

type fileConfig struct {
	Address           string `toml:"address"`
	Environment       string `toml:"environment"`
	LogLevel          string `toml:"log_level"`
	SnapshotPath      string `toml:"snapshot_path"`
	SettlementMode    string `toml:"settlement_mode"`
	SettlementURL     string `toml:"settlement_url"`
	SettlementTimeout string `toml:"settlement_timeout"`
}

// defaultConfig returns the baseline daemon configuration.
func defaultConfig() Config {
	return Config{
		Address:           ":3000",
		Environment:       "local",
		LogLevel:          "",
		SnapshotPath:      "vault-ledger.db",
		SettlementMode:    SettlementAccept,
		SettlementTimeout: 10 * time.Second,
	}
}

// loadConfig builds the effective configuration: defaults, then the TOML file
// (when path is non-empty), then environment variable overrides.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		var raw fileConfig

		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}

		if meta.IsDefined("address") {
			cfg.Address = strings.TrimSpace(raw.Address)
		}

		if meta.IsDefined("environment") {
			cfg.Environment = strings.TrimSpace(raw.Environment)
		}

		if meta.IsDefined("log_level") {
			cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
		}

		if meta.IsDefined("snapshot_path") {
			cfg.SnapshotPath = strings.TrimSpace(raw.SnapshotPath)
		}

		if meta.IsDefined("settlement_mode") {
			cfg.SettlementMode = strings.TrimSpace(raw.SettlementMode)
		}

		if meta.IsDefined("settlement_url") {
			cfg.SettlementURL = strings.TrimSpace(raw.SettlementURL)
		}

		if meta.IsDefined("settlement_timeout") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.SettlementTimeout))
			if err != nil {
				return Config{}, fmt.Errorf("parse settlement_timeout: %w", err)
			}

			cfg.SettlementTimeout = d
		}
	}

	cfg.Address = getenvOrDefault("VAULT_LEDGER_ADDRESS", cfg.Address)
	cfg.Environment = getenvOrDefault("VAULT_LEDGER_ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getenvOrDefault("VAULT_LEDGER_LOG_LEVEL", cfg.LogLevel)
	cfg.SnapshotPath = getenvOrDefault("VAULT_LEDGER_SNAPSHOT_PATH", cfg.SnapshotPath)
	cfg.SettlementMode = getenvOrDefault("VAULT_LEDGER_SETTLEMENT_MODE", cfg.SettlementMode)
	cfg.SettlementURL = getenvOrDefault("VAULT_LEDGER_SETTLEMENT_URL", cfg.SettlementURL)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}

	if c.SnapshotPath == "" {
		return fmt.Errorf("snapshot_path is required")
	}

	switch c.SettlementMode {
	case SettlementAccept:
		return nil
	case SettlementWebhook:
		if c.SettlementURL == "" {
			return fmt.Errorf("settlement_url is required in webhook mode")
		}

		return nil
	default:
		return fmt.Errorf("unknown settlement_mode %q", c.SettlementMode)
	}
}

// getenvOrDefault returns the value of the environment variable or the
// fallback when it is unset or blank.
func getenvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
