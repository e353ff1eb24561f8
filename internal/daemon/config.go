// Package daemon holds process configuration for the coin ledger service.
package daemon

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration, loaded from TOML.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Economy  EconomyConfig  `toml:"economy"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	Metrics           bool   `toml:"metrics"`
	ThrottlePerMinute int    `toml:"throttle_per_minute"` // 0 disables the throttle
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AuthConfig configures token verification. The secret can also arrive via
// COINLEDGER_JWT_SECRET, which wins over the file.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

// EconomyConfig carries the business ceilings of the coin economy.
type EconomyConfig struct {
	MaxSpendPerTx     int64 `toml:"max_spend_per_tx"`
	MaxRedeemQuantity int   `toml:"max_redeem_quantity"`
	RecentEntries     int   `toml:"recent_entries"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:              "127.0.0.1",
			Port:              8090,
			Metrics:           true,
			ThrottlePerMinute: 120,
		},
		Database: DatabaseConfig{
			Path: "coinledger.db",
		},
		Auth: AuthConfig{
			TokenTTL: "24h",
		},
		Economy: EconomyConfig{
			MaxSpendPerTx:     10_000,
			MaxRedeemQuantity: 5,
			RecentEntries:     20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error — defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	if secret := os.Getenv("COINLEDGER_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// TokenTTL parses the configured token lifetime, defaulting to 24h.
func (c AuthConfig) ParsedTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
