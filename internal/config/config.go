// Package config defines the server's configuration surface, loaded
// through internal/infra/confloader with precedence flag > env > file >
// default and hot-reloadable for the subset of keys safe to change live.
package config

import "time"

// Config is the full configuration surface for a driftkv server.
type Config struct {
	// Bind is the RESP listener address, e.g. "0.0.0.0:6379".
	Bind string `koanf:"bind"`

	// MetricsBind is the Prometheus exposition listener address. Empty
	// disables the metrics endpoint.
	MetricsBind string `koanf:"metrics_bind"`

	// MaxConnections caps concurrent client connections; 0 means
	// unlimited.
	MaxConnections int `koanf:"max_connections"`

	// MaxCommandsPerSec is the per-connection token-bucket rate limit
	// applied to inbound commands; 0 disables rate limiting.
	MaxCommandsPerSec float64 `koanf:"max_commands_per_sec"`

	// AOF holds append-only-file persistence settings.
	AOF AOFConfig `koanf:"aof"`

	// Log holds structured-logging settings.
	Log LogConfig `koanf:"log"`

	// ActiveExpirePeriod is the interval between active-expiry sampling
	// cycles.
	ActiveExpirePeriod time.Duration `koanf:"active_expire_period"`

	// ShutdownTimeout bounds how long graceful shutdown waits for
	// in-flight connections to drain; connections still open when it
	// elapses are not closed by the server.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// AOFFsyncPolicy controls how often the append-only file is fsynced.
type AOFFsyncPolicy string

const (
	AOFFsyncAlways   AOFFsyncPolicy = "always"
	AOFFsyncEverySec AOFFsyncPolicy = "everysec"
	AOFFsyncNo       AOFFsyncPolicy = "no"
)

// AOFConfig configures append-only-file persistence.
type AOFConfig struct {
	Enabled bool           `koanf:"enabled"`
	Path    string         `koanf:"path"`
	Fsync   AOFFsyncPolicy `koanf:"fsync"`

	// CipherKeyHex, if set, enables AEAD at-rest encryption of AOF records
	// using the given 64-character hex-encoded 32-byte key. The algorithm is
	// chosen by adaptive.New: AES-256-GCM on amd64 and arm64,
	// ChaCha20-Poly1305 on other architectures.
	CipherKeyHex string `koanf:"cipher_key"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the baseline configuration, the same values a fresh
// install would run with before any file, environment, or flag override.
func Default() *Config {
	return &Config{
		Bind:              "127.0.0.1:6379",
		MetricsBind:       "",
		MaxConnections:    10000,
		MaxCommandsPerSec: 0,
		AOF: AOFConfig{
			Enabled: false,
			Path:    "appendonly.aof",
			Fsync:   AOFFsyncEverySec,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		ActiveExpirePeriod: 100 * time.Millisecond,
		ShutdownTimeout:    30 * time.Second,
	}
}

// Validate checks that the configuration is internally consistent.
func Validate(cfg *Config) error {
	if cfg.Bind == "" {
		return errConfig("bind address must not be empty")
	}
	if cfg.MaxConnections < 0 {
		return errConfig("max_connections must not be negative")
	}
	if cfg.MaxCommandsPerSec < 0 {
		return errConfig("max_commands_per_sec must not be negative")
	}
	switch cfg.AOF.Fsync {
	case AOFFsyncAlways, AOFFsyncEverySec, AOFFsyncNo, "":
	default:
		return errConfig("aof.fsync must be one of always, everysec, no")
	}
	if cfg.AOF.Enabled && cfg.AOF.Path == "" {
		return errConfig("aof.path must be set when aof.enabled is true")
	}
	if cfg.AOF.CipherKeyHex != "" && len(cfg.AOF.CipherKeyHex) != 64 {
		return errConfig("aof.cipher_key must be 64 hex characters (32 bytes)")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errConfig(msg string) error { return configError(msg) }
