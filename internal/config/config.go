package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	// ConfigFileName is the name of the configuration file looked up in the working directory
	ConfigFileName = "pantau.toml"

	// DefaultAddr is the default listen address
	DefaultAddr = "localhost:3000"

	// DefaultDatabasePath is the default SQLite database file
	DefaultDatabasePath = "pantau.db"

	// DefaultStorageRoot is the default root directory for uploads
	DefaultStorageRoot = "uploads"

	// DefaultSessionPath is the default bbolt session database file
	DefaultSessionPath = "sessions.db"

	// DefaultSessionMaxAge is how long a login stays valid
	DefaultSessionMaxAge = 24 * time.Hour

	// DefaultLogLevel is the default zap level
	DefaultLogLevel = "info"
)

// Config is the fully resolved application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Session  SessionConfig
	Log      LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr          string
	SecureCookies bool
	// CSRFKey is a 32 byte key; empty disables CSRF protection.
	CSRFKey string
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string
}

// StorageConfig holds the upload tree location.
type StorageConfig struct {
	Root string
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	Path   string
	MaxAge time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server:   ServerConfig{Addr: DefaultAddr},
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Storage:  StorageConfig{Root: DefaultStorageRoot},
		Session:  SessionConfig{Path: DefaultSessionPath, MaxAge: DefaultSessionMaxAge},
		Log:      LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if err := validateAddr(c.Server.Addr); err != nil {
		return err
	}
	if c.Server.CSRFKey != "" && len(c.Server.CSRFKey) != 32 {
		return fmt.Errorf("invalid csrf_key: must be exactly 32 bytes, got %d", len(c.Server.CSRFKey))
	}
	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}
	if c.Storage.Root == "" {
		return errors.New("storage root cannot be empty")
	}
	if c.Session.Path == "" {
		return errors.New("session path cannot be empty")
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("invalid session max_age %s: must be positive", c.Session.MaxAge)
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses the configured log level.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// validateAddr checks the address is host:port with the port in the valid range (1-65535)
func validateAddr(addr string) error {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: not a number", portStr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	return nil
}
