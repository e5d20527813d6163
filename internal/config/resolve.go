package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the file.
const (
	EnvAddr      = "PANTAU_ADDR"
	EnvDatabase  = "PANTAU_DB"
	EnvStorage   = "PANTAU_STORAGE"
	EnvSessionDB = "PANTAU_SESSION_DB"
)

// configFile represents the raw TOML structure. Pointers track whether a
// value was explicitly set.
type configFile struct {
	Server struct {
		Addr          string `toml:"addr"`
		SecureCookies *bool  `toml:"secure_cookies"`
		CSRFKey       string `toml:"csrf_key"`
	} `toml:"server"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	Storage struct {
		Root string `toml:"root"`
	} `toml:"storage"`
	Session struct {
		Path   string `toml:"path"`
		MaxAge string `toml:"max_age"`
	} `toml:"session"`
	Log struct {
		Level       string `toml:"level"`
		Development *bool  `toml:"development"`
	} `toml:"log"`
}

// Load resolves the configuration. Precedence order (highest to lowest):
// 1. Environment variables (PANTAU_*)
// 2. The config file (path, or pantau.toml in the working directory)
// 3. Built-in defaults
//
// An explicit path must exist; the implicit pantau.toml is optional.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}

	if _, err := os.Stat(path); err == nil {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	applyEnv(cfg, lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var raw configFile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	// Relative paths in the file are relative to the file itself
	base := filepath.Dir(path)

	if raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}
	if raw.Server.SecureCookies != nil {
		cfg.Server.SecureCookies = *raw.Server.SecureCookies
	}
	if raw.Server.CSRFKey != "" {
		cfg.Server.CSRFKey = raw.Server.CSRFKey
	}
	if raw.Database.Path != "" {
		cfg.Database.Path = relativeTo(base, raw.Database.Path)
	}
	if raw.Storage.Root != "" {
		cfg.Storage.Root = relativeTo(base, raw.Storage.Root)
	}
	if raw.Session.Path != "" {
		cfg.Session.Path = relativeTo(base, raw.Session.Path)
	}
	if raw.Session.MaxAge != "" {
		d, err := time.ParseDuration(raw.Session.MaxAge)
		if err != nil {
			return fmt.Errorf("invalid session max_age %q: %w", raw.Session.MaxAge, err)
		}
		cfg.Session.MaxAge = d
	}
	if raw.Log.Level != "" {
		cfg.Log.Level = raw.Log.Level
	}
	if raw.Log.Development != nil {
		cfg.Log.Development = *raw.Log.Development
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		cfg.Database.Path = v
	}
	if v, ok := lookup(EnvStorage); ok && v != "" {
		cfg.Storage.Root = v
	}
	if v, ok := lookup(EnvSessionDB); ok && v != "" {
		cfg.Session.Path = v
	}
}

func relativeTo(base, p string) string {
	if filepath.IsAbs(p) || base == "." {
		return p
	}
	return filepath.Join(base, p)
}
