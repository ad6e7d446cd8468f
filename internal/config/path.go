// Package config resolves settings and default file locations.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration directory.
const AppName = "cashflow"

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns the configuration directory, honouring XDG_CONFIG_HOME.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	return ExpandPath(filepath.Join("~", ".config", AppName))
}

// DefaultConfigFile is where the config file is looked for when --config is unset.
func DefaultConfigFile() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultRulesFile is the rules file used when --rules is unset.
func DefaultRulesFile() string {
	return filepath.Join(Dir(), "rules.yaml")
}

// DefaultDatabasePath is the run history database.
func DefaultDatabasePath() string {
	return filepath.Join(Dir(), "cashflow.db")
}

// DefaultTokenFile caches the Google OAuth2 token.
func DefaultTokenFile() string {
	return filepath.Join(Dir(), "sheets-token.json")
}
