package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPaths returns the search order for config files.
func DefaultConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bulkspeed", "config.yaml"))
	}
	paths = append(paths, "/etc/bulkspeed/config.yaml")
	return paths
}

// Resolve loads the config from the given explicit path, or searches the
// default locations. When no config file exists anywhere, the built-in
// defaults are returned so flag-only invocations still work; an explicit
// path that does not exist is an error.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file not found: %s", explicit)
		}
		return Load(explicit)
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	return Default(), nil
}
