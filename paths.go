package main

import (
	"os"
	"path/filepath"
	"strings"
)

func configHome() string {
	if v := strings.TrimSpace(os.Getenv("SEMLAYER_CONFIG_HOME")); v != "" {
		return filepath.Clean(v)
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "semlayer")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "semlayer")
}

// projectConfigPath is the project-local tier, resolved relative to the
// working directory the gateway was launched from.
func projectConfigPath() string {
	return filepath.Join(".", ".semlayer", "config.json")
}

func globalConfigPath() string {
	return filepath.Join(configHome(), "config.json")
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
