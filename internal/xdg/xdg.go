// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

// Package xdg provides XDG Base Directory paths for Meshwork.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "meshwork"

// ConfigDir returns the XDG config directory for meshwork.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
