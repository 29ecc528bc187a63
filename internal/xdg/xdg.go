// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg resolves XDG Base Directory paths for authcore.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "authcore"

// ConfigFileName is the file ConfigFile looks for inside ConfigDir.
const ConfigFileName = "config.yaml"

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

// ConfigDir returns the XDG config directory for authcore.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir(getenv Getenv) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the path of config.yaml in ConfigDir when that file
// exists, and "" otherwise.
func ConfigFile(getenv Getenv) string {
	path := filepath.Join(ConfigDir(getenv), ConfigFileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}
