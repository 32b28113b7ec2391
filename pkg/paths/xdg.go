// Package paths provides XDG-compliant path resolution for seqrkit.
//
// Resolution order:
// 1. SEQRKIT_HOME (portable root) → $SEQRKIT_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/seqrkit
// 3. Platform defaults → ~/.config/seqrkit, ~/.local/state/seqrkit
package paths

import (
	"os"
	"path/filepath"
)

const appDir = "seqrkit"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("SEQRKIT_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("SEQRKIT_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the seqrkit configuration directory.
// Used for the global seqrkit.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	if os.Getenv("SEQRKIT_HOME") != "" {
		return base
	}
	return filepath.Join(base, appDir)
}

// StateDir returns the seqrkit state directory.
// Used for persisted page snapshots and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	if os.Getenv("SEQRKIT_HOME") != "" {
		return base
	}
	return filepath.Join(base, appDir)
}

// SnapshotDir returns the directory holding persisted page snapshots.
func SnapshotDir() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "snapshots")
}

// Expand expands a leading ~/ and environment variables in a path.
func Expand(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
