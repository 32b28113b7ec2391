// Package state persists page state between runs as YAML snapshots, one
// file per page label. Reading is forgiving: a missing or corrupt snapshot
// is the same as no prior state.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/grovetools/seqrkit/logging"
	"github.com/grovetools/seqrkit/pkg/paths"
	"gopkg.in/yaml.v3"
)

// Snapshot is the generic form of a persisted slice.
type Snapshot map[string]interface{}

var unsafeLabel = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Dir is a directory of snapshot files.
type Dir struct {
	path string
}

// NewDir returns the snapshot directory at path, or the default state
// location when path is empty.
func NewDir(path string) *Dir {
	if path == "" {
		path = paths.SnapshotDir()
	}
	return &Dir{path: paths.Expand(path)}
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.path }

// Path returns the snapshot file for label.
func (d *Dir) Path(label string) string {
	name := strings.Trim(unsafeLabel.ReplaceAllString(label, "_"), "_")
	return filepath.Join(d.path, name+".yml")
}

// Load returns the snapshot for label, or an empty snapshot when it is
// missing or unreadable.
func (d *Dir) Load(label string) Snapshot {
	var snap Snapshot
	if err := d.read(label, &snap); err != nil || snap == nil {
		return make(Snapshot)
	}
	return snap
}

func (d *Dir) read(label string, target interface{}) error {
	path := d.Path(label)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.NewLogger("state").WithError(err).WithField("path", path).Debug("ignoring unreadable snapshot")
		}
		return err
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		logging.NewLogger("state").WithError(err).WithField("path", path).Debug("ignoring corrupt snapshot")
		return fmt.Errorf("parse snapshot: %w", err)
	}
	return nil
}

// Save writes value as the snapshot for label.
func (d *Dir) Save(label string, value interface{}) error {
	path := d.Path(label)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// Write then rename so a concurrent reader never sees a partial file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for label. A missing snapshot is not an error.
func (d *Dir) Delete(label string) error {
	if err := os.Remove(d.Path(label)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Labels lists the labels that have snapshots.
func (d *Dir) Labels() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}
	var labels []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		labels = append(labels, strings.TrimSuffix(entry.Name(), ".yml"))
	}
	sort.Strings(labels)
	return labels, nil
}

// Restore decodes the snapshot for label into a value of type S, returning
// fallback when there is no usable snapshot.
func Restore[S any](d *Dir, label string, fallback S) S {
	var value S
	if err := d.read(label, &value); err != nil {
		return fallback
	}
	return value
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	return nil
}
