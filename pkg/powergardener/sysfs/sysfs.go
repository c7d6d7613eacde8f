// Package sysfs wraps the kernel control surfaces this tool depends on:
// per-cpu online toggles, the reported active cpulists, and hybrid core
// topology. The sysfs mount point is injectable so tests can run against a
// fake tree.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultRoot is the mount path of sysfs.
	DefaultRoot = "/sys"
	// cpuBasePath is the sysfs devices/cpu subdirectory path.
	cpuBasePath = "devices/system/cpu"
)

// FS provides access to sysfs entries under a configurable root.
type FS struct {
	root string
}

// NewFS returns an FS rooted at the given mount point. An empty root
// selects DefaultRoot.
func NewFS(root string) *FS {
	if root == "" {
		root = DefaultRoot
	}
	return &FS{root: root}
}

// Root returns the sysfs mount point in use.
func (fs *FS) Root() string {
	return fs.root
}

func (fs *FS) cpuPath(elem ...string) string {
	return filepath.Join(append([]string{fs.root, cpuBasePath}, elem...)...)
}

// readEntry reads a sysfs attribute and returns its trimmed content.
func readEntry(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// writeEntry writes a single value to a sysfs attribute.
func writeEntry(path, value string) error {
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write %q to %s: %v", value, path, err)
	}
	return nil
}
