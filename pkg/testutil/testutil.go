// Package testutil provides helpers for building fake package trees on
// the filesystem abstraction in tests.
package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
)

// PackageSpec describes one fake package for WritePackage
type PackageSpec struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// WritePackage creates dir with a package.json from spec and returns dir
func WritePackage(t *testing.T, fsys filesystem.FS, dir string, spec PackageSpec) string {
	t.Helper()
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	require.NoError(t, fsys.MkdirAll(dir, 0755))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "package.json"), data, 0644))
	return dir
}

// WriteFile creates a file with content, creating parent directories
func WriteFile(t *testing.T, fsys filesystem.FS, path, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fsys.WriteFile(path, []byte(content), 0644))
}

// ReadFile reads path or fails the test
func ReadFile(t *testing.T, fsys filesystem.FS, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether path exists on fsys
func Exists(fsys filesystem.FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}
