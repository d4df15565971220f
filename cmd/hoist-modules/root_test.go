package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0644))
}

func TestRootRequiresTwoArgs(t *testing.T) {
	rootCmd.SetArgs([]string{"only-source"})
	assert.Error(t, rootCmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"version"})
	assert.NoError(t, rootCmd.Execute())
}

func TestHoistEndToEnd(t *testing.T) {
	src := t.TempDir()
	writePackage(t, src, `{"name":"app","version":"1.0.0","dependencies":{"lodash":"^4.17.0"}}`)
	writePackage(t, filepath.Join(src, "node_modules", "lodash"), `{"name":"lodash","version":"4.17.21"}`)

	target := filepath.Join(t.TempDir(), "out")
	rootCmd.SetArgs([]string{src, target})
	require.NoError(t, rootCmd.Execute())

	_, err := os.Stat(filepath.Join(target, "lodash", "package.json"))
	assert.NoError(t, err)
}

func TestHoistEndToEndTargetExists(t *testing.T) {
	src := t.TempDir()
	writePackage(t, src, `{"name":"app","version":"1.0.0"}`)

	target := t.TempDir() // already exists, no --force
	rootCmd.SetArgs([]string{src, target})
	assert.Error(t, rootCmd.Execute())
}
