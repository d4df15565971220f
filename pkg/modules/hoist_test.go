package modules

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleydavis/hoist-modules/pkg/config"
	"github.com/ashleydavis/hoist-modules/pkg/errors"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
	"github.com/ashleydavis/hoist-modules/pkg/testutil"
)

// hoistedVersion reads the version of the package copied at dir
func hoistedVersion(t *testing.T, fsys filesystem.FS, dir string) string {
	t.Helper()
	var m struct {
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(testutil.ReadFile(t, fsys, filepath.Join(dir, "package.json"))), &m))
	return m.Version
}

// snapshot walks dir and returns relative path -> content for every file
func snapshot(t *testing.T, fsys filesystem.FS, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	var walk func(sub string)
	walk = func(sub string) {
		entries, err := fsys.ReadDir(filepath.Join(dir, sub))
		require.NoError(t, err)
		for _, entry := range entries {
			rel := filepath.Join(sub, entry.Name())
			if entry.IsDir() {
				walk(rel)
				continue
			}
			files[rel] = testutil.ReadFile(t, fsys, filepath.Join(dir, rel))
		}
	}
	walk("")
	return files
}

func TestRunSimpleReuse(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"lodash": "^4.17.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/lodash", testutil.PackageSpec{
		Name: "lodash", Version: "4.17.21",
	})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Copied)
	assert.Equal(t, 0, stats.Unresolved)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, "4.17.21", hoistedVersion(t, fsys, "/target/lodash"))
	assert.False(t, testutil.Exists(fsys, "/target/lodash/node_modules"))
}

func TestRunSharedDependencyCopiedOnce(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"a": "^1.0.0", "b": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a", testutil.PackageSpec{
		Name: "a", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "1.2.0",
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/b", testutil.PackageSpec{
		Name: "b", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/b/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "1.0.5",
	})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	// one copy of foo serves both requirers; b's own 1.0.5 is never copied
	assert.Equal(t, 3, stats.Copied)
	assert.Equal(t, "1.2.0", hoistedVersion(t, fsys, "/target/foo"))
	assert.False(t, testutil.Exists(fsys, "/target/b/node_modules"))
}

func TestRunConflictIsolation(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"a": "^1.0.0", "b": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a", testutil.PackageSpec{
		Name: "a", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "1.2.0",
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/b", testutil.PackageSpec{
		Name: "b", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^2.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/b/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "2.0.0",
	})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Copied)
	// the root copy keeps the first hoisted version
	assert.Equal(t, "1.2.0", hoistedVersion(t, fsys, "/target/foo"))
	// the incompatible version is isolated under its requirer
	assert.Equal(t, "2.0.0", hoistedVersion(t, fsys, "/target/b/node_modules/foo"))
	assert.False(t, testutil.Exists(fsys, "/target/a/node_modules"))
}

func TestRunRootLevelConflictNestsUnderTargetRoot(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		// "a" sorts before "foo", so a's subtree hoists foo@1.2.0 first
		Dependencies: map[string]string{"a": "^1.0.0", "foo": "^2.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a", testutil.PackageSpec{
		Name: "a", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "1.2.0",
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "2.0.0",
	})

	_, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", hoistedVersion(t, fsys, "/target/foo"))
	assert.Equal(t, "2.0.0", hoistedVersion(t, fsys, "/target/node_modules/foo"))
}

func TestRunStoreFallbackLastMatch(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"bar": "^1.0.0"},
	})
	for _, v := range []string{"0.9.0", "1.0.0", "1.2.0", "1.5.0"} {
		testutil.WritePackage(t, fsys,
			"/app/node_modules/.store/bar@"+v+"/node_modules/bar",
			testutil.PackageSpec{Name: "bar", Version: v})
	}

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Copied)
	// scan semantics pick the lowest satisfying candidate
	assert.Equal(t, "1.0.0", hoistedVersion(t, fsys, "/target/bar"))
}

func TestRunStoreRecordDependenciesRecursed(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"bar": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/.store/bar@1.1.0/node_modules/bar", testutil.PackageSpec{
		Name: "bar", Version: "1.1.0",
		Dependencies: map[string]string{"baz": "^0.2.0"},
	})
	testutil.WritePackage(t, fsys,
		"/app/node_modules/.store/bar@1.1.0/node_modules/bar/node_modules/baz",
		testutil.PackageSpec{Name: "baz", Version: "0.2.4"})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Copied)
	assert.Equal(t, "1.1.0", hoistedVersion(t, fsys, "/target/bar"))
	assert.Equal(t, "0.2.4", hoistedVersion(t, fsys, "/target/baz"))
}

func TestRunUnresolvedContinues(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"ghost": "^1.0.0", "lodash": "^4.17.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/lodash", testutil.PackageSpec{
		Name: "lodash", Version: "4.17.21",
	})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 1, stats.Copied)
	assert.True(t, testutil.Exists(fsys, "/target/lodash"))
	assert.False(t, testutil.Exists(fsys, "/target/ghost"))
}

func TestRunNoStoreVersionSatisfies(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"bar": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/.store/bar@0.9.0/node_modules/bar", testutil.PackageSpec{
		Name: "bar", Version: "0.9.0",
	})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 0, stats.Copied)
}

func TestRunTargetExistsWithoutForce(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"lodash": "^4.17.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/lodash", testutil.PackageSpec{
		Name: "lodash", Version: "4.17.21",
	})
	testutil.WriteFile(t, fsys, "/target/stale.txt", "old run")

	_, err := Run(fsys, config.Default(), "/app", "/target")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTargetExists))
	// nothing was touched
	assert.True(t, testutil.Exists(fsys, "/target/stale.txt"))
	assert.False(t, testutil.Exists(fsys, "/target/lodash"))
}

func TestRunForceReplacesTarget(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"lodash": "^4.17.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/lodash", testutil.PackageSpec{
		Name: "lodash", Version: "4.17.21",
	})
	testutil.WriteFile(t, fsys, "/target/stale.txt", "old run")

	cfg := config.Default()
	cfg.Force = true
	_, err := Run(fsys, cfg, "/app", "/target")
	require.NoError(t, err)

	assert.False(t, testutil.Exists(fsys, "/target/stale.txt"))
	assert.True(t, testutil.Exists(fsys, "/target/lodash"))
}

func TestRunIdempotent(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"a": "^1.0.0", "b": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a", testutil.PackageSpec{
		Name: "a", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "1.2.0",
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/b", testutil.PackageSpec{
		Name: "b", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^2.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/b/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "2.0.0",
	})

	cfg := config.Default()
	cfg.Force = true

	first, err := Run(fsys, cfg, "/app", "/target")
	require.NoError(t, err)
	before := snapshot(t, fsys, "/target")

	second, err := Run(fsys, cfg, "/app", "/target")
	require.NoError(t, err)
	after := snapshot(t, fsys, "/target")

	assert.Equal(t, first, second)
	assert.Equal(t, before, after)
}

func TestRunConflictNestedUnderTwoRequirers(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		// "a" hoists foo@1.2.0 and bar@1.0.0 first; x and y then each
		// need the incompatible store foo@2.0.0 nested privately
		Dependencies: map[string]string{"a": "^1.0.0", "x": "^1.0.0", "y": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a", testutil.PackageSpec{
		Name: "a", Version: "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0", "bar": "^1.0.0"},
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "1.2.0",
	})
	testutil.WritePackage(t, fsys, "/app/node_modules/a/node_modules/bar", testutil.PackageSpec{
		Name: "bar", Version: "1.0.0",
	})
	for _, name := range []string{"x", "y"} {
		testutil.WritePackage(t, fsys, "/app/node_modules/"+name, testutil.PackageSpec{
			Name: name, Version: "1.0.0",
			Dependencies: map[string]string{"foo": "^2.0.0"},
		})
	}
	// the store copy of foo@2.0.0 carries its own conflicting bar
	testutil.WritePackage(t, fsys, "/app/node_modules/.store/foo@2.0.0/node_modules/foo", testutil.PackageSpec{
		Name: "foo", Version: "2.0.0",
		Dependencies: map[string]string{"bar": "^2.0.0"},
	})
	testutil.WritePackage(t, fsys,
		"/app/node_modules/.store/foo@2.0.0/node_modules/foo/node_modules/bar",
		testutil.PackageSpec{Name: "bar", Version: "2.0.0"})

	stats, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", hoistedVersion(t, fsys, "/target/foo"))
	assert.Equal(t, "1.0.0", hoistedVersion(t, fsys, "/target/bar"))
	// both requirers get their own nested foo@2.0.0, and each nested
	// copy anchors its own conflicting bar@2.0.0
	for _, name := range []string{"x", "y"} {
		nested := "/target/" + name + "/node_modules/foo"
		assert.Equal(t, "2.0.0", hoistedVersion(t, fsys, nested), name)
		assert.Equal(t, "2.0.0", hoistedVersion(t, fsys, nested+"/node_modules/bar"), name)
	}
	// a, foo, bar, x, y, and one foo+bar pair per conflicted requirer
	assert.Equal(t, 9, stats.Copied)
}

func TestRunAtMostOneRootCopyPerName(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WritePackage(t, fsys, "/app", testutil.PackageSpec{
		Name: "app", Version: "1.0.0",
		Dependencies: map[string]string{"a": "^1.0.0", "b": "^1.0.0", "c": "^1.0.0"},
	})
	for _, dep := range []struct{ name, fooVersion, fooRange string }{
		{"a", "1.2.0", "^1.0.0"},
		{"b", "2.0.0", "^2.0.0"},
		{"c", "3.1.0", "^3.0.0"},
	} {
		testutil.WritePackage(t, fsys, "/app/node_modules/"+dep.name, testutil.PackageSpec{
			Name: dep.name, Version: "1.0.0",
			Dependencies: map[string]string{"foo": dep.fooRange},
		})
		testutil.WritePackage(t, fsys, "/app/node_modules/"+dep.name+"/node_modules/foo", testutil.PackageSpec{
			Name: "foo", Version: dep.fooVersion,
		})
	}

	_, err := Run(fsys, config.Default(), "/app", "/target")
	require.NoError(t, err)

	entries, err := fsys.ReadDir("/target")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	// exactly one root-level foo; the conflicting versions are nested
	assert.Equal(t, []string{"a", "b", "c", "foo"}, names)
	assert.Equal(t, "1.2.0", hoistedVersion(t, fsys, "/target/foo"))
	assert.Equal(t, "2.0.0", hoistedVersion(t, fsys, "/target/b/node_modules/foo"))
	assert.Equal(t, "3.1.0", hoistedVersion(t, fsys, "/target/c/node_modules/foo"))
}
