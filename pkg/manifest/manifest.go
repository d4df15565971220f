// Package manifest reads the per-package metadata file (package.json),
// exposing only the fields hoisting consumes.
package manifest

import (
	"encoding/json"
	"path/filepath"

	"github.com/ashleydavis/hoist-modules/pkg/errors"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
)

// Manifest holds the consumed fields of a package metadata file
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Load reads and parses the manifest file named fileName inside dir.
// A missing or unreadable file is a MANIFEST_READ error; a present but
// malformed file is a MANIFEST_PARSE error, which aborts the whole
// tree build.
func Load(fsys filesystem.FS, dir, fileName string) (*Manifest, error) {
	path := filepath.Join(dir, fileName)
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestRead, "cannot read manifest %s", path).
			WithDetail("path", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "manifest %s is not valid JSON", path).
			WithDetail("path", path)
	}
	return &m, nil
}

// Exists reports whether dir directly contains a manifest file named
// fileName. Entries without one are namespace directories, not packages.
func Exists(fsys filesystem.FS, dir, fileName string) bool {
	info, err := fsys.Stat(filepath.Join(dir, fileName))
	return err == nil && !info.IsDir()
}

// Wants returns the declared dependency ranges, merging development-only
// ranges in when includeDev is set. Dev keys override on collision. The
// returned map is always non-nil and owned by the caller.
func (m *Manifest) Wants(includeDev bool) map[string]string {
	wants := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	for name, rng := range m.Dependencies {
		wants[name] = rng
	}
	if includeDev {
		for name, rng := range m.DevDependencies {
			wants[name] = rng
		}
	}
	return wants
}
