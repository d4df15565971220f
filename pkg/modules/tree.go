package modules

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ashleydavis/hoist-modules/pkg/config"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
	"github.com/ashleydavis/hoist-modules/pkg/logging"
	"github.com/ashleydavis/hoist-modules/pkg/manifest"
)

// Builder scans installed packages on disk into Module trees.
type Builder struct {
	fs  filesystem.FS
	cfg config.Config
}

// NewBuilder creates a tree builder over the given filesystem
func NewBuilder(fsys filesystem.FS, cfg config.Config) *Builder {
	return &Builder{fs: fsys, cfg: cfg}
}

// BuildTree builds the module record for the package at dir, recursing
// through its installed-dependency directory. A corrupt manifest
// anywhere in the tree aborts the build.
func (b *Builder) BuildTree(dir string) (*Module, error) {
	return b.buildModule(dir, nil)
}

// buildModule reads one package and scans its dependency directory.
// visited carries the canonical paths already on this traversal branch
// so a symlinked, self-referential layout cannot recurse forever.
func (b *Builder) buildModule(dir string, visited []string) (*Module, error) {
	logger := logging.GetLogger("modules.tree")

	m, err := manifest.Load(b.fs, dir, b.cfg.Manifest)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		Name:      m.Name,
		Version:   m.Version,
		Dir:       dir,
		Wants:     m.Wants(b.cfg.IncludeDev),
		Installed: map[string]*Module{},
	}

	modulesDir := filepath.Join(dir, b.cfg.ModulesDir)
	if info, err := b.fs.Stat(modulesDir); err == nil && info.IsDir() {
		real, err := b.fs.RealPath(modulesDir)
		if err != nil {
			real = filepath.Clean(modulesDir)
		}
		for _, seen := range visited {
			if seen == real {
				logger.Warn().
					Str("path", modulesDir).
					Msg("Dependency directory already on this branch, skipping cycle")
				return mod, nil
			}
		}

		// copied, not appended in place: sibling scans run in parallel
		// and must not share the branch's backing array
		branch := make([]string, len(visited), len(visited)+1)
		copy(branch, visited)
		branch = append(branch, real)

		installed, err := b.scanModulesDir(modulesDir, branch)
		if err != nil {
			return nil, err
		}
		mod.Installed = installed
	}

	logger.Trace().
		Str("name", mod.Name).
		Str("version", mod.Version).
		Int("installed", len(mod.Installed)).
		Msg("Built module record")
	return mod, nil
}

// scanModulesDir builds a record for every package under one dependency
// directory. Entries without a manifest are namespace directories for
// scoped packages and are scanned one level deeper without producing a
// record themselves. Sibling scans are independent and fan out in
// parallel, bounded by the configured concurrency.
func (b *Builder) scanModulesDir(modulesDir string, visited []string) (map[string]*Module, error) {
	entries, err := b.fs.ReadDir(modulesDir)
	if err != nil {
		return nil, err
	}

	var (
		mu        sync.Mutex
		installed = map[string]*Module{}
		g         errgroup.Group
	)
	g.SetLimit(b.cfg.Concurrency)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == b.cfg.BinDir || name == b.cfg.StoreDir {
			continue
		}

		entryPath := filepath.Join(modulesDir, name)
		g.Go(func() error {
			if manifest.Exists(b.fs, entryPath, b.cfg.Manifest) {
				mod, err := b.buildModule(entryPath, visited)
				if err != nil {
					return err
				}
				mu.Lock()
				installed[mod.Name] = mod
				mu.Unlock()
				return nil
			}

			// namespace directory: the packages live one level down
			nested, err := b.scanModulesDir(entryPath, visited)
			if err != nil {
				return err
			}
			mu.Lock()
			for depName, mod := range nested {
				installed[depName] = mod
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return installed, nil
}
