package modules

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ashleydavis/hoist-modules/pkg/logging"
)

// FindStore locates the shared package store by ascending from
// sourceRoot, testing <dir>/<modulesDir>/<storeDir> at each level. The
// search ends at the first hit, or at the filesystem root (a directory
// whose parent is itself) with no store found.
func (b *Builder) FindStore(sourceRoot string) (string, bool) {
	dir := filepath.Clean(sourceRoot)
	for {
		candidate := filepath.Join(dir, b.cfg.ModulesDir, b.cfg.StoreDir)
		if info, err := b.fs.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// BuildStoreIndex enumerates every entry of the shared store and indexes
// the dependencies installed inside each entry's own dependency
// directory. The entry itself is never indexed: the store houses
// content-addressed copies of dependencies, not root packages. Without a
// store the returned index is empty, which simply disables the fallback.
func (b *Builder) BuildStoreIndex(sourceRoot string) (StoreIndex, error) {
	logger := logging.GetLogger("modules.store")

	index := StoreIndex{}
	storeDir, found := b.FindStore(sourceRoot)
	if !found {
		logger.Debug().Str("source", sourceRoot).Msg("No package store found")
		return index, nil
	}
	logger.Debug().Str("store", storeDir).Msg("Found package store")

	entries, err := b.fs.ReadDir(storeDir)
	if err != nil {
		return nil, err
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(b.cfg.Concurrency)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		entryModules := filepath.Join(storeDir, entry.Name(), b.cfg.ModulesDir)
		g.Go(func() error {
			if info, err := b.fs.Stat(entryModules); err != nil || !info.IsDir() {
				return nil
			}
			real, err := b.fs.RealPath(entryModules)
			if err != nil {
				real = filepath.Clean(entryModules)
			}
			discovered, err := b.scanModulesDir(entryModules, []string{real})
			if err != nil {
				return err
			}
			mu.Lock()
			for _, mod := range discovered {
				index.Add(mod)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info().Int("names", len(index)).Msg("Built store index")
	return index, nil
}
