package modules

import (
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ashleydavis/hoist-modules/pkg/config"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
	"github.com/ashleydavis/hoist-modules/pkg/logging"
)

// Hoister walks a dependency tree depth-first and materializes the
// flattened copy of it under the target root. One hoister serves one
// run; the copy map must not be reused.
type Hoister struct {
	fs         filesystem.FS
	cfg        config.Config
	copier     *Copier
	store      StoreIndex
	targetRoot string
	logger     zerolog.Logger

	// copied maps package name to the single module placed at the target
	// root for that name. It is the authority for "already hoisted, and
	// at what version", grows monotonically, and is only touched from
	// the sequential dependency loop.
	copied map[string]*Module

	// unresolved counts dependencies skipped because nothing satisfied
	// their range
	unresolved int
}

// NewHoister creates a hoister for one run
func NewHoister(fsys filesystem.FS, cfg config.Config, store StoreIndex, targetRoot string) *Hoister {
	return &Hoister{
		fs:         fsys,
		cfg:        cfg,
		copier:     NewCopier(fsys, cfg),
		store:      store,
		targetRoot: targetRoot,
		logger:     logging.GetLogger("modules.hoist"),
		copied:     map[string]*Module{},
	}
}

// Hoist flattens the dependency tree rooted at root into the target
// root and returns the number of packages physically copied. Unresolved
// dependencies are logged and skipped; only I/O failures abort.
func (h *Hoister) Hoist(root *Module) (int, error) {
	if err := h.fs.MkdirAll(h.targetRoot, 0755); err != nil {
		return 0, err
	}
	// the root package is not copied; conflicts against a root-level
	// requirement nest under the target root itself
	root.TargetDir = h.targetRoot
	return h.hoistDeps(root, h.targetRoot, Chain{root})
}

// Unresolved returns the number of dependencies skipped this run
func (h *Hoister) Unresolved() int {
	return h.unresolved
}

// hoistDeps resolves and places every dependency pkg wants, then
// recurses into each placed copy. pkgTargetDir is where this placement
// of pkg physically lives; conflicts nest beneath it. It is passed
// explicitly because one source record can be conflict-nested under
// several requirers, and each placement must anchor its own
// dependencies. The loop is strictly sequential: every decision reads
// and then may grow the shared copy map, and that ordering is the
// mutual exclusion. Names are processed in sorted order so repeated
// runs place conflicts identically.
func (h *Hoister) hoistDeps(pkg *Module, pkgTargetDir string, chain Chain) (int, error) {
	names := make([]string, 0, len(pkg.Wants))
	for name := range pkg.Wants {
		names = append(names, name)
	}
	sort.Strings(names)

	copied := 0
	for _, name := range names {
		rangeExpr := pkg.Wants[name]

		src, ok := h.resolveSource(pkg, name, rangeExpr, chain)
		if !ok {
			continue
		}

		n, err := h.place(pkgTargetDir, src, rangeExpr, chain)
		if err != nil {
			return copied, err
		}
		copied += n
	}
	return copied, nil
}

// resolveSource picks the module record whose directory will be copied:
// the requirer's own installed copy when present, otherwise the best
// store candidate for the range. Failures are logged with the requirer
// chain and reported as not-ok so siblings continue.
func (h *Hoister) resolveSource(pkg *Module, name, rangeExpr string, chain Chain) (*Module, bool) {
	if local, ok := pkg.Installed[name]; ok {
		return local, true
	}

	versions, ok := h.store[name]
	if !ok {
		h.unresolved++
		h.logger.Warn().
			Str("name", name).
			Str("range", rangeExpr).
			Str("requiredBy", chain.String()).
			Msg("Package not installed and absent from store, skipping")
		return nil, false
	}

	version, ok := ScanSatisfying(rangeExpr, h.store.Versions(name))
	if !ok {
		h.unresolved++
		h.logger.Warn().
			Str("name", name).
			Str("range", rangeExpr).
			Int("candidates", len(versions)).
			Str("requiredBy", chain.String()).
			Msg("No store version satisfies range, skipping")
		return nil, false
	}
	return versions[version], true
}

// place decides the physical location for src and copies it there:
// first requirer of a name hoists it to the target root, compatible
// followers reuse that copy, and an incompatible follower gets a
// private nested copy under requirerTargetDir. After a copy the new
// package's dependencies are processed depth-first, anchored at the
// copy just made.
func (h *Hoister) place(requirerTargetDir string, src *Module, rangeExpr string, chain Chain) (int, error) {
	existing, hoisted := h.copied[src.Name]

	if hoisted && rangeSatisfiedBy(rangeExpr, existing.Version) {
		h.logger.Debug().
			Str("name", src.Name).
			Str("version", existing.Version).
			Str("range", rangeExpr).
			Msg("Reusing hoisted copy")
		return 0, nil
	}

	var dest string
	if !hoisted {
		dest = filepath.Join(h.targetRoot, src.Name)
	} else {
		// version conflict: isolate this copy in the requirer's own
		// dependency directory, leaving the root-level entry alone
		dest = filepath.Join(requirerTargetDir, h.cfg.ModulesDir, src.Name)
		h.logger.Debug().
			Str("name", src.Name).
			Str("hoisted", existing.Version).
			Str("wanted", rangeExpr).
			Str("dest", dest).
			Msg("Version conflict, nesting private copy")
	}

	if err := h.copier.CopyDir(src.Dir, dest); err != nil {
		return 0, err
	}
	if src.TargetDir == "" {
		src.TargetDir = dest
	}
	if !hoisted {
		h.copied[src.Name] = src
	}

	h.logger.Debug().
		Str("name", src.Name).
		Str("version", src.Version).
		Str("dest", dest).
		Msg("Copied package")

	copied, err := h.hoistDeps(src, dest, chain.Extend(src))
	return copied + 1, err
}
