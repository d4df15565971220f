package modules

import (
	"github.com/ashleydavis/hoist-modules/pkg/config"
	"github.com/ashleydavis/hoist-modules/pkg/errors"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
	"github.com/ashleydavis/hoist-modules/pkg/logging"
)

// Stats summarizes one hoist run.
type Stats struct {
	// Processed is the number of modules discovered in the source tree
	Processed int
	// Copied is the number of packages physically copied, root and
	// nested
	Copied int
	// Unresolved is the number of dependencies skipped because nothing
	// satisfied their range
	Unresolved int
}

// Run hoists the dependency tree at source into target.
//
// A pre-existing target is a fatal precondition failure unless Force is
// set, in which case it is removed first. The store index and the
// dependency tree are built independently, then the hoister consumes
// both.
func Run(fsys filesystem.FS, cfg config.Config, source, target string) (Stats, error) {
	logger := logging.GetLogger("modules.run")

	if _, err := fsys.Stat(target); err == nil {
		if !cfg.Force {
			return Stats{}, errors.Newf(errors.ErrTargetExists,
				"target directory %s already exists, use --force to overwrite", target).
				WithDetail("target", target)
		}
		logger.Info().Str("target", target).Msg("Removing existing target directory")
		if err := fsys.RemoveAll(target); err != nil {
			return Stats{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot remove target %s", target)
		}
	}

	builder := NewBuilder(fsys, cfg)

	index, err := builder.BuildStoreIndex(source)
	if err != nil {
		return Stats{}, err
	}

	root, err := builder.BuildTree(source)
	if err != nil {
		return Stats{}, err
	}
	processed := CountModules(root)
	logger.Info().
		Str("root", root.Name).
		Int("modules", processed).
		Msg("Built dependency tree")

	hoister := NewHoister(fsys, cfg, index, target)
	copied, err := hoister.Hoist(root)
	stats := Stats{
		Processed:  processed,
		Copied:     copied,
		Unresolved: hoister.Unresolved(),
	}
	if err != nil {
		return stats, err
	}

	logger.Info().
		Int("processed", stats.Processed).
		Int("copied", stats.Copied).
		Int("unresolved", stats.Unresolved).
		Msg("Hoisting complete")
	return stats, nil
}
