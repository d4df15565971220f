package modules

import (
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ashleydavis/hoist-modules/pkg/config"
	"github.com/ashleydavis/hoist-modules/pkg/errors"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
)

// Copier performs the physical directory copies decided by the hoister.
type Copier struct {
	fs  filesystem.FS
	cfg config.Config
}

// NewCopier creates a copier over the given filesystem
func NewCopier(fsys filesystem.FS, cfg config.Config) *Copier {
	return &Copier{fs: fsys, cfg: cfg}
}

// CopyDir recursively copies every entry of src into dest, creating
// destination directories as needed. The dependency directory is never
// carried along: dependency subtrees are placed explicitly by the
// hoister, one resolution decision per copy. Sibling entries share no
// state and are copied in parallel, bounded by the configured
// concurrency.
func (c *Copier) CopyDir(src, dest string) error {
	if err := c.fs.MkdirAll(dest, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create directory %s", dest)
	}

	entries, err := c.fs.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read directory %s", src)
	}

	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)

	for _, entry := range entries {
		entry := entry
		name := entry.Name()
		if entry.IsDir() && name == c.cfg.ModulesDir {
			continue
		}

		srcPath := filepath.Join(src, name)
		destPath := filepath.Join(dest, name)
		g.Go(func() error {
			if entry.IsDir() {
				return c.CopyDir(srcPath, destPath)
			}
			// a symlink to a directory lists as a non-dir entry; follow
			// it so linked layouts are materialized as real files
			if info, err := c.fs.Stat(srcPath); err == nil && info.IsDir() {
				return c.CopyDir(srcPath, destPath)
			}
			return c.copyFile(srcPath, destPath)
		})
	}

	return g.Wait()
}

func (c *Copier) copyFile(src, dest string) error {
	data, err := c.fs.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCopy, "cannot read %s", src)
	}

	perm := filesystem.DefaultFileMode
	if info, err := c.fs.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}

	if err := c.fs.WriteFile(dest, data, perm); err != nil {
		return errors.Wrapf(err, errors.ErrFileCopy, "cannot write %s", dest)
	}
	return nil
}
