// Package filesystem provides the filesystem abstraction used by the
// tree builder, store indexer and copier, with OS and afero-backed
// implementations. Tests run against an in-memory afero filesystem.
package filesystem

import "io/fs"

// DefaultFileMode is used when a source file's mode cannot be read
const DefaultFileMode fs.FileMode = 0644

// FS is the set of filesystem operations hoisting performs.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
	RemoveAll(path string) error

	// RealPath returns the canonical path with symlinks resolved, used to
	// detect self-referential dependency directories during traversal.
	RealPath(name string) (string, error)
}
