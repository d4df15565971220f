// Package modules implements the core of hoist-modules: building the
// on-disk dependency tree, indexing the shared package store, resolving
// required version ranges against installed candidates, and executing
// the flattened copy plan.
package modules

import "strings"

// Module represents one installed package on disk.
type Module struct {
	// Name is the package identifier, possibly scoped ("@scope/name")
	Name string
	// Version as declared in the package manifest, immutable once read
	Version string
	// Dir is the package's on-disk source location
	Dir string
	// Wants maps dependency name to required version range
	Wants map[string]string
	// Installed maps dependency name to the module found in this
	// package's own nested dependency directory
	Installed map[string]*Module
	// TargetDir is assigned exactly once, when hoisting places a
	// physical copy of this module
	TargetDir string
}

// StoreIndex maps package name to version to the module found in the
// shared package store. Built once per run, read-only afterwards.
type StoreIndex map[string]map[string]*Module

// Add records a module under its name and version
func (idx StoreIndex) Add(m *Module) {
	versions, ok := idx[m.Name]
	if !ok {
		versions = make(map[string]*Module)
		idx[m.Name] = versions
	}
	versions[m.Version] = m
}

// Versions returns the known version strings for a package name
func (idx StoreIndex) Versions(name string) []string {
	versions := make([]string, 0, len(idx[name]))
	for v := range idx[name] {
		versions = append(versions, v)
	}
	return versions
}

// Chain is the requirer path from the tree root to the package being
// resolved. It only feeds diagnostics, never resolution.
type Chain []*Module

// Extend returns a new chain with m appended, leaving the receiver
// untouched for sibling iterations
func (c Chain) Extend(m *Module) Chain {
	extended := make(Chain, len(c), len(c)+1)
	copy(extended, c)
	return append(extended, m)
}

// String renders the chain as "name@version > name@version"
func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, m := range c {
		parts[i] = m.Name + "@" + m.Version
	}
	return strings.Join(parts, " > ")
}

// CountModules returns the number of modules in the tree rooted at m,
// including m itself
func CountModules(m *Module) int {
	count := 1
	for _, dep := range m.Installed {
		count += CountModules(dep)
	}
	return count
}
