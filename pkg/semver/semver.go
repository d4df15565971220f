// Package semver wraps github.com/Masterminds/semver/v3 with the version
// and range semantics hoisting relies on, including the legacy numeric
// comparator used to order installed versions.
package semver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	mm "github.com/Masterminds/semver/v3"

	"github.com/ashleydavis/hoist-modules/pkg/errors"
)

// Version is a parsed semantic version
type Version struct {
	v   *mm.Version
	raw string
}

// Constraint is a parsed version range, e.g. "^1.0.0" or ">=1.2 <2.0.0"
type Constraint struct {
	c   *mm.Constraints
	raw string
}

// ParseVersion parses a dotted version string
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{}, errors.Wrapf(err, errors.ErrBadVersion, "invalid version %q", raw)
	}
	return Version{v: v, raw: raw}, nil
}

// MustParseVersion parses a version string and panics on failure, for
// constants and tests
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseConstraint parses a version range expression
func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, errors.Wrapf(err, errors.ErrBadRange, "invalid version range %q", raw)
	}
	return Constraint{c: c, raw: raw}, nil
}

// MustParseConstraint parses a range expression and panics on failure
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the original version string
func (v Version) String() string { return v.raw }

// String returns the original range expression
func (c Constraint) String() string { return c.raw }

// Satisfies reports whether version v is within range c
func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare compares a and b by semver precedence, returning -1, 0 or 1
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// This is the standards-compliant selection; the hoister deliberately does
// not use it (see ScanSatisfying in pkg/modules).
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}

// CompareNumeric compares two dotted version strings by splitting them on
// "." and comparing components pairwise as integers, most significant
// first. It is only defined for versions with equal segment counts and
// purely numeric segments; pre-release or build suffixes are not handled.
func CompareNumeric(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, _ := strconv.Atoi(as[i])
		bn, _ := strconv.Atoi(bs[i])
		if an != bn {
			if an > bn {
				return 1
			}
			return -1
		}
	}
	return 0
}

// SortDescending orders version strings highest-first using CompareNumeric
func SortDescending(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareNumeric(versions[i], versions[j]) > 0
	})
}

var versionTokenRe = regexp.MustCompile(`(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// CoerceFloor extracts the first version-looking token of a range
// expression as a concrete version, e.g. "^1.2.0" -> 1.2.0 and
// ">=2.1 <3" -> 2.1.0. A candidate strictly below this floor cannot
// satisfy the range, which lets a descending scan stop early.
func CoerceFloor(rangeExpr string) (Version, bool) {
	m := versionTokenRe.FindStringSubmatch(rangeExpr)
	if m == nil {
		return Version{}, false
	}
	major := m[1]
	minor := m[2]
	patch := m[3]
	if minor == "" {
		minor = "0"
	}
	if patch == "" {
		patch = "0"
	}
	v, err := ParseVersion(major + "." + minor + "." + patch)
	if err != nil {
		return Version{}, false
	}
	return v, true
}
