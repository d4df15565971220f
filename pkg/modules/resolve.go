package modules

import (
	"github.com/ashleydavis/hoist-modules/pkg/semver"
)

// ScanSatisfying selects the version to use for rangeExpr out of
// candidates.
//
// Candidates are sorted descending with the numeric comparator and
// scanned from highest to lowest. A non-satisfying candidate that is
// strictly below the range's coerced floor stops the scan, since no
// lower candidate can help. A satisfying candidate is recorded and the
// scan continues, so a later, lower satisfying candidate overwrites an
// earlier, higher one: the result is the lowest satisfying version above
// the stop threshold, not the highest. That last-match behavior is
// inherited from the original tool and kept deliberately; the
// standards-compliant alternative is semver.MaxSatisfying.
func ScanSatisfying(rangeExpr string, candidates []string) (string, bool) {
	constraint, err := semver.ParseConstraint(rangeExpr)
	if err != nil {
		return "", false
	}
	floor, hasFloor := semver.CoerceFloor(rangeExpr)

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	semver.SortDescending(sorted)

	best := ""
	found := false
	for _, candidate := range sorted {
		v, err := semver.ParseVersion(candidate)
		if err != nil {
			continue
		}
		if semver.Satisfies(v, constraint) {
			best = candidate
			found = true
			continue
		}
		if hasFloor && semver.Compare(v, floor) < 0 {
			break
		}
	}
	return best, found
}

// rangeSatisfiedBy reports whether the concrete version satisfies
// rangeExpr. Unparsable input never satisfies.
func rangeSatisfiedBy(rangeExpr, version string) bool {
	constraint, err := semver.ParseConstraint(rangeExpr)
	if err != nil {
		return false
	}
	v, err := semver.ParseVersion(version)
	if err != nil {
		return false
	}
	return semver.Satisfies(v, constraint)
}
