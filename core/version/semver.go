// Package version computes pipeline versions and owns the output
// directory tree. Version directories are immutable once written; only
// the latest pointer record is ever replaced, and only after every file
// of the new version is durably on disk.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/santoshpalla27/aws-frontend-estimation/core/diff"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

// Semver is a three-part semantic version
type Semver struct {
	Major int
	Minor int
	Patch int
}

// ParseSemver parses "major.minor.patch"
func ParseSemver(s string) (Semver, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Semver{}, errors.Newf(errors.TypeParsing, "malformed version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Semver{}, errors.Newf(errors.TypeParsing, "malformed version %q", s)
		}
		nums[i] = n
	}
	return Semver{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the dotted form
func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less orders versions by major, then minor, then patch
func (v Semver) Less(o Semver) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// Bump advances the version by the given severity, zeroing the lower
// parts
func (v Semver) Bump(b diff.Bump) Semver {
	switch b {
	case diff.BumpMajor:
		return Semver{Major: v.Major + 1}
	case diff.BumpMinor:
		return Semver{Major: v.Major, Minor: v.Minor + 1}
	default:
		return Semver{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}
