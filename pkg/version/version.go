// Package version resolves repository tag labels into semantic versions and
// orders them.
//
// Tags are parsed as strict SemVer 2.0.0 after stripping one optional leading
// "v" or "V". Precedence follows the SemVer comparison rules: major, minor and
// patch numerically, then pre-release identifiers, with build metadata
// ignored. Comparison is delegated to golang.org/x/mod/semver.
//
// A [Release] keeps the literal tag label next to the normalized version so
// that checkout can address the tag exactly as the repository spells it.
package version

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// strictSemver is the grammar published at semver.org.
var strictSemver = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Release is a resolved semantic version paired with the tag label it was
// parsed from.
type Release struct {
	Label   string // tag name as found in the repository, e.g. "v1.2.0"
	Version string // normalized version without prefix, e.g. "1.2.0"
}

// String returns the normalized version.
func (r Release) String() string { return r.Version }

// Prerelease returns the pre-release part without the leading dash, or "".
func (r Release) Prerelease() string {
	return strings.TrimPrefix(semver.Prerelease(canonical(r.Version)), "-")
}

// Parse resolves a tag label into a Release. A single leading "v" or "V" is
// tolerated. Any other deviation from the SemVer grammar yields an
// INVALID_VERSION error carrying the label.
func Parse(label string) (Release, error) {
	v := strings.TrimSpace(label)
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}
	if !strictSemver.MatchString(v) {
		return Release{}, errors.New(errors.ErrCodeInvalidVersion, "version was invalid: %s", label)
	}
	return Release{Label: label, Version: v}, nil
}

// Valid reports whether s parses as a version.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Compare returns -1, 0 or +1 depending on the precedence of a and b.
// Releases differing only in build metadata compare equal.
func Compare(a, b Release) int {
	return CompareStrings(a.Version, b.Version)
}

// CompareStrings compares two normalized version strings. Strings that are
// not valid versions sort before all valid ones.
func CompareStrings(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// Order returns the releases sorted by ascending precedence. Releases of equal
// precedence are ordered by label so the result is fully deterministic. The
// input slice is not modified.
func Order(releases []Release) []Release {
	out := slices.Clone(releases)
	slices.SortStableFunc(out, func(a, b Release) int {
		if c := Compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
	return out
}

// Latest returns the release with the highest precedence. It fails with
// NO_TAGS_FOUND when releases is empty.
func Latest(releases []Release) (Release, error) {
	if len(releases) == 0 {
		return Release{}, errors.New(errors.ErrCodeNoTagsFound, "cannot find tags")
	}
	ordered := Order(releases)
	return ordered[len(ordered)-1], nil
}

// Max returns the highest version among versions, or "" when none is valid.
func Max(versions []string) string {
	best := ""
	for _, v := range versions {
		if !Valid(v) {
			continue
		}
		if best == "" || CompareStrings(v, best) > 0 {
			best = v
		}
	}
	return best
}

// TagName returns the label used to check out r. The literal label is used
// when the repository has it; otherwise the conventional "v" prefix is added
// to the normalized version, tolerating repositories that tag inconsistently.
func TagName(r Release, known []string) string {
	if r.Label != "" && slices.Contains(known, r.Label) {
		return r.Label
	}
	if slices.Contains(known, r.Version) {
		return r.Version
	}
	return "v" + r.Version
}

func canonical(v string) string {
	return "v" + v
}
