package manifest

import (
	"regexp"
	"strconv"
	"strings"

	mm "github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// Version increments accepted by Bump, in addition to an explicit version.
const (
	BumpMajor      = "major"
	BumpPremajor   = "premajor"
	BumpMinor      = "minor"
	BumpPreminor   = "preminor"
	BumpPatch      = "patch"
	BumpPrepatch   = "prepatch"
	BumpPrerelease = "prerelease"
)

var rangePrefix = regexp.MustCompile(`^(\^|~)?(?:(\d+)\.?)(?:(\d+)\.?)?(?:(\d+)\.?)?`)

// ToSemverRange widens a caret or tilde range to the form npm resolves
// most reliably: "^1.2.3" becomes "^1.x.x" and "~1.2.3" becomes "~1.2.x".
// Anything else is returned unchanged.
func ToSemverRange(version string) string {
	m := rangePrefix.FindStringSubmatch(version)
	if m == nil || m[1] == "" {
		return version
	}
	if m[1] == "^" {
		return "^" + m[2] + ".x.x"
	}
	minor := m[3]
	if minor == "" {
		minor = "x"
	}
	return "~" + m[2] + "." + minor + ".x"
}

// Satisfies reports whether version falls within the given range.
func Satisfies(version, constraint string) (bool, error) {
	v, err := mm.NewVersion(version)
	if err != nil {
		return false, errors.Wrapf(err, "semver: parse version %q", version)
	}
	c, err := mm.NewConstraint(constraint)
	if err != nil {
		return false, errors.Wrapf(err, "semver: parse constraint %q", constraint)
	}
	return c.Check(v), nil
}

// Bump computes the next version. token is one of the Bump* increments or
// an explicit semantic version.
func Bump(current, token string) (string, error) {
	switch token {
	case BumpMajor, BumpPremajor, BumpMinor, BumpPreminor, BumpPatch, BumpPrepatch, BumpPrerelease:
	default:
		explicit, err := mm.StrictNewVersion(strings.TrimPrefix(token, "v"))
		if err != nil {
			return "", errors.Newf("'%s' is not a valid version", token)
		}
		return explicit.String(), nil
	}

	v, err := mm.StrictNewVersion(current)
	if err != nil {
		return "", errors.Wrapf(err, "semver: parse version %q", current)
	}

	var next mm.Version
	switch token {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch:
		next = v.IncPatch()
	case BumpPremajor:
		next, err = withPrerelease(v.IncMajor(), "0")
	case BumpPreminor:
		next, err = withPrerelease(v.IncMinor(), "0")
	case BumpPrepatch:
		next, err = withPrerelease(clearPrerelease(v).IncPatch(), "0")
	case BumpPrerelease:
		if v.Prerelease() == "" {
			next, err = withPrerelease(v.IncPatch(), "0")
		} else {
			next, err = withPrerelease(*v, nextPrerelease(v.Prerelease()))
		}
	}
	if err != nil {
		return "", errors.Wrapf(err, "bumping %s version of %q", token, current)
	}
	return next.String(), nil
}

func withPrerelease(v mm.Version, pre string) (mm.Version, error) {
	return v.SetPrerelease(pre)
}

func clearPrerelease(v *mm.Version) *mm.Version {
	return mm.New(v.Major(), v.Minor(), v.Patch(), "", "")
}

// nextPrerelease increments the last numeric identifier of a prerelease,
// or appends ".0" when there is none.
func nextPrerelease(pre string) string {
	parts := strings.Split(pre, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(parts[i]); err == nil {
			parts[i] = strconv.Itoa(n + 1)
			return strings.Join(parts, ".")
		}
	}
	return pre + ".0"
}
