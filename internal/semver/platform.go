package semver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// PlatformVersion is the canonical form of a "major.minor" platform SDK
// version, encoded as major*10 + minor. "8.0" encodes to 80, "13.0" to 130.
// The zero value means "unset".
type PlatformVersion int

var rePlatformVersion = regexp.MustCompile(`^([0-9]+)\.([0-9])$`)

// ParsePlatformVersion canonicalizes a "major.minor" string where minor is a
// single digit. Anything else is rejected; callers fall back to their
// documented default and warn.
func ParsePlatformVersion(raw string) (PlatformVersion, error) {
	m := rePlatformVersion.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("semver: platform version %q does not match major.minor", raw)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return PlatformVersion(major*10 + minor), nil
}

func (p PlatformVersion) IsSet() bool {
	return p != 0
}

// String renders the canonical "major.minor" form.
func (p PlatformVersion) String() string {
	return fmt.Sprintf("%d.%d", int(p)/10, int(p)%10)
}

// MinimumEntry associates one logical dependency key with the minimum platform
// version it requires.
type MinimumEntry struct {
	Key     string
	Minimum PlatformVersion
}

// Buckets groups logical keys by required minimum platform version.
type Buckets struct {
	byVersion map[PlatformVersion][]string
	versions  []PlatformVersion
}

// BucketByMinimum groups entries by their minimum platform version. Entries
// with an unset minimum are skipped. Bucket membership preserves input order.
func BucketByMinimum(entries []MinimumEntry) Buckets {
	byVersion := make(map[PlatformVersion][]string)
	for _, e := range entries {
		if !e.Minimum.IsSet() {
			continue
		}
		byVersion[e.Minimum] = append(byVersion[e.Minimum], e.Key)
	}
	versions := make([]PlatformVersion, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return Buckets{byVersion: byVersion, versions: versions}
}

// Versions returns the bucket versions in ascending order.
func (b Buckets) Versions() []PlatformVersion {
	return b.versions
}

// Members returns the logical keys requiring exactly v.
func (b Buckets) Members(v PlatformVersion) []string {
	return b.byVersion[v]
}

// Highest returns the single highest required platform version and the keys
// that require it. Lower buckets are informational only; this is the bucket
// that drives a platform-bump prompt.
func (b Buckets) Highest() (PlatformVersion, []string, bool) {
	if len(b.versions) == 0 {
		return 0, nil, false
	}
	top := b.versions[len(b.versions)-1]
	return top, b.byVersion[top], true
}
