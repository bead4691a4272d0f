// Package filenameparser extracts a mod id, version, and upload timestamp
// from a staged archive's filename (spec §4.1, C1).
//
// The parser is pure and total: every input string, however malformed,
// returns a ParsedName value with possibly-empty fields. There is nothing
// to fail on.
package filenameparser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedName is the result of parsing a staged archive's filename.
type ParsedName struct {
	NexusModID      int64 // 0 when absent
	Name            string
	Version         string // empty when absent
	UploadTimestamp int64  // unix seconds, 0 when absent
}

// digitGroup matches one run of ASCII digits.
var digitGroup = regexp.MustCompile(`\d+`)

// dashSplit splits a stem into the dash-separated fields that the Nexus CDN
// shape check inspects.
var dashSplit = regexp.MustCompile(`-`)

// simpleIDName matches "{id}[-_]{Name}".
var simpleIDName = regexp.MustCompile(`^(\d+)[-_](.+)$`)

const (
	minUploadTs = 1_000_000_000
	maxUploadTs = 2_000_000_000
)

// Parse recognises three shapes, tried in priority order:
//
//  1. Nexus CDN: Name-{id}-{ver1}-{ver2}-...-{unixTs}.ext, where the
//     terminal 10-digit group in [1e9, 2e9) is the upload timestamp and the
//     first all-digit group after the name is the mod id; everything between mod
//     id and timestamp is the version, with dashes mapped to dots.
//  2. Simple id-name: {id}[-_]{Name}.ext
//  3. Plain: {Name}.ext, no id/version/timestamp.
func Parse(filename string) ParsedName {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filepath.Base(filename), ext)

	if parsed, ok := parseNexusCDN(stem); ok {
		return parsed
	}
	if parsed, ok := parseSimpleIDName(stem); ok {
		return parsed
	}
	return ParsedName{Name: stem}
}

func parseNexusCDN(stem string) (ParsedName, bool) {
	fields := dashSplit.Split(stem, -1)
	if len(fields) < 3 {
		return ParsedName{}, false
	}

	// Terminal field must be a 10-digit group in the plausible unix-ts range.
	last := fields[len(fields)-1]
	if !isAllDigits(last) || len(last) != 10 {
		return ParsedName{}, false
	}
	ts, err := strconv.ParseInt(last, 10, 64)
	if err != nil || ts < minUploadTs || ts >= maxUploadTs {
		return ParsedName{}, false
	}

	// The mod id is the first all-digit field after the name prefix; the
	// version, if present, is everything between the id and the timestamp.
	idIdx := -1
	for i := 0; i < len(fields)-1; i++ {
		if isAllDigits(fields[i]) {
			idIdx = i
			break
		}
	}
	if idIdx <= 0 {
		return ParsedName{}, false
	}
	modID, err := strconv.ParseInt(fields[idIdx], 10, 64)
	if err != nil {
		return ParsedName{}, false
	}

	name := strings.Join(fields[:idIdx], "-")

	var version string
	if versionFields := fields[idIdx+1 : len(fields)-1]; len(versionFields) > 0 {
		version = strings.Join(versionFields, ".")
	}

	return ParsedName{
		NexusModID:      modID,
		Name:            name,
		Version:         version,
		UploadTimestamp: ts,
	}, true
}

func parseSimpleIDName(stem string) (ParsedName, bool) {
	m := simpleIDName.FindStringSubmatch(stem)
	if m == nil {
		return ParsedName{}, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ParsedName{}, false
	}
	if m[2] == "" {
		return ParsedName{}, false
	}
	return ParsedName{NexusModID: id, Name: m[2]}, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	return digitGroup.MatchString(s) && digitGroup.FindString(s) == s
}

// versionToken is one dot-separated segment of a version string: its raw
// text and, when the whole token is digits, its numeric value.
type versionToken struct {
	numeric bool
	num     int64
	raw     string
}

// IsNewer reports whether a is a newer version than b, using semver-like
// comparison: numeric-major beats lexicographic ("0.15.0" > "0.2.0"), and an
// empty suffix is newer than any non-empty prerelease suffix ("1.0" >
// "1.0-beta"). Two equal versions are never "newer" than each other,
// establishing a strict order: IsNewer(a,a) == false, and IsNewer is
// transitive.
func IsNewer(a, b string) bool {
	return compareVersions(a, b) > 0
}

// compareVersions returns <0, 0, >0 as a compares before/equal/after b.
func compareVersions(a, b string) int {
	aCore, aSuffix := splitPrerelease(a)
	bCore, bSuffix := splitPrerelease(b)

	aParts := strings.Split(aCore, ".")
	bParts := strings.Split(bCore, ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}
	for i := 0; i < n; i++ {
		var ap, bp string
		if i < len(aParts) {
			ap = aParts[i]
		}
		if i < len(bParts) {
			bp = bParts[i]
		}
		if c := compareSegment(ap, bp); c != 0 {
			return c
		}
	}

	// Core versions are equal; empty suffix outranks any non-empty suffix.
	if aSuffix == "" && bSuffix != "" {
		return 1
	}
	if aSuffix != "" && bSuffix == "" {
		return -1
	}
	if aSuffix == bSuffix {
		return 0
	}
	if aSuffix < bSuffix {
		return -1
	}
	return 1
}

func splitPrerelease(v string) (core, suffix string) {
	if idx := strings.IndexByte(v, '-'); idx >= 0 {
		return v[:idx], v[idx+1:]
	}
	return v, ""
}

func compareSegment(a, b string) int {
	aNum, aIsNum := tryParseInt(a)
	bNum, bIsNum := tryParseInt(b)

	switch {
	case aIsNum && bIsNum:
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	case aIsNum && !bIsNum:
		// Numeric beats lexicographic/missing.
		if b == "" {
			if aNum == 0 {
				return 0
			}
			return 1
		}
		return 1
	case !aIsNum && bIsNum:
		if a == "" {
			if bNum == 0 {
				return 0
			}
			return -1
		}
		return -1
	default:
		if a == b {
			return 0
		}
		if a < b {
			return -1
		}
		return 1
	}
}

func tryParseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
