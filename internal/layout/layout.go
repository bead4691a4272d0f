// Package layout classifies a staged archive's root layout (spec §4.4, C4).
// The classification is the sole authority on whether the installer can
// proceed directly (STANDARD/WRAPPED) or must invoke the FOMOD wizard
// (FOMOD).
package layout

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCase = cases.Fold()

// Kind is one of the four layout classifications.
type Kind string

const (
	Standard Kind = "STANDARD"
	Wrapped  Kind = "WRAPPED"
	Fomod    Kind = "FOMOD"
	Unknown  Kind = "UNKNOWN"
)

// Result is the outcome of classifying an archive's entry list.
type Result struct {
	Kind Kind
	// StripPrefix is the wrapper folder name to strip, set only when Kind == Wrapped.
	StripPrefix string
}

// normalize case-folds and converts backslashes to forward slashes, matching
// internal/manifest's NormalizePath convention. Archives from non-English
// Nexus uploaders occasionally carry non-ASCII root folder names (Cyrillic,
// Turkish dotless i); full Unicode case folding compares those names
// case-insensitively and, unlike strings.ToLower, also equates folded forms
// such as "ß" and "ss".
func normalize(p string) string {
	return foldCase.String(strings.ReplaceAll(p, "\\", "/"))
}

// Detect classifies paths (a flat list of archive entry names, files and
// directories alike) against the game's known top-level roots.
func Detect(paths []string, knownRoots []string) Result {
	roots := make(map[string]struct{}, len(knownRoots))
	for _, r := range knownRoots {
		roots[normalize(r)] = struct{}{}
	}

	for _, p := range paths {
		np := normalize(strings.TrimPrefix(p, "/"))
		if np == "" {
			continue
		}
		if strings.HasSuffix(np, "fomod/moduleconfig.xml") {
			return Result{Kind: Fomod}
		}
	}

	for _, p := range paths {
		np := normalize(strings.TrimPrefix(p, "/"))
		top := firstSegment(np)
		if _, ok := roots[top]; ok {
			return Result{Kind: Standard}
		}
	}

	// WRAPPED: the archive has exactly one distinct top-level folder, and
	// that folder's immediate children include a known root.
	topLevels := map[string]bool{}
	hasKnownChild := false
	for _, p := range paths {
		np := normalize(strings.TrimPrefix(p, "/"))
		segs := strings.Split(np, "/")
		if len(segs) == 0 || segs[0] == "" {
			continue
		}
		topLevels[segs[0]] = true
		if len(segs) >= 2 {
			if _, ok := roots[segs[1]]; ok {
				hasKnownChild = true
			}
		}
	}
	if len(topLevels) == 1 && hasKnownChild {
		var wrapper string
		for t := range topLevels {
			wrapper = t
		}
		return Result{Kind: Wrapped, StripPrefix: wrapper}
	}

	return Result{Kind: Unknown}
}

func firstSegment(p string) string {
	if idx := strings.IndexByte(p, '/'); idx >= 0 {
		return p[:idx]
	}
	return p
}
