// Package conflict detects RED-engine resource and script collisions
// between installed mods (spec §4.8-4.9, C8/C9). Detectors share a common
// interface; the analyzer runs every registered detector and merges their
// evidence into one sorted result.
package conflict

import "github.com/Y4rd13/rippermod-manager-sub000/internal/model"

// Detector produces ConflictEvidence for one game's set of enabled
// installed mods. Detectors are registered at startup; a conflicts scan
// runs all of them and writes all results (spec §4.9).
type Detector interface {
	Name() string
	Detect(game model.Game, mods []model.InstalledMod) ([]model.ConflictEvidence, error)
}

// RED-engine path-prefix severity classes (archive-entry detector, spec
// §4.9): archive/pc/mod and bin/x64/plugins are high, r6/scripts, r6/tweaks
// and mods are medium, everything else is low.
var (
	highSeverityPrefixes = []string{"archive/pc/mod", "bin/x64/plugins"}
	mediumSeverityPrefixes = []string{"r6/scripts", "r6/tweaks", "mods"}
)

func severityForPathPrefix(path string) model.Severity {
	for _, p := range highSeverityPrefixes {
		if hasPathPrefix(path, p) {
			return model.SeverityHigh
		}
	}
	for _, p := range mediumSeverityPrefixes {
		if hasPathPrefix(path, p) {
			return model.SeverityMedium
		}
	}
	return model.SeverityLow
}

func hasPathPrefix(path, prefix string) bool {
	np := normalizePath(path)
	pp := normalizePath(prefix)
	return np == pp || len(np) > len(pp) && np[:len(pp)+1] == pp+"/"
}

func normalizePath(p string) string {
	out := make([]byte, 0, len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '\\' {
			c = '/'
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
