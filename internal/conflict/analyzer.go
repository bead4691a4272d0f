package conflict

import (
	"sort"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// Analyzer runs every registered Detector against one game's enabled
// installed mods and merges their evidence into one sorted result (spec
// §4.9: "the conflicts scan runs all of them and writes all results").
type Analyzer struct {
	detectors []Detector
}

// NewAnalyzer builds an Analyzer with the standard C9 detector set. The
// archive-entry detector needs no IO; the redscript and tweak detectors
// need a way to read an enabled mod's file content, supplied by the
// caller.
func NewAnalyzer(readFile RedscriptFileReader) *Analyzer {
	return &Analyzer{
		detectors: []Detector{
			NewArchiveEntryDetector(),
			NewRedscriptDetector(readFile),
			NewTweakKeyDetector(TweakFileReader(readFile)),
		},
	}
}

// NewAnalyzerWithDetectors builds an Analyzer from an explicit detector
// list, for tests or callers that want a subset.
func NewAnalyzerWithDetectors(detectors ...Detector) *Analyzer {
	return &Analyzer{detectors: detectors}
}

// Analyze runs every registered detector and returns the merged evidence,
// sorted by severity (high first), then kind, then key.
func (a *Analyzer) Analyze(game model.Game, mods []model.InstalledMod) ([]model.ConflictEvidence, error) {
	var all []model.ConflictEvidence
	for _, d := range a.detectors {
		evidence, err := d.Detect(game, mods)
		if err != nil {
			return nil, err
		}
		all = append(all, evidence...)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Severity != all[j].Severity {
			return severityRank(all[i].Severity) > severityRank(all[j].Severity)
		}
		if all[i].Kind != all[j].Kind {
			return all[i].Kind < all[j].Kind
		}
		return all[i].Key < all[j].Key
	})

	return all, nil
}
