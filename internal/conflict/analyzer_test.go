package conflict

import (
	"testing"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

func TestAnalyzerSortsBySeverityThenKindThenKey(t *testing.T) {
	game := model.Game{ID: 1}
	mods := []model.InstalledMod{
		{
			ID: 1,
			Files: []model.InstalledModFile{
				{RelativePath: "r6/scripts/a.reds"},
				{RelativePath: "mods/a/low.txt"},
			},
		},
		{
			ID: 2,
			Files: []model.InstalledModFile{
				{RelativePath: "r6/scripts/a.reds"},
				{RelativePath: "mods/a/low.txt"},
			},
		},
	}

	readFile := func(modID int64, path string) (string, error) {
		return "@wrapMethod(Foo)\nfunc Bar() -> Void {}\n", nil
	}

	a := NewAnalyzer(readFile)
	evidence, err := a.Analyze(game, mods)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(evidence) == 0 {
		t.Fatal("expected at least one conflict")
	}
	for i := 1; i < len(evidence); i++ {
		if severityRank(evidence[i-1].Severity) < severityRank(evidence[i].Severity) {
			t.Errorf("expected descending severity order, got %v before %v", evidence[i-1].Severity, evidence[i].Severity)
		}
		prev, cur := evidence[i-1], evidence[i]
		if prev.Severity == cur.Severity && (prev.Kind > cur.Kind || (prev.Kind == cur.Kind && prev.Key > cur.Key)) {
			t.Errorf("expected kind then key order within one severity, got %v/%s before %v/%s", prev.Kind, prev.Key, cur.Kind, cur.Key)
		}
	}
}

func TestAnalyzerWithDetectorsRunsOnlyGivenDetectors(t *testing.T) {
	game := model.Game{ID: 1}
	mods := []model.InstalledMod{
		{ID: 1, Files: []model.InstalledModFile{{RelativePath: "mods/a/x.lua"}}},
		{ID: 2, Files: []model.InstalledModFile{{RelativePath: "mods/a/x.lua"}}},
	}
	a := NewAnalyzerWithDetectors(NewArchiveEntryDetector())
	evidence, err := a.Analyze(game, mods)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(evidence) != 1 || evidence[0].Kind != model.ConflictArchiveEntry {
		t.Fatalf("expected 1 archive_entry conflict, got %+v", evidence)
	}
}
