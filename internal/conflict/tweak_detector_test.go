package conflict

import (
	"testing"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

func TestParseTweakFileYAMLAppendTag(t *testing.T) {
	src := `
Items.FirstAidWhiffV0.stackable: !append
  - true
`
	entries, err := ParseTweakFile("mytweak.yaml", src)
	if err != nil {
		t.Fatalf("ParseTweakFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", entries)
	}
	if entries[0].Op != TweakOpAppend {
		t.Errorf("expected APPEND op from !append tag, got %v", entries[0].Op)
	}
}

func TestParseTweakFileYAMLPlainSet(t *testing.T) {
	src := `
Items.FirstAidWhiffV0.price: 500
`
	entries, err := ParseTweakFile("mytweak.yml", src)
	if err != nil {
		t.Fatalf("ParseTweakFile: %v", err)
	}
	if len(entries) != 1 || entries[0].Op != TweakOpSet {
		t.Fatalf("expected 1 SET entry, got %+v", entries)
	}
}

func TestParseTweakFileDotTweakLineFormat(t *testing.T) {
	src := "Items.FirstAidWhiffV0.price += 10\nItems.Other.name = \"Foo\"\n"
	entries, err := ParseTweakFile("mytweak.tweak", src)
	if err != nil {
		t.Fatalf("ParseTweakFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Op != TweakOpAppend {
		t.Errorf("expected += to parse as APPEND, got %v", entries[0].Op)
	}
	if entries[1].Op != TweakOpSet {
		t.Errorf("expected = to parse as SET, got %v", entries[1].Op)
	}
}

func TestPairSeverityTable(t *testing.T) {
	cases := []struct {
		a, b TweakEntry
		want model.Severity
	}{
		{TweakEntry{Op: TweakOpSet, Value: "1"}, TweakEntry{Op: TweakOpSet, Value: "1"}, model.SeverityLow},
		{TweakEntry{Op: TweakOpSet, Value: "1"}, TweakEntry{Op: TweakOpSet, Value: "2"}, model.SeverityHigh},
		{TweakEntry{Op: TweakOpSet, Value: "1"}, TweakEntry{Op: TweakOpAppend, Value: "2"}, model.SeverityMedium},
		{TweakEntry{Op: TweakOpSet, Value: "1"}, TweakEntry{Op: TweakOpRemove, Value: "2"}, model.SeverityMedium},
		{TweakEntry{Op: TweakOpAppend, Value: "x"}, TweakEntry{Op: TweakOpRemove, Value: "x"}, model.SeverityMedium},
		{TweakEntry{Op: TweakOpAppend, Value: "x"}, TweakEntry{Op: TweakOpAppend, Value: "y"}, model.Severity("")},
		{TweakEntry{Op: TweakOpAppend, Value: "x"}, TweakEntry{Op: TweakOpRemove, Value: "y"}, model.Severity("")},
	}
	for i, tc := range cases {
		got := pairSeverity(tc.a, tc.b)
		if got != tc.want {
			t.Errorf("case %d: pairSeverity(%+v, %+v) = %q, want %q", i, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTweakKeyDetectorLowWhenAllAppends(t *testing.T) {
	game := model.Game{ID: 1}
	mods := []model.InstalledMod{
		{ID: 1, Files: []model.InstalledModFile{{RelativePath: "r6/tweaks/a.yaml"}}},
		{ID: 2, Files: []model.InstalledModFile{{RelativePath: "r6/tweaks/b.yaml"}}},
	}
	reader := func(modID int64, path string) (string, error) {
		return "Items.Foo.tags: !append\n  - Junk\n", nil
	}
	det := NewTweakKeyDetector(reader)
	evidence, err := det.Detect(game, mods)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(evidence) != 1 || evidence[0].Severity != model.SeverityLow {
		t.Fatalf("expected single low-severity conflict, got %+v", evidence)
	}
}

func TestTweakKeyDetectorHighOnConflictingSet(t *testing.T) {
	game := model.Game{ID: 1}
	mods := []model.InstalledMod{
		{ID: 1, Files: []model.InstalledModFile{{RelativePath: "r6/tweaks/a.yaml"}}},
		{ID: 2, Files: []model.InstalledModFile{{RelativePath: "r6/tweaks/b.yaml"}}},
	}
	reader := func(modID int64, path string) (string, error) {
		if modID == 1 {
			return "Items.Foo.price: 100\n", nil
		}
		return "Items.Foo.price: 200\n", nil
	}
	det := NewTweakKeyDetector(reader)
	evidence, err := det.Detect(game, mods)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(evidence) != 1 || evidence[0].Severity != model.SeverityHigh {
		t.Fatalf("expected single high-severity conflict, got %+v", evidence)
	}
}
