package conflict

import (
	"testing"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

func TestParseRedscriptAnnotationsPairsWithFollowingFunc(t *testing.T) {
	src := `
@wrapMethod(PlayerPuppet)
func OnAction(action: ref<ListenerAction>) -> Void {
  // ...
}
`
	anns := ParseRedscriptAnnotations(src)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation, got %d: %+v", len(anns), anns)
	}
	if anns[0].Kind != AnnotationWrapMethod || anns[0].Class != "PlayerPuppet" || anns[0].Name != "OnAction" {
		t.Errorf("unexpected annotation: %+v", anns[0])
	}
}

func TestParseRedscriptAnnotationsRespectsLookaheadWindow(t *testing.T) {
	src := "@addMethod(Foo)\n" + repeatBlank(12) + "func Bar() -> Void {}\n"
	anns := ParseRedscriptAnnotations(src)
	if len(anns) != 0 {
		t.Errorf("expected no pairing beyond the 10-line lookahead, got %+v", anns)
	}
}

func repeatBlank(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "\n"
	}
	return s
}

func TestRedscriptDetectorFlagsSharedTarget(t *testing.T) {
	game := model.Game{ID: 1}
	mods := []model.InstalledMod{
		{ID: 1, Files: []model.InstalledModFile{{RelativePath: "r6/scripts/a.reds"}}},
		{ID: 2, Files: []model.InstalledModFile{{RelativePath: "r6/scripts/b.reds"}}},
	}
	reader := func(modID int64, path string) (string, error) {
		if modID == 1 {
			return "@wrapMethod(PlayerPuppet)\nfunc OnAction() -> Void {}\n", nil
		}
		return "@addMethod(PlayerPuppet)\nfunc OnAction() -> Void {}\n", nil
	}
	det := NewRedscriptDetector(reader)
	evidence, err := det.Detect(game, mods)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(evidence) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", evidence)
	}
	if evidence[0].Severity != model.SeverityHigh {
		t.Errorf("expected high severity since one annotation is wrap, got %v", evidence[0].Severity)
	}
	if evidence[0].Key != "playerpuppet.onaction" {
		t.Errorf("unexpected key: %q", evidence[0].Key)
	}
}

func TestRedscriptDetectorMediumWhenNoWrapOrReplace(t *testing.T) {
	game := model.Game{ID: 1}
	mods := []model.InstalledMod{
		{ID: 1, Files: []model.InstalledModFile{{RelativePath: "r6/scripts/a.reds"}}},
		{ID: 2, Files: []model.InstalledModFile{{RelativePath: "r6/scripts/b.reds"}}},
	}
	reader := func(modID int64, path string) (string, error) {
		return "@addMethod(Foo)\nfunc Bar() -> Void {}\n", nil
	}
	det := NewRedscriptDetector(reader)
	evidence, err := det.Detect(game, mods)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(evidence) != 1 || evidence[0].Severity != model.SeverityMedium {
		t.Fatalf("expected medium severity, got %+v", evidence)
	}
}
