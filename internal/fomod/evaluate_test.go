package fomod

import (
	"reflect"
	"testing"
)

func TestEvaluateDependencyEmptyIsTrue(t *testing.T) {
	if !EvaluateDependency(nil, FlagMap{}, nil) {
		t.Fatal("nil dependency must evaluate true")
	}
	empty := &Dependency{Operator: DependencyOperatorAnd}
	if !EvaluateDependency(empty, FlagMap{}, nil) {
		t.Fatal("empty composite must evaluate true")
	}
}

func TestEvaluateDependencyAndOr(t *testing.T) {
	flags := FlagMap{"extra": "on", "other": "off"}

	and := &Dependency{
		Operator: DependencyOperatorAnd,
		Children: []Dependency{
			{FlagDependency: &FlagDependency{Flag: "extra", Value: "on"}},
			{FlagDependency: &FlagDependency{Flag: "other", Value: "off"}},
		},
	}
	if !EvaluateDependency(and, flags, nil) {
		t.Error("AND of two true predicates should be true")
	}

	or := &Dependency{
		Operator: DependencyOperatorOr,
		Children: []Dependency{
			{FlagDependency: &FlagDependency{Flag: "extra", Value: "off"}},
			{FlagDependency: &FlagDependency{Flag: "other", Value: "off"}},
		},
	}
	if !EvaluateDependency(or, flags, nil) {
		t.Error("OR with one true predicate should be true")
	}
}

func TestEvaluateDependencyFileState(t *testing.T) {
	states := map[string]FileState{"a.dll": FileStateActive}
	fs := func(f string) FileState {
		if s, ok := states[f]; ok {
			return s
		}
		return FileStateMissing
	}
	dep := &Dependency{FileDependency: &FileDependency{File: "a.dll", State: FileStateActive}}
	if !EvaluateDependency(dep, FlagMap{}, fs) {
		t.Error("expected file dependency to match Active state")
	}
	dep2 := &Dependency{FileDependency: &FileDependency{File: "b.dll", State: FileStateActive}}
	if EvaluateDependency(dep2, FlagMap{}, fs) {
		t.Error("expected unknown file to be Missing, not Active")
	}
}

// TestComputeFinalFileListS5 reproduces spec scenario S5.
func TestComputeFinalFileListS5(t *testing.T) {
	cfg := &ModuleConfig{
		RequiredInstallFiles: &FileList{
			Files: []FileInstall{{Source: "base.txt"}},
		},
		InstallSteps: []InstallStep{
			{
				Name: "Step1",
				OptionGroups: []OptionGroup{
					{
						Name: "Group1",
						Plugins: []Plugin{
							{
								Name:           "Extra",
								Files:          &FileList{},
								ConditionFlags: []ConditionFlag{{Name: "extra", Value: "on"}},
							},
						},
					},
				},
			},
			{
				Name: "Step2",
				Visible: &Dependency{
					FlagDependency: &FlagDependency{Flag: "extra", Value: "on"},
				},
				OptionGroups: []OptionGroup{
					{
						Name: "Group2",
						Plugins: []Plugin{
							{
								Name:  "ExtraA",
								Files: &FileList{Files: []FileInstall{{Source: "extra_a.txt"}}},
							},
						},
					},
				},
			},
		},
		ConditionalFileInstalls: []ConditionalInstallItem{
			{
				Dependencies: &Dependency{FlagDependency: &FlagDependency{Flag: "extra", Value: "on"}},
				Files:        &FileList{Files: []FileInstall{{Source: "bonus.txt"}}},
			},
		},
	}

	selected := map[StepSelection]bool{
		{StepIndex: 0, GroupIndex: 0, PluginIndex: 0}: true, // Extra
		{StepIndex: 1, GroupIndex: 0, PluginIndex: 0}: true, // ExtraA
	}

	got := ComputeFinalFileList(cfg, selected, nil)

	var sources []string
	for _, f := range got {
		sources = append(sources, f.Source)
	}
	want := []string{"base.txt", "extra_a.txt", "bonus.txt"}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("got %v, want %v", sources, want)
	}
}

func TestComputeFinalFileListIdempotent(t *testing.T) {
	cfg := &ModuleConfig{
		RequiredInstallFiles: &FileList{Files: []FileInstall{{Source: "a.txt"}}},
	}
	got1 := ComputeFinalFileList(cfg, nil, nil)
	got2 := ComputeFinalFileList(cfg, nil, nil)
	if !reflect.DeepEqual(got1, got2) {
		t.Errorf("expected idempotent result, got %v then %v", got1, got2)
	}
}

func TestResolvePriorityHighestWinsTieLaterDocOrderWins(t *testing.T) {
	cfg := &ModuleConfig{
		RequiredInstallFiles: &FileList{
			Files: []FileInstall{
				{Source: "a.txt", Destination: "dest.txt", Priority: 0},
				{Source: "b.txt", Destination: "dest.txt", Priority: 5},
				{Source: "c.txt", Destination: "dest.txt", Priority: 5},
			},
		},
	}
	got := ComputeFinalFileList(cfg, nil, nil)
	if len(got) != 1 || got[0].Source != "c.txt" {
		t.Errorf("expected c.txt to win (highest priority, later doc-order tie-break), got %+v", got)
	}
}
