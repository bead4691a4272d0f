package fomod

import (
	"sort"
	"strings"
)

// FlagMap tracks condition-flag name -> value accumulated as the installer
// walks steps and selects plugins.
type FlagMap map[string]string

// FileStateFunc reports the state of an install-time file (spec §4.5's
// Active/Inactive/Missing predicate). It is supplied by the caller since
// file state depends on which plugins are selected and what already exists
// on disk — the evaluator itself stays a pure function of (Dependency,
// FlagMap, FileStateFunc).
type FileStateFunc func(file string) FileState

// EvaluateDependency recursively evaluates a dependency tree against the
// accumulated flag map and file-state oracle. Empty composites (no
// operator, no children, no leaf predicate set) evaluate to true.
func EvaluateDependency(dep *Dependency, flags FlagMap, fileState FileStateFunc) bool {
	if dep == nil {
		return true
	}

	if dep.Operator != "" || len(dep.Children) > 0 {
		if len(dep.Children) == 0 {
			return true
		}
		switch dep.Operator {
		case DependencyOperatorOr:
			for _, child := range dep.Children {
				c := child
				if EvaluateDependency(&c, flags, fileState) {
					return true
				}
			}
			return false
		default: // And, including an empty/unspecified operator over children
			for _, child := range dep.Children {
				c := child
				if !EvaluateDependency(&c, flags, fileState) {
					return false
				}
			}
			return true
		}
	}

	if dep.FlagDependency != nil {
		return flags[dep.FlagDependency.Flag] == dep.FlagDependency.Value
	}

	if dep.FileDependency != nil {
		if fileState == nil {
			return false
		}
		return fileState(dep.FileDependency.File) == dep.FileDependency.State
	}

	// GameDependency/FommDependency are environment version checks this
	// engine does not model (no FOMM/game-version oracle in scope); treat
	// as satisfied so they never block an otherwise-valid selection.
	if dep.GameDependency != nil || dep.FommDependency != nil {
		return true
	}

	// A genuinely empty composite/leaf.
	return true
}

// StepSelection is the caller's choice of selected plugins for one step,
// identified by (step index, group index, plugin index) — the document
// order spec §4.5 computes priority resolution over.
type StepSelection struct {
	StepIndex   int
	GroupIndex  int
	PluginIndex int
}

// fileEntry is one pending file-install decision, tagged with its
// doc-order position for the priority tie-break (later doc-order wins).
type fileEntry struct {
	destination string
	source      string
	priority    int
	docOrder    int
}

// ComputeFinalFileList runs the four-step decision procedure from spec
// §4.5: required files first, then each visible step's selected plugins in
// document order (folding condition flags as it goes), then conditional
// patterns evaluated against the final flag map, then priority resolution
// by destination path (highest priority wins; later doc-order breaks ties).
//
// Idempotent: calling it twice with the same ModuleConfig, selections, and
// fileState oracle yields the same ordered list (spec testable property 8).
func ComputeFinalFileList(cfg *ModuleConfig, selected map[StepSelection]bool, fileState FileStateFunc) []FileInstall {
	var pending []fileEntry
	docOrder := 0
	flags := FlagMap{}

	appendFileList(&pending, &docOrder, cfg.RequiredInstallFiles)

	for si, step := range cfg.InstallSteps {
		visible := step.Visible
		if !EvaluateDependency(visible, flags, fileState) {
			continue
		}
		for gi, group := range step.OptionGroups {
			for pi, plugin := range group.Plugins {
				if !selected[StepSelection{StepIndex: si, GroupIndex: gi, PluginIndex: pi}] {
					continue
				}
				appendFileList(&pending, &docOrder, plugin.Files)
				for _, cf := range plugin.ConditionFlags {
					flags[cf.Name] = cf.Value
				}
			}
		}
	}

	for _, cond := range cfg.ConditionalFileInstalls {
		if EvaluateDependency(cond.Dependencies, flags, fileState) {
			appendFileList(&pending, &docOrder, cond.Files)
		}
	}

	return resolvePriority(pending)
}

func appendFileList(pending *[]fileEntry, docOrder *int, fl *FileList) {
	if fl == nil {
		return
	}
	for _, f := range fl.Files {
		*pending = append(*pending, fileEntry{
			destination: destinationFor(f.Source, f.Destination),
			source:      f.Source,
			priority:    f.Priority,
			docOrder:    *docOrder,
		})
		*docOrder++
	}
	for _, f := range fl.Folders {
		*pending = append(*pending, fileEntry{
			destination: destinationFor(f.Source, f.Destination),
			source:      f.Source,
			priority:    f.Priority,
			docOrder:    *docOrder,
		})
		*docOrder++
	}
}

func destinationFor(source, destination string) string {
	if destination != "" {
		return destination
	}
	return source
}

// resolvePriority groups by destination path, keeps the entry with the
// highest priority, and on tie keeps the later doc-order entry, then
// returns the survivors ordered by their original doc-order.
func resolvePriority(pending []fileEntry) []FileInstall {
	best := map[string]fileEntry{}
	for _, e := range pending {
		cur, ok := best[e.destination]
		if !ok || e.priority > cur.priority || (e.priority == cur.priority && e.docOrder > cur.docOrder) {
			best[e.destination] = e
		}
	}

	survivors := make([]fileEntry, 0, len(best))
	for _, e := range best {
		survivors = append(survivors, e)
	}
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].docOrder < survivors[j].docOrder })

	out := make([]FileInstall, 0, len(survivors))
	for _, e := range survivors {
		out = append(out, FileInstall{
			Source:      e.source,
			Destination: e.destination,
			Priority:    e.priority,
		})
	}
	return out
}

// NormalizeDestination lowercases and forward-slashes a destination path for
// path-based comparisons elsewhere in the installer.
func NormalizeDestination(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
}
