package conflict

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// RedscriptAnnotationKind is one of the four (plus supplemented
// @replaceGlobal) annotations the detector recognises.
type RedscriptAnnotationKind string

const (
	AnnotationWrapMethod     RedscriptAnnotationKind = "wrapMethod"
	AnnotationReplaceMethod  RedscriptAnnotationKind = "replaceMethod"
	AnnotationAddMethod      RedscriptAnnotationKind = "addMethod"
	AnnotationAddField       RedscriptAnnotationKind = "addField"
	AnnotationReplaceGlobal  RedscriptAnnotationKind = "replaceGlobal" // supplemented: original_source also recognises this
)

// RedscriptAnnotation is one parsed annotation/function pairing.
type RedscriptAnnotation struct {
	Kind  RedscriptAnnotationKind
	Class string // empty for @replaceGlobal, which has no class target
	Name  string
}

var (
	annotationRe = regexp.MustCompile(`(?i)@(wrapMethod|replaceMethod|addMethod|addField|replaceGlobal)\s*\(\s*([A-Za-z0-9_.]*)\s*\)`)
	funcRe       = regexp.MustCompile(`\bfunc\s+([A-Za-z0-9_]+)`)
)

// ParseRedscriptAnnotations scans .reds source for annotated
// declarations, pairing each annotation with the next `func Name` found
// within 10 lines.
func ParseRedscriptAnnotations(content string) []RedscriptAnnotation {
	lines := strings.Split(content, "\n")
	var out []RedscriptAnnotation

	for i, line := range lines {
		m := annotationRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind := RedscriptAnnotationKind(lowerFirst(m[1]))
		class := m[2]

		end := i + 10
		if end > len(lines) {
			end = len(lines)
		}
		for j := i; j < end; j++ {
			fm := funcRe.FindStringSubmatch(lines[j])
			if fm == nil {
				continue
			}
			out = append(out, RedscriptAnnotation{Kind: kind, Class: class, Name: fm[1]})
			break
		}
	}

	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// targetKey is "Class.Name" for method annotations, or "global.Name" for
// @replaceGlobal (no class target).
func (a RedscriptAnnotation) targetKey() string {
	class := a.Class
	if class == "" {
		class = "global"
	}
	return strings.ToLower(class) + "." + strings.ToLower(a.Name)
}

// RedscriptFileReader resolves the content of one enabled mod's .reds file.
type RedscriptFileReader func(modID int64, relativePath string) (string, error)

// RedscriptDetector implements spec §4.9's redscript-target detector.
type RedscriptDetector struct {
	ReadFile RedscriptFileReader
}

func NewRedscriptDetector(readFile RedscriptFileReader) *RedscriptDetector {
	return &RedscriptDetector{ReadFile: readFile}
}

func (d *RedscriptDetector) Name() string { return "redscript_target" }

func (d *RedscriptDetector) Detect(game model.Game, mods []model.InstalledMod) ([]model.ConflictEvidence, error) {
	type claim struct {
		modID int64
		kind  RedscriptAnnotationKind
	}
	claims := map[string][]claim{}

	for _, m := range mods {
		if m.Disabled {
			continue
		}
		for _, f := range m.Files {
			if !strings.HasSuffix(strings.ToLower(f.RelativePath), ".reds") {
				continue
			}
			content, err := d.ReadFile(m.ID, f.RelativePath)
			if err != nil {
				continue
			}
			for _, ann := range ParseRedscriptAnnotations(content) {
				key := ann.targetKey()
				claims[key] = append(claims[key], claim{modID: m.ID, kind: ann.Kind})
			}
		}
	}

	var keys []string
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []model.ConflictEvidence
	for _, key := range keys {
		cs := claims[key]
		distinctMods := map[int64]bool{}
		for _, c := range cs {
			distinctMods[c.modID] = true
		}
		if len(distinctMods) < 2 {
			continue
		}

		severity := model.SeverityMedium
		for _, c := range cs {
			if c.kind == AnnotationWrapMethod || c.kind == AnnotationReplaceMethod || c.kind == AnnotationReplaceGlobal {
				severity = model.SeverityHigh
				break
			}
		}

		var modIDs []int64
		for id := range distinctMods {
			modIDs = append(modIDs, id)
		}
		sort.Slice(modIDs, func(i, j int) bool { return modIDs[i] < modIDs[j] })

		out = append(out, model.ConflictEvidence{
			GameID:   game.ID,
			Kind:     model.ConflictRedscriptTarget,
			Severity: severity,
			Key:      key,
			ModIDs:   modIDs,
		})
	}

	return out, nil
}
