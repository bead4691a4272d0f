package conflict

import (
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// TweakOp is one TweakXL operation kind.
type TweakOp string

const (
	TweakOpSet    TweakOp = "SET"
	TweakOpAppend TweakOp = "APPEND"
	TweakOpRemove TweakOp = "REMOVE"
)

// TweakEntry is one flattened (key, op, value) triple extracted from a
// .yaml/.yml/.xl or .tweak source.
type TweakEntry struct {
	Key   string
	Op    TweakOp
	Value string
}

var tweakLineRe = regexp.MustCompile(`^\s*([A-Za-z0-9_.]+)\s*([+\-]?=)\s*(.+?)\s*$`)

// ParseTweakFile dispatches on extension: YAML-family files go through the
// TweakXL YAML parser (custom !append/!append-once/!remove tags); .tweak
// files go through the line-oriented parser.
func ParseTweakFile(filename, content string) ([]TweakEntry, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"), strings.HasSuffix(lower, ".xl"):
		return parseYAMLTweaks(content)
	case strings.HasSuffix(lower, ".tweak"):
		return parseTweakLines(content)
	default:
		return nil, nil
	}
}

func parseTweakLines(content string) ([]TweakEntry, error) {
	var out []TweakEntry
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m := tweakLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, opToken, value := m[1], m[2], m[3]
		op := TweakOpSet
		if opToken == "+=" {
			op = TweakOpAppend
		} else if opToken == "-=" {
			op = TweakOpRemove
		}
		out = append(out, TweakEntry{Key: key, Op: op, Value: value})
	}
	return out, nil
}

func parseYAMLTweaks(content string) ([]TweakEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	var out []TweakEntry
	flattenYAML("", root.Content[0], &out)
	return out, nil
}

// flattenYAML recursively walks a YAML mapping/sequence/scalar node,
// emitting one TweakEntry per leaf value. A node's !append / !append-once /
// !remove tag determines its TweakOp; untagged scalars are SET.
func flattenYAML(prefix string, node *yaml.Node, out *[]TweakEntry) {
	if node == nil {
		return
	}

	op := opFromTag(node.Tag)

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			childPrefix := keyNode.Value
			if prefix != "" {
				childPrefix = prefix + "." + keyNode.Value
			}
			flattenYAML(childPrefix, valNode, out)
		}
	case yaml.SequenceNode:
		if op == "" {
			op = TweakOpSet
		}
		for _, c := range node.Content {
			*out = append(*out, TweakEntry{Key: prefix, Op: op, Value: scalarValue(c)})
		}
	default: // scalar
		if op == "" {
			op = TweakOpSet
		}
		*out = append(*out, TweakEntry{Key: prefix, Op: op, Value: node.Value})
	}
}

func opFromTag(tag string) TweakOp {
	switch tag {
	case "!append", "!append-once":
		return TweakOpAppend
	case "!remove":
		return TweakOpRemove
	default:
		return ""
	}
}

func scalarValue(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	return n.Value
}

// pairSeverity implements spec §4.9's TweakXL pairwise op-compatibility
// table. Returns "" for the APPEND/APPEND and disjoint-value APPEND/REMOVE
// cases, which are compatible (no conflict).
func pairSeverity(a, b TweakEntry) model.Severity {
	sameValue := a.Value == b.Value

	opA, opB := a.Op, b.Op
	if opA == TweakOpAppend && opB == TweakOpSet {
		opA, opB = opB, opA
	}
	if opA == TweakOpRemove && opB == TweakOpSet {
		opA, opB = opB, opA
	}
	if opA == TweakOpRemove && opB == TweakOpAppend {
		opA, opB = opB, opA
	}

	switch {
	case opA == TweakOpSet && opB == TweakOpSet:
		if sameValue {
			return model.SeverityLow
		}
		return model.SeverityHigh
	case opA == TweakOpSet && opB == TweakOpAppend:
		return model.SeverityMedium
	case opA == TweakOpSet && opB == TweakOpRemove:
		return model.SeverityMedium
	case opA == TweakOpAppend && opB == TweakOpRemove:
		if sameValue {
			return model.SeverityMedium
		}
		return "" // disjoint, no conflict
	case opA == TweakOpAppend && opB == TweakOpAppend:
		return "" // additive compatible
	default:
		return ""
	}
}

// TweakSource is one enabled mod's collected tweak entries.
type TweakSource struct {
	ModID   int64
	Entries []TweakEntry
}

// TweakFileReader resolves the content of one enabled mod's tweak file
// under r6/tweaks.
type TweakFileReader func(modID int64, relativePath string) (string, error)

// TweakKeyDetector implements spec §4.9's tweak-key detector, refined by
// the TweakXL semantic op-compatibility table.
type TweakKeyDetector struct {
	ReadFile TweakFileReader
}

func NewTweakKeyDetector(readFile TweakFileReader) *TweakKeyDetector {
	return &TweakKeyDetector{ReadFile: readFile}
}

func (d *TweakKeyDetector) Name() string { return "tweak_key" }

func (d *TweakKeyDetector) Detect(game model.Game, mods []model.InstalledMod) ([]model.ConflictEvidence, error) {
	type claim struct {
		modID int64
		entry TweakEntry
	}
	claims := map[string][]claim{}

	for _, m := range mods {
		if m.Disabled {
			continue
		}
		for _, f := range m.Files {
			lower := normalizePath(f.RelativePath)
			if !strings.Contains(lower, "r6/tweaks") {
				continue
			}
			if !(strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".tweak")) {
				continue
			}
			content, err := d.ReadFile(m.ID, f.RelativePath)
			if err != nil {
				continue
			}
			entries, err := ParseTweakFile(f.RelativePath, content)
			if err != nil {
				continue
			}
			for _, e := range entries {
				key := strings.ToLower(e.Key)
				claims[key] = append(claims[key], claim{modID: m.ID, entry: e})
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

		allAppends := true
		for _, c := range cs {
			if c.entry.Op != TweakOpAppend {
				allAppends = false
				break
			}
		}

		severity := model.SeverityLow
		if !allAppends {
			severity = model.SeverityMedium
		}

		// Semantic refinement: the highest pairwise severity across
		// distinct-mod claims wins, when any pair yields one.
		for i := 0; i < len(cs); i++ {
			for j := i + 1; j < len(cs); j++ {
				if cs[i].modID == cs[j].modID {
					continue
				}
				if s := pairSeverity(cs[i].entry, cs[j].entry); s != "" {
					if severityRank(s) > severityRank(severity) {
						severity = s
					}
				}
			}
		}

		var modIDs []int64
		for id := range distinctMods {
			modIDs = append(modIDs, id)
		}
		sort.Slice(modIDs, func(i, j int) bool { return modIDs[i] < modIDs[j] })

		out = append(out, model.ConflictEvidence{
			GameID:   game.ID,
			Kind:     model.ConflictTweakKey,
			Severity: severity,
			Key:      key,
			ModIDs:   modIDs,
		})
	}

	return out, nil
}

func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityLow:
		return 0
	case model.SeverityMedium:
		return 1
	case model.SeverityHigh:
		return 2
	default:
		return -1
	}
}
