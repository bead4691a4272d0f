// Package loadorder plans the RED engine's archive load order (spec
// §4.11, C11). The engine loads .archive files from archive/pc/mod/ in
// ASCII filename order, last-wins on resource collision; there is no
// native load-order file. Two mechanisms express a desired order:
//
//   - the modlist path (preferred): a hand-authored archive/pc/mod/modlist.txt
//     listing filenames in load order, read by community modlist-aware tooling.
//   - the rename path (fallback): renaming a loser's archive with an
//     escalating zz_/zzz_/zzzz_ prefix so its filename sorts later.
package loadorder

import (
	"container/heap"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// Group is one unit participating in load order: an InstalledMod's set of
// .archive files, or a single unmanaged archive found on disk that no
// InstalledMod owns.
type Group struct {
	Key      string // "mod:<id>" or "archive:<filename>"
	ModID    int64  // 0 if unmanaged
	Archives []string
}

func modKey(modID int64) string       { return fmt.Sprintf("mod:%d", modID) }
func archiveKey(filename string) string { return "archive:" + strings.ToLower(filename) }

// lowestFilename is the group's default sort key: its alphabetically-first
// archive, ASCII ascending, case-insensitive.
func (g Group) lowestFilename() string {
	if len(g.Archives) == 0 {
		return ""
	}
	return g.Archives[0]
}

// BuildGroups assembles groups from installed mods' owned .archive files
// and a caller-supplied list of archive filenames on disk that no
// InstalledMod owns.
func BuildGroups(mods []model.InstalledMod, unmanagedArchives []string) []Group {
	var groups []Group

	for _, m := range mods {
		var archives []string
		for _, f := range m.Files {
			if strings.HasSuffix(strings.ToLower(f.RelativePath), ".archive") {
				archives = append(archives, baseName(f.RelativePath))
			}
		}
		if len(archives) == 0 {
			continue
		}
		slices.SortFunc(archives, func(a, b string) bool { return strings.ToLower(a) < strings.ToLower(b) })
		groups = append(groups, Group{Key: modKey(m.ID), ModID: m.ID, Archives: archives})
	}

	for _, a := range unmanagedArchives {
		groups = append(groups, Group{Key: archiveKey(a), Archives: []string{a}})
	}

	slices.SortFunc(groups, func(a, b Group) bool {
		return strings.ToLower(a.lowestFilename()) < strings.ToLower(b.lowestFilename())
	})
	return groups
}

func baseName(relPath string) string {
	rel := strings.ReplaceAll(relPath, "\\", "/")
	if idx := strings.LastIndexByte(rel, '/'); idx >= 0 {
		return rel[idx+1:]
	}
	return rel
}

// Edge is a resolved "winner loads before loser" constraint between two
// groups present in the current set.
type Edge struct {
	WinnerKey string
	LoserKey  string
}

// BuildEdges resolves model.LoadOrderPreference rows (which reference
// InstalledMod IDs) against the groups actually present. An edge naming a
// mod ID with no corresponding group, or forming a self-loop, is ignored
// per spec §4.11.
func BuildEdges(prefs []model.LoadOrderPreference, groups []Group) []Edge {
	present := make(map[int64]string, len(groups))
	for _, g := range groups {
		if g.ModID != 0 {
			present[g.ModID] = g.Key
		}
	}

	var edges []Edge
	for _, p := range prefs {
		wk, wok := present[p.WinnerModID]
		lk, lok := present[p.LoserModID]
		if !wok || !lok || wk == lk {
			continue
		}
		edges = append(edges, Edge{WinnerKey: wk, LoserKey: lk})
	}
	return edges
}

// ResolveResult is the outcome of ordering groups against preference edges.
type ResolveResult struct {
	Order    []Group
	CycleKeys []string // groups left unordered by a preference cycle: its members and any group that must follow one of them
}

// ResolveOrder runs Kahn's algorithm over the preference DAG, breaking
// ties by each group's default (ASCII-filename) order so the result is
// stable when no preferences apply. A cycle among the edges is detected,
// and the groups it leaves unordered (its participants and any group that
// must follow one of them) are appended in default order rather than
// causing a failure — load order must always resolve to something
// installable.
func ResolveOrder(groups []Group, edges []Edge) ResolveResult {
	byKey := make(map[string]Group, len(groups))
	defaultIndex := make(map[string]int, len(groups))
	for i, g := range groups {
		byKey[g.Key] = g
		defaultIndex[g.Key] = i
	}

	adjacency := make(map[string][]string)
	indegree := make(map[string]int, len(groups))
	for _, g := range groups {
		indegree[g.Key] = 0
	}
	for _, e := range edges {
		adjacency[e.WinnerKey] = append(adjacency[e.WinnerKey], e.LoserKey)
		indegree[e.LoserKey]++
	}

	h := &keyHeap{index: defaultIndex}
	for _, g := range groups {
		if indegree[g.Key] == 0 {
			heap.Push(h, g.Key)
		}
	}

	var orderedKeys []string
	for h.Len() > 0 {
		k := heap.Pop(h).(string)
		orderedKeys = append(orderedKeys, k)
		neighbors := append([]string(nil), adjacency[k]...)
		slices.Sort(neighbors)
		for _, n := range neighbors {
			indegree[n]--
			if indegree[n] == 0 {
				heap.Push(h, n)
			}
		}
	}

	result := ResolveResult{}
	seen := make(map[string]bool, len(orderedKeys))
	for _, k := range orderedKeys {
		result.Order = append(result.Order, byKey[k])
		seen[k] = true
	}

	if len(orderedKeys) < len(groups) {
		var remaining []Group
		for _, g := range groups {
			if !seen[g.Key] {
				remaining = append(remaining, g)
			}
		}
		// remaining is already in default order since groups was.
		for _, g := range remaining {
			result.Order = append(result.Order, g)
			result.CycleKeys = append(result.CycleKeys, g.Key)
		}
	}

	return result
}

// keyHeap is a container/heap.Interface min-heap over group keys, ordered
// by each key's default (ASCII-filename) position, so Kahn's algorithm's
// ties resolve to the stable default order.
type keyHeap struct {
	items []string
	index map[string]int
}

func (h *keyHeap) Len() int            { return len(h.items) }
func (h *keyHeap) Less(i, j int) bool  { return h.index[h.items[i]] < h.index[h.items[j]] }
func (h *keyHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *keyHeap) Push(x interface{})  { h.items = append(h.items, x.(string)) }
func (h *keyHeap) Pop() interface{} {
	n := len(h.items)
	top := h.items[n-1]
	h.items = h.items[:n-1]
	return top
}

// BuildModlistLines flattens the resolved group order into the filename
// list modlist.txt expects: one archive per line, groups in order, a
// group's own archives ASCII-ascending. When two distinct mods both
// install a same-named .archive under archive/pc/mod/ (spec §9's
// ambiguous-winner open question — there's only one physical file at that
// path regardless of which mod's install last wrote it), only its first
// occurrence is listed; the engine has no concept of "loading a filename
// twice".
func BuildModlistLines(order []Group) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, g := range order {
		for _, a := range g.Archives {
			key := strings.ToLower(a)
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, a)
		}
	}
	return lines
}
