package conflict

import (
	"sort"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// ArchiveEntryDetector finds relative paths owned by more than one enabled
// installed mod. Winner is the most recently installed mod (spec §4.9),
// except for the one case spec §9 calls out as an open question the engine
// must not guess at: two distinct mods installing a same-named .archive
// file under archive/pc/mod/. Archive load order there is internal to the
// game engine and the rename-based load-order path doesn't apply (the
// filenames are identical), so that case is surfaced with WinnerModID left
// nil instead of resolved.
type ArchiveEntryDetector struct{}

func NewArchiveEntryDetector() *ArchiveEntryDetector { return &ArchiveEntryDetector{} }

func (d *ArchiveEntryDetector) Name() string { return "archive_entry" }

func (d *ArchiveEntryDetector) Detect(game model.Game, mods []model.InstalledMod) ([]model.ConflictEvidence, error) {
	type owner struct {
		modID        int64
		installedAt  int64
	}
	pathOwners := map[string][]owner{}

	for _, m := range mods {
		if m.Disabled {
			continue
		}
		for _, f := range m.Files {
			key := normalizePath(f.RelativePath)
			pathOwners[key] = append(pathOwners[key], owner{modID: m.ID, installedAt: m.InstalledAt.Unix()})
		}
	}

	var paths []string
	for p, owners := range pathOwners {
		if len(owners) >= 2 {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var out []model.ConflictEvidence
	for _, p := range paths {
		owners := pathOwners[p]
		sort.Slice(owners, func(i, j int) bool { return owners[i].installedAt < owners[j].installedAt })

		modIDs := make([]int64, len(owners))
		for i, o := range owners {
			modIDs[i] = o.modID
		}

		evidence := model.ConflictEvidence{
			GameID:   game.ID,
			Kind:     model.ConflictArchiveEntry,
			Severity: severityForPathPrefix(p),
			Key:      p,
			ModIDs:   modIDs,
		}
		if !isAmbiguousArchiveFilenameConflict(p) {
			winner := owners[len(owners)-1].modID
			evidence.WinnerModID = &winner
		}

		out = append(out, evidence)
	}

	return out, nil
}

// isAmbiguousArchiveFilenameConflict reports whether p is a .archive file
// under archive/pc/mod/ — the one collision spec §9 requires be surfaced
// rather than resolved.
func isAmbiguousArchiveFilenameConflict(p string) bool {
	np := normalizePath(p)
	return hasPathPrefix(np, "archive/pc/mod") && strings.HasSuffix(np, ".archive")
}
