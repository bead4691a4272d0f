package conflict

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// DetectArchiveCollisions implements spec §4.8's collision detection:
// resource hashes appearing in >= 2 distinct archive filenames within one
// game. Rebuilds all evidence every run — safe to call repeatedly.
//
// Participating archives are ordered case-insensitive-ASCII by filename,
// matching the RED engine's own first-loaded-wins rule; the first is the
// winner.
func DetectArchiveCollisions(game model.Game, entries []model.ArchiveEntryIndex) []model.ConflictEvidence {
	type hit struct {
		archiveFilename string
		installedModID  int64
		sha1            [20]byte
	}
	byHash := map[uint64][]hit{}

	for _, e := range entries {
		byHash[e.ResourceHash] = append(byHash[e.ResourceHash], hit{
			archiveFilename: e.ArchiveFilename,
			installedModID:  e.InstalledModID,
			sha1:            e.SHA1,
		})
	}

	var hashes []uint64
	for h, hits := range byHash {
		distinct := map[string]bool{}
		for _, x := range hits {
			distinct[strings.ToLower(x.archiveFilename)] = true
		}
		if len(distinct) >= 2 {
			hashes = append(hashes, h)
		}
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	var out []model.ConflictEvidence
	for _, h := range hashes {
		hits := byHash[h]
		// De-duplicate to one hit per archive filename (an archive may
		// list the same resource hash more than once internally).
		perArchive := map[string]hit{}
		for _, x := range hits {
			key := strings.ToLower(x.archiveFilename)
			if _, ok := perArchive[key]; !ok {
				perArchive[key] = x
			}
		}
		var archives []string
		for _, x := range perArchive {
			archives = append(archives, x.archiveFilename)
		}
		sort.Slice(archives, func(i, j int) bool {
			return strings.ToLower(archives[i]) < strings.ToLower(archives[j])
		})

		winnerArchive := archives[0]
		loserArchives := archives[1:]

		modIDSet := map[int64]bool{}
		sha1ByArchive := map[string]string{}
		for _, a := range archives {
			x := perArchive[strings.ToLower(a)]
			modIDSet[x.installedModID] = true
			sha1ByArchive[a] = hex.EncodeToString(x.sha1[:])
		}

		oneModID := len(modIDSet) == 1
		hasUnmanaged := false
		for id := range modIDSet {
			if id == 0 {
				hasUnmanaged = true
			}
		}

		severity := model.SeverityHigh
		if oneModID || hasUnmanaged {
			severity = model.SeverityLow
		}

		var modIDs []int64
		for id := range modIDSet {
			modIDs = append(modIDs, id)
		}
		sort.Slice(modIDs, func(i, j int) bool { return modIDs[i] < modIDs[j] })

		detail, _ := json.Marshal(struct {
			WinnerArchive string            `json:"winner_archive"`
			LoserArchives []string          `json:"loser_archives"`
			SHA1          map[string]string `json:"sha1"`
		}{
			WinnerArchive: winnerArchive,
			LoserArchives: loserArchives,
			SHA1:          sha1ByArchive,
		})

		winner := perArchive[strings.ToLower(winnerArchive)].installedModID
		out = append(out, model.ConflictEvidence{
			GameID:      game.ID,
			Kind:        model.ConflictArchiveResource,
			Severity:    severity,
			Key:         winnerArchive, // the resource hash is opaque; key on the winning archive's filename
			ModIDs:      modIDs,
			WinnerModID: &winner,
			Detail:      string(detail),
		})
	}

	return out
}

// ArchiveConflictClass is one archive's aggregate classification in the
// per-archive summary view (spec §4.8).
type ArchiveConflictClass string

const (
	ArchiveWinsAll       ArchiveConflictClass = "wins_all"
	ArchiveHighLoss      ArchiveConflictClass = "high_loss"
	ArchiveMixed         ArchiveConflictClass = "mixed"
	ArchiveNoConflicts   ArchiveConflictClass = "no_conflicts"
)

// ArchiveSummary is the per-archive roll-up of collision evidence.
type ArchiveSummary struct {
	ArchiveFilename string
	Class           ArchiveConflictClass
	Wins            int
	Losses          int
	TotalEntries    int
}

// SummarizeArchives classifies each archive that appears in collision
// evidence: wins_all -> low/cosmetic, losses > 50% of its entries -> high,
// some of each -> medium (spec §4.8's per-archive summary view).
func SummarizeArchives(evidence []model.ConflictEvidence, entryCountByArchive map[string]int) []ArchiveSummary {
	wins := map[string]int{}
	losses := map[string]int{}
	seen := map[string]bool{}

	for _, ev := range evidence {
		if ev.Kind != model.ConflictArchiveResource {
			continue
		}
		var detail struct {
			WinnerArchive string   `json:"winner_archive"`
			LoserArchives []string `json:"loser_archives"`
		}
		if json.Unmarshal([]byte(ev.Detail), &detail) != nil {
			continue
		}
		seen[detail.WinnerArchive] = true
		wins[detail.WinnerArchive]++
		for _, l := range detail.LoserArchives {
			seen[l] = true
			losses[l]++
		}
	}

	var names []string
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []ArchiveSummary
	for _, name := range names {
		w, l := wins[name], losses[name]
		total := entryCountByArchive[name]

		class := ArchiveMixed
		switch {
		case l == 0 && w > 0:
			class = ArchiveWinsAll
		case total > 0 && float64(l) > 0.5*float64(total):
			class = ArchiveHighLoss
		case w == 0 && l == 0:
			class = ArchiveNoConflicts
		}

		out = append(out, ArchiveSummary{
			ArchiveFilename: name,
			Class:           class,
			Wins:            w,
			Losses:          l,
			TotalEntries:    total,
		})
	}
	return out
}

// ClassifyCollisionRealness reports whether one loser archive's conflict
// against the winner is identical (cosmetic, same bytes) or real (spec
// §4.8's per-conflict classification).
func ClassifyCollisionRealness(winnerSHA1, loserSHA1 [20]byte) string {
	if winnerSHA1 == loserSHA1 {
		return "identical"
	}
	return "real"
}
