// Package update implements the unified update checker (spec §4.12, C12):
// collect tracked-mod local state, one catalog call for recently-updated
// mods, selective metadata refresh, three-signal update detection, a
// false-positive filter, and separate bounded-concurrency file-ID
// resolution.
package update

import (
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// Signal is one of the three independent update indicators spec §4.12 names.
type Signal string

const (
	SignalTimestamp    Signal = "timestamp"
	SignalVersion      Signal = "version"
	SignalDownloadDate Signal = "download_date"
)

// TrackedModState is one tracked mod's best-known local facts, assembled
// per spec step 1 with precedence installed > correlation > endorsed/tracked,
// enriched by scanning downloaded_mods/.
type TrackedModState struct {
	NexusModID      int64
	LocalVersion    string
	LocalFileMTime  time.Time
	SourceArchive   string
	DownloadedAt    *time.Time // when the user downloaded this specific file, if known
}

// CatalogMetaBaseline is the NexusModMeta row's UpdatedAt, used by step 3
// to decide whether a mod needs a metadata refresh.
type CatalogMetaBaseline struct {
	NexusModID int64
	UpdatedAt  time.Time
	HasMeta    bool
}

// NeedsMetadataRefresh implements step 3: flag for refresh when the
// catalog reports a file newer than our cached baseline, or we have no
// baseline at all.
func NeedsMetadataRefresh(baseline CatalogMetaBaseline, latestFileTS time.Time) bool {
	if !baseline.HasMeta {
		return true
	}
	return latestFileTS.After(baseline.UpdatedAt)
}

// Decision is the outcome of evaluating one tracked mod's three signals.
type Decision struct {
	NexusModID int64
	HasUpdate  bool
	Signals    []Signal
}

// Method collapses Signals into the single label spec step 4 describes:
// "version", "timestamp", "both", or "" when download-date alone is the
// only thing that fired (a separate, authoritative signal, not named
// alongside the other two).
func (d Decision) Method() string {
	hasTS, hasVer := false, false
	for _, s := range d.Signals {
		switch s {
		case SignalTimestamp:
			hasTS = true
		case SignalVersion:
			hasVer = true
		}
	}
	switch {
	case hasTS && hasVer:
		return "both"
	case hasTS:
		return "timestamp"
	case hasVer:
		return "version"
	default:
		return ""
	}
}

// DecideUpdate implements step 4's three independent signals. A malformed
// version string on either side simply fails to contribute the version
// signal rather than erroring — mod version strings are not reliably
// semver.
func DecideUpdate(local TrackedModState, latestFileTS time.Time, nexusVersion string) Decision {
	d := Decision{NexusModID: local.NexusModID}

	if latestFileTS.After(local.LocalFileMTime) {
		d.Signals = append(d.Signals, SignalTimestamp)
	}

	if newer, ok := versionIsNewer(nexusVersion, local.LocalVersion); ok && newer {
		d.Signals = append(d.Signals, SignalVersion)
	}

	if local.DownloadedAt != nil && latestFileTS.After(*local.DownloadedAt) {
		d.Signals = append(d.Signals, SignalDownloadDate)
	}

	d.HasUpdate = len(d.Signals) > 0
	return d
}

func versionIsNewer(candidate, local string) (newer bool, ok bool) {
	cv, err := semver.NewVersion(candidate)
	if err != nil {
		return false, false
	}
	lv, err := semver.NewVersion(local)
	if err != nil {
		return false, false
	}
	return cv.GreaterThan(lv), true
}

// FileUpdateEdge is one link in a catalog mod's file_updates chain: the
// old file id was superseded by the new file id.
type FileUpdateEdge struct {
	OldFileID int64
	NewFileID int64
}

// ResolvedFile is the outcome of step 6: the specific catalog file that
// matches the user's installed edition, and the newest file reachable by
// following the file_updates chain from it.
type ResolvedFile struct {
	NexusModID      int64
	MatchedFileID   int64 // the pre-chain file id, persisted onto InstalledMod
	OfferedFileID   int64 // the post-chain file id, what to offer for download
	MatchedVersion  string
	MatchedUploaded time.Time
}

// ResolveFile implements step 6's match ordering: exact filename stem
// first, then closest upload timestamp, then version plus MAIN category,
// then the most recent MAIN-category file as a last resort.
func ResolveFile(localArchiveStem string, localMTime time.Time, localVersion string, files []model.NexusModFile, updates []FileUpdateEdge) (ResolvedFile, bool) {
	if len(files) == 0 {
		return ResolvedFile{}, false
	}

	var best *model.NexusModFile

	for i := range files {
		if stemOf(files[i].FileName) == localArchiveStem {
			best = &files[i]
			break
		}
	}

	if best == nil {
		var closest *model.NexusModFile
		var closestDelta time.Duration
		for i := range files {
			delta := files[i].UploadedTimestamp.Sub(localMTime)
			if delta < 0 {
				delta = -delta
			}
			if closest == nil || delta < closestDelta {
				closest = &files[i]
				closestDelta = delta
			}
		}
		if closest != nil && closestDelta <= 24*time.Hour {
			best = closest
		}
	}

	if best == nil {
		for i := range files {
			if files[i].CategoryID == model.CategoryMain {
				if newer, ok := versionIsNewer(files[i].Version, localVersion); ok && !newer && files[i].Version == localVersion {
					best = &files[i]
					break
				}
			}
		}
	}

	if best == nil {
		var latestMain *model.NexusModFile
		for i := range files {
			if files[i].CategoryID != model.CategoryMain {
				continue
			}
			if latestMain == nil || files[i].UploadedTimestamp.After(latestMain.UploadedTimestamp) {
				latestMain = &files[i]
			}
		}
		best = latestMain
	}

	if best == nil {
		return ResolvedFile{}, false
	}

	matchedID := best.FileID
	offeredID := followUpdateChain(matchedID, updates)

	return ResolvedFile{
		NexusModID:      best.NexusModID,
		MatchedFileID:   matchedID,
		OfferedFileID:   offeredID,
		MatchedVersion:  best.Version,
		MatchedUploaded: best.UploadedTimestamp,
	}, true
}

func stemOf(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[:i]
		}
	}
	return filename
}

// followUpdateChain walks FileUpdateEdge (OldFileID -> NewFileID) links to
// the newest file id reachable from start. A cycle (malformed catalog
// data) stops the walk rather than looping forever.
func followUpdateChain(start int64, updates []FileUpdateEdge) int64 {
	byOld := make(map[int64]int64, len(updates))
	for _, u := range updates {
		byOld[u.OldFileID] = u.NewFileID
	}
	current := start
	visited := map[int64]bool{current: true}
	for {
		next, ok := byOld[current]
		if !ok || visited[next] {
			return current
		}
		current = next
		visited[current] = true
	}
}

// FalsePositiveFilter implements step 5: after file-ID resolution, if the
// catalog file matching the user's specific edition is the same version
// and not newer than local mtime, drop the update — unless the
// download-date signal fired, which is authoritative and overrides the
// filter.
func FalsePositiveFilter(d Decision, resolved ResolvedFile, local TrackedModState) Decision {
	if !d.HasUpdate {
		return d
	}
	for _, s := range d.Signals {
		if s == SignalDownloadDate {
			return d
		}
	}
	if resolved.MatchedVersion == local.LocalVersion && !resolved.MatchedUploaded.After(local.LocalFileMTime) {
		d.HasUpdate = false
		d.Signals = nil
	}
	return d
}

// SortDecisions orders decisions by NexusModID for stable output.
func SortDecisions(decisions []Decision) {
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].NexusModID < decisions[j].NexusModID })
}
