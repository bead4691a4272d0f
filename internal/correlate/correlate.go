// Package correlate runs the five-tier correlation pipeline that links
// ModGroups to NexusDownloads (spec §4.7, C7). Each tier is exposed as its
// own function so the pipeline's strict ordering (spec §4.7's "ordering
// guarantees") is enforced by the caller composing them, not by hidden
// state inside this package.
package correlate

import (
	"context"
	"sort"
	"strings"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/catalog"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/filenameparser"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// ArchiveMetadata is what Tier 0.5 extracts from a staged archive's FOMOD
// info.xml or RED-mod info.json before any network call.
type ArchiveMetadata struct {
	NexusModID int64  // >0 when a catalog id was recovered (FOMOD Id/Website)
	Name       string
	Version    string
	FromFomod  bool // true when sourced from FOMOD info.xml, false from RED info.json
}

// TextEntry is one archive entry already read into memory as text, tagged
// with its depth (number of path separators) for the "shallowest wins" and
// "depth <= 2" rules.
type TextEntry struct {
	Path    string
	Depth   int
	Content string
}

// InspectArchiveMetadata implements Tier 0.5: scans the pre-read entries of
// a staged archive for a FOMOD info.xml (depth >= 2, shallowest wins) or a
// RED-mod info.json (depth <= 2). Returns ok=false when neither is present.
func InspectArchiveMetadata(entries []TextEntry, parseFomodInfo func(xml string) (id int64, name, version string, ok bool), parseRedInfo func(json string) (name, version string, ok bool)) (ArchiveMetadata, bool) {
	var best *TextEntry
	for i := range entries {
		e := &entries[i]
		if e.Depth < 2 {
			continue
		}
		if !strings.EqualFold(lastSegment(e.Path), "info.xml") {
			continue
		}
		if best == nil || e.Depth < best.Depth {
			best = e
		}
	}
	if best != nil && parseFomodInfo != nil {
		if id, name, version, ok := parseFomodInfo(best.Content); ok {
			return ArchiveMetadata{NexusModID: id, Name: name, Version: version, FromFomod: true}, true
		}
	}

	for _, e := range entries {
		if e.Depth > 2 {
			continue
		}
		if !strings.EqualFold(lastSegment(e.Path), "info.json") {
			continue
		}
		if parseRedInfo != nil {
			if name, version, ok := parseRedInfo(e.Content); ok {
				return ArchiveMetadata{Name: name, Version: version}, true
			}
		}
	}

	return ArchiveMetadata{}, false
}

func lastSegment(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// FilenameIDEnrich implements Tier 1: fetches catalog metadata for a
// staged archive whose filename parsed as a Nexus CDN shape.
func FilenameIDEnrich(ctx context.Context, client catalog.Client, domain string, nexusModID int64) (model.NexusDownload, model.NexusModMeta, error) {
	info, err := client.GetModInfo(ctx, domain, nexusModID)
	if err != nil {
		return model.NexusDownload{}, model.NexusModMeta{}, err
	}
	dl := model.NexusDownload{NexusModID: nexusModID, ModName: info.Name, Version: info.Version}
	meta := model.NexusModMeta{
		NexusModID:       nexusModID,
		Author:           info.Author,
		Summary:          info.Summary,
		Description:      info.Description,
		EndorsementCount: int64(info.EndorsementCount),
		PictureURL:       info.PictureURL,
	}
	return dl, meta, nil
}

// MD5MatchResult is the outcome of Tier 2.
type MD5MatchResult struct {
	NexusModID int64
	FileID     int64
	ModName    string
}

// MD5Match implements Tier 2: hits the catalog's md5_search and returns the
// strongest hit (catalog ordering is trusted; first hit wins), or ok=false
// on no match.
func MD5Match(ctx context.Context, client catalog.Client, domain, md5 string) (MD5MatchResult, bool, error) {
	hits, err := client.MD5Search(ctx, domain, md5)
	if err != nil {
		return MD5MatchResult{}, false, err
	}
	if len(hits) == 0 {
		return MD5MatchResult{}, false, nil
	}
	h := hits[0]
	return MD5MatchResult{NexusModID: h.ModID, FileID: h.FileID, ModName: h.ModName}, true, nil
}

// categoryPriority ranks catalog file categories for Tier 2.5 iteration
// order: MAIN < UPDATE < OPTIONAL; OLD/DELETED/ARCHIVED are skipped.
func categoryPriority(c model.NexusModFileCategory) (int, bool) {
	switch c {
	case model.CategoryMain:
		return 0, true
	case model.CategoryUpdate:
		return 1, true
	case model.CategoryOptional:
		return 2, true
	default:
		return 0, false
	}
}

// CatalogFilenameMatchInput bundles one endorsed/tracked mod's known
// catalog files with the locally staged archive filenames and contents.
type CatalogFilenameMatchInput struct {
	NexusModID int64
	Files      []model.NexusModFile
	// StagedArchiveEntries maps a staged archive's filename to the set of
	// entry paths it contains (already opened once).
	StagedArchiveEntries map[string][]string
	// LocalFileIndex maps a relative path (lowercased) to the ModGroupID
	// that owns it, for path-hit comparison.
	LocalFileIndex map[string]int64
}

// CatalogFilenameMatchResult is one Tier 2.5 acceptance.
type CatalogFilenameMatchResult struct {
	NexusModID int64
	FileID     int64
	ModGroupID int64
	Score      float64
	Method     model.CorrelationMethod
}

// CatalogFilenameMatch implements Tier 2.5's primary path: for each
// catalog file (by category priority), find a staged archive with the same
// name, compare its entries against the local file index, and accept when
// at least half of its entries match a local file.
func CatalogFilenameMatch(in CatalogFilenameMatchInput) (CatalogFilenameMatchResult, bool) {
	files := append([]model.NexusModFile(nil), in.Files...)
	sort.SliceStable(files, func(i, j int) bool {
		pi, oki := categoryPriority(files[i].CategoryID)
		pj, okj := categoryPriority(files[j].CategoryID)
		if !oki {
			pi = 1 << 30
		}
		if !okj {
			pj = 1 << 30
		}
		return pi < pj
	})

	for _, f := range files {
		if _, ok := categoryPriority(f.CategoryID); !ok {
			continue
		}
		entries, staged := in.StagedArchiveEntries[f.FileName]
		if !staged {
			continue
		}
		if len(entries) == 0 {
			continue
		}

		matchCounts := map[int64]int{}
		matched := 0
		for _, e := range entries {
			key := strings.ToLower(strings.ReplaceAll(e, "\\", "/"))
			if groupID, ok := in.LocalFileIndex[key]; ok {
				matched++
				matchCounts[groupID]++
				continue
			}
			leaf := lastSegment(key)
			for path, gid := range in.LocalFileIndex {
				if lastSegment(path) == leaf {
					matched++
					matchCounts[gid]++
					break
				}
			}
		}

		if float64(matched) < 0.5*float64(len(entries)) {
			continue
		}

		bestGroup, _ := bestMatchingGroup(matchCounts)

		return CatalogFilenameMatchResult{
			NexusModID: in.NexusModID,
			FileID:     f.FileID,
			ModGroupID: bestGroup,
			Score:      0.95,
			Method:     model.MethodFileList,
		}, true
	}

	if len(in.Files) == 0 {
		if result, ok := catalogFilenameFallback(in); ok {
			return result, true
		}
	}

	return CatalogFilenameMatchResult{}, false
}

// catalogFilenameFallback implements Tier 2.5's required fallback: when the
// catalog exposes no files for the mod at all, there is no catalog filename
// to pair a staged archive against. Instead parse each staged archive's own
// filename and accept the first one whose embedded nexus_mod_id matches —
// no entry-match-ratio threshold applies here, since the id itself is the
// entire basis for the match.
func catalogFilenameFallback(in CatalogFilenameMatchInput) (CatalogFilenameMatchResult, bool) {
	names := make([]string, 0, len(in.StagedArchiveEntries))
	for name := range in.StagedArchiveEntries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		parsed := filenameparser.Parse(name)
		if parsed.NexusModID == 0 || parsed.NexusModID != in.NexusModID {
			continue
		}

		matchCounts := map[int64]int{}
		for _, e := range in.StagedArchiveEntries[name] {
			key := strings.ToLower(strings.ReplaceAll(e, "\\", "/"))
			if groupID, ok := in.LocalFileIndex[key]; ok {
				matchCounts[groupID]++
				continue
			}
			leaf := lastSegment(key)
			for path, gid := range in.LocalFileIndex {
				if lastSegment(path) == leaf {
					matchCounts[gid]++
					break
				}
			}
		}
		bestGroup, _ := bestMatchingGroup(matchCounts)

		return CatalogFilenameMatchResult{
			NexusModID: in.NexusModID,
			ModGroupID: bestGroup,
			Score:      0.92,
			Method:     model.MethodFileList,
		}, true
	}

	return CatalogFilenameMatchResult{}, false
}

// bestMatchingGroup picks the ModGroupID with the most matched entries.
func bestMatchingGroup(matchCounts map[int64]int) (int64, int) {
	bestGroup := int64(0)
	bestCount := -1
	for gid, count := range matchCounts {
		if count > bestCount {
			bestCount = count
			bestGroup = gid
		}
	}
	return bestGroup, bestCount
}

// EndorsedByNameInput is one (catalog mod, candidate ModGroup) pair for
// Tier 2.75.
type EndorsedByNameInput struct {
	NexusModID  int64
	CatalogName string
	ModGroupID  int64
	DisplayName string
}

// EndorsedByName implements Tier 2.75: run name similarity between an
// endorsed/tracked mod with no archive evidence and an uncorrelated
// ModGroup, accepting at the 0.55 threshold and boosting the recorded
// score to at least 0.85.
func EndorsedByName(in EndorsedByNameInput) (model.ModNexusCorrelation, bool) {
	score, _ := NameScore(in.CatalogName, in.DisplayName)
	if score < 0.55 {
		return model.ModNexusCorrelation{}, false
	}
	recorded := score
	if recorded < 0.85 {
		recorded = 0.85
	}
	return model.ModNexusCorrelation{
		ModGroupID: in.ModGroupID,
		NexusModID: in.NexusModID,
		Score:      recorded,
		Method:     model.MethodEndorsedName,
	}, true
}

// NameCorrelate implements Tier 3: pairwise name scoring between every
// uncorrelated ModGroup and NexusDownload, accepting at >= 0.55.
func NameCorrelate(groups []model.ModGroup, downloads []model.NexusDownload) []model.ModNexusCorrelation {
	var out []model.ModNexusCorrelation
	for _, g := range groups {
		for _, d := range downloads {
			name := d.ModName
			score, method := NameScore(name, g.DisplayName)
			if score < 0.55 {
				continue
			}
			out = append(out, model.ModNexusCorrelation{
				ModGroupID: g.ID,
				NexusModID: d.NexusModID,
				Score:      score,
				Method:     model.CorrelationMethod(method),
			})
		}
	}
	return DeduplicateByNexusID(out)
}

// ShouldPurgeStale reports whether a non-confirmed correlation established
// by a re-derivable method (exact/substring/fuzzy) should be purged because
// its score would no longer be met against current data. Evidence-based
// and user-confirmed correlations are never purged by this function — the
// caller must not call it for those.
func ShouldPurgeStale(c model.ModNexusCorrelation, currentScore float64) bool {
	if c.ConfirmedByUser {
		return false
	}
	switch c.Method {
	case model.MethodExact, model.MethodSubstring, model.MethodFuzzy:
		return currentScore < 0.55
	default:
		return false
	}
}

// DeduplicateByNexusID keeps only the highest-scoring correlation when one
// nexus_mod_id correlates to multiple ModGroups.
func DeduplicateByNexusID(correlations []model.ModNexusCorrelation) []model.ModNexusCorrelation {
	best := map[int64]model.ModNexusCorrelation{}
	var order []int64
	for _, c := range correlations {
		cur, ok := best[c.NexusModID]
		if !ok {
			order = append(order, c.NexusModID)
			best[c.NexusModID] = c
			continue
		}
		if c.Score > cur.Score {
			best[c.NexusModID] = c
		}
	}
	out := make([]model.ModNexusCorrelation, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}
