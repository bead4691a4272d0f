// Package grouper clusters a game's on-disk ModFiles into ModGroups (spec
// §4.6, C6). It runs entirely in memory over values the caller has already
// scanned from disk — no filesystem or network access, so it is trivial to
// test as a pure function of its input slice.
package grouper

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

var (
	foldCase   = cases.Fold()
	titleCaser = cases.Title(language.Und)
)

// DefaultEps is the DBSCAN neighbourhood radius used for loose-file
// clustering when the caller doesn't override it.
const DefaultEps = 0.45

// Group is one clustering result: a display name, its member files, and a
// confidence in [0,1].
type Group struct {
	DisplayName string
	Files       []model.ModFile
	Confidence  float64
}

var (
	versionRe    = regexp.MustCompile(`(?i)[_\-.]?v?\d+\.\d+(\.\d+)?[_\-.]?`)
	separatorRe  = regexp.MustCompile(`[_\-.]+`)
	orderingPfx  = regexp.MustCompile(`(?i)^(#+|z{1,2})[ _\-.]*`)
	camelBoundRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// stripOrderingPrefix removes leading load-order hints like "#", "z", "zz".
func stripOrderingPrefix(name string) string {
	return orderingPfx.ReplaceAllString(name, "")
}

// splitCamel inserts a space at lower-to-upper case boundaries so
// "AppearanceMenuMod" tokenises as "Appearance Menu Mod".
func splitCamel(name string) string {
	return camelBoundRe.ReplaceAllString(name, "$1 $2")
}

// normalizeName strips ordering prefixes, file extension, version tokens,
// splits CamelCase, and collapses separators into single spaces — spec
// §4.6's exact normalisation procedure used by both loose-file clustering
// and cross-folder merge.
func normalizeName(name string) string {
	n := stripOrderingPrefix(name)
	if idx := strings.LastIndexByte(n, '.'); idx > 0 {
		n = n[:idx]
	}
	n = versionRe.ReplaceAllString(n, " ")
	n = splitCamel(n)
	n = separatorRe.ReplaceAllString(n, " ")
	return foldCase.String(strings.TrimSpace(n))
}

// cleanDisplayName turns a folder/group key into a human-presentable name:
// normalise, then title-case each token.
func cleanDisplayName(name string) string {
	normalized := normalizeName(name)
	if normalized == "" {
		return name
	}
	return titleCase(normalized)
}

func titleCase(s string) string {
	return titleCaser.String(s)
}

// extractModFolder returns the immediate subdirectory name under the file's
// mod-path, or "" when the file sits directly in the mod-path (a loose
// file). sourceFolder is the mod-path this file was scanned under (e.g.
// "bin/x64/plugins/cyber_engine_tweaks/mods").
func extractModFolder(relativePath, sourceFolder string) string {
	fp := strings.ReplaceAll(relativePath, "\\", "/")
	sf := strings.TrimRight(strings.ReplaceAll(sourceFolder, "\\", "/"), "/")
	prefix := sf + "/"
	if !strings.HasPrefix(fp, prefix) {
		return ""
	}
	remainder := fp[len(prefix):]
	idx := strings.IndexByte(remainder, '/')
	if idx < 0 {
		return ""
	}
	return remainder[:idx]
}

// SourceFolderFunc resolves the mod-path a given ModFile was scanned under,
// so the grouper can find the file's immediate subdirectory without
// requiring the caller to pre-join that information into ModFile itself.
type SourceFolderFunc func(f model.ModFile) string

// Group runs the three-phase grouping procedure over files and returns
// ordered Groups. eps is the DBSCAN radius for loose-file clustering; pass
// DefaultEps unless a caller needs to override it.
func Group(files []model.ModFile, sourceFolder SourceFolderFunc, eps float64) []Group {
	if len(files) == 0 {
		return nil
	}

	folderGroups := map[string][]model.ModFile{}
	var loose []model.ModFile
	for _, f := range files {
		sf := sourceFolder(f)
		folder := extractModFolder(f.RelativePath, sf)
		if folder != "" {
			folderGroups[folder] = append(folderGroups[folder], f)
		} else {
			loose = append(loose, f)
		}
	}

	var results []Group
	folderNames := make([]string, 0, len(folderGroups))
	for name := range folderGroups {
		folderNames = append(folderNames, name)
	}
	slices.Sort(folderNames)
	for _, name := range folderNames {
		results = append(results, Group{
			DisplayName: cleanDisplayName(name),
			Files:       folderGroups[name],
			Confidence:  1.0,
		})
	}

	if len(loose) > 0 {
		results = append(results, clusterLooseFiles(loose, sourceFolder, eps)...)
	}

	return mergeSameNameGroups(results)
}

func baseName(relativePath string) string {
	p := strings.ReplaceAll(relativePath, "\\", "/")
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

func parentDir(relativePath string) string {
	p := strings.ReplaceAll(relativePath, "\\", "/")
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		parent := p[:idx]
		if pidx := strings.LastIndexByte(parent, '/'); pidx >= 0 {
			return parent[pidx+1:]
		}
		return parent
	}
	return ""
}

// clusterLooseFiles tokenises loose files by normalised filename + parent
// directory, TF-IDF vectorises with char n-grams (2..4), and clusters on
// 1-cosine distance via DBSCAN(eps, min_samples=1).
func clusterLooseFiles(files []model.ModFile, sourceFolder SourceFolderFunc, eps float64) []Group {
	if len(files) == 1 {
		name := normalizeName(baseName(files[0].RelativePath))
		if name == "" {
			name = baseName(files[0].RelativePath)
		}
		return []Group{{DisplayName: titleCase(name), Files: files, Confidence: 1.0}}
	}

	docs := make([]string, len(files))
	for i, f := range files {
		normalized := normalizeName(baseName(f.RelativePath))
		parent := parentDir(f.RelativePath)
		doc := strings.TrimSpace(normalized + " " + parent)
		docs[i] = doc
	}

	vectors := tfidfCharNgrams(docs, 2, 4)
	n := len(files)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sim[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			s := cosineSimilarity(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := 1.0 - sim[i][j]
			if d < 0 {
				d = 0
			}
			dist[i][j] = d
		}
	}

	labels := dbscan(dist, eps, 1)

	clusters := map[int][]int{}
	var order []int
	for idx, label := range labels {
		if _, ok := clusters[label]; !ok {
			order = append(order, label)
		}
		clusters[label] = append(clusters[label], idx)
	}
	slices.Sort(order)

	var groups []Group
	for _, label := range order {
		indices := clusters[label]
		clusterFiles := make([]model.ModFile, len(indices))
		stems := make([]string, len(indices))
		for i, idx := range indices {
			clusterFiles[i] = files[idx]
			stems[i] = normalizeName(baseName(files[idx].RelativePath))
		}
		longest := ""
		for _, s := range stems {
			if len(s) > len(longest) {
				longest = s
			}
		}
		groupName := titleCase(longest)
		if groupName == "" {
			groupName = baseName(clusterFiles[0].RelativePath)
		}

		confidence := 1.0
		if len(indices) > 1 {
			var total float64
			var count int
			for a := 0; a < len(indices); a++ {
				for b := a + 1; b < len(indices); b++ {
					total += sim[indices[a]][indices[b]]
					count++
				}
			}
			if count > 0 {
				confidence = total / float64(count)
			}
		}

		groups = append(groups, Group{
			DisplayName: groupName,
			Files:       clusterFiles,
			Confidence:  round3(confidence),
		})
	}

	return groups
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// mergeSameNameGroups merges groups whose normalised display names are
// identical (cross-folder merge, spec §4.6 phase 3). The longest display
// name wins; confidence is the min across merged groups.
func mergeSameNameGroups(groups []Group) []Group {
	buckets := map[string][]int{}
	for idx, g := range groups {
		key := normalizeName(g.DisplayName)
		buckets[key] = append(buckets[key], idx)
	}

	seen := map[int]bool{}
	var merged []Group
	for idx, g := range groups {
		if seen[idx] {
			continue
		}
		key := normalizeName(g.DisplayName)
		indices := buckets[key]
		if len(indices) == 1 {
			merged = append(merged, g)
			continue
		}
		bestName := g.DisplayName
		bestConf := g.Confidence
		var combined []model.ModFile
		for _, i := range indices {
			seen[i] = true
			combined = append(combined, groups[i].Files...)
			if len(groups[i].DisplayName) > len(bestName) {
				bestName = groups[i].DisplayName
			}
			if groups[i].Confidence < bestConf {
				bestConf = groups[i].Confidence
			}
		}
		merged = append(merged, Group{DisplayName: bestName, Files: combined, Confidence: bestConf})
	}
	return merged
}
