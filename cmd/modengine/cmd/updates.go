package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/catalog"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/update"
)

var forceUpdateCheck bool

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "check tracked, Nexus-correlated mods for available updates",
	Long: `updates assembles each installed mod's local state, evaluates the three
independent update signals (newer file timestamp, newer version, a newer
download-date than what the user fetched), resolves the specific catalog
file matching the user's edition for mods with an update, and caches the
unified report for 24 hours.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCatalog(); err != nil {
			return err
		}

		ctx := context.Background()

		if !forceUpdateCheck {
			if report, err := update.Load(ctx, dataCache, gameIDFlag); err == nil {
				printReport(report)
				return nil
			}
		}

		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}

		var states []update.TrackedModState
		trackedMod := map[int64]model.InstalledMod{}
		for _, m := range mods {
			if m.NexusModID == 0 {
				continue
			}
			trackedMod[m.NexusModID] = m
			states = append(states, update.TrackedModState{
				NexusModID:     m.NexusModID,
				LocalVersion:   m.InstalledVersion,
				LocalFileMTime: m.InstalledAt,
				SourceArchive:  m.SourceArchive,
			})
		}

		var decisions []update.Decision
		for _, s := range states {
			filesResult, err := cat.GetModFiles(ctx, cfg.CatalogDomain, s.NexusModID, "main")
			if err != nil {
				continue
			}
			latestTS, latestVersion := latestMainFile(filesResult)
			decisions = append(decisions, update.DecideUpdate(s, latestTS, latestVersion))
		}

		needResolve := make([]update.TrackedModState, 0, len(decisions))
		byNexusID := make(map[int64]update.TrackedModState, len(states))
		for _, s := range states {
			byNexusID[s.NexusModID] = s
		}
		for _, d := range decisions {
			if d.HasUpdate {
				needResolve = append(needResolve, byNexusID[d.NexusModID])
			}
		}

		resolutions, err := update.ResolveFilesConcurrently(ctx, needResolve, resolveFile)
		if err != nil {
			fmt.Printf("warning: file resolution failed for some of %d mod(s): %v\n", len(needResolve), err)
		}

		for i, d := range decisions {
			resolved, ok := resolutions[d.NexusModID]
			if !ok {
				continue
			}
			decisions[i] = update.FalsePositiveFilter(d, resolved, byNexusID[d.NexusModID])
		}
		update.SortDecisions(decisions)

		report := update.Report{
			GameID:      gameIDFlag,
			CheckedAt:   time.Now(),
			Decisions:   decisions,
			Resolutions: resolutions,
		}
		if err := update.Store(ctx, dataCache, report); err != nil {
			fmt.Printf("warning: failed to cache update report: %v\n", err)
		}

		printReport(report)
		return nil
	},
}

// resolveFile is the update.FileFetcher used by ResolveFilesConcurrently:
// it re-fetches one mod's file list and applies the match ordering.
func resolveFile(ctx context.Context, mod update.TrackedModState) (update.ResolvedFile, bool, error) {
	filesResult, err := cat.GetModFiles(ctx, cfg.CatalogDomain, mod.NexusModID, "main")
	if err != nil {
		return update.ResolvedFile{}, false, err
	}

	files := make([]model.NexusModFile, len(filesResult.Files))
	for i, f := range filesResult.Files {
		files[i] = model.NexusModFile{
			NexusModID:        mod.NexusModID,
			FileID:            f.FileID,
			FileName:          f.FileName,
			Version:           f.Version,
			CategoryID:        model.NexusModFileCategory(f.CategoryID),
			UploadedTimestamp: time.Unix(f.UploadedTimestamp, 0).UTC(),
			FileSize:          f.FileSize,
		}
	}
	edges := make([]update.FileUpdateEdge, len(filesResult.FileUpdates))
	for i, u := range filesResult.FileUpdates {
		edges[i] = update.FileUpdateEdge{OldFileID: u.OldFileID, NewFileID: u.NewFileID}
	}

	stem := stemOfArchive(mod.SourceArchive)
	return update.ResolveFile(stem, mod.LocalFileMTime, mod.LocalVersion, files, edges)
}

func stemOfArchive(archivePath string) string {
	base := filepath.Base(archivePath)
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		return base[:idx]
	}
	return base
}

func latestMainFile(r catalog.ModFilesResult) (time.Time, string) {
	var latest catalog.ModFile
	for _, f := range r.Files {
		if f.CategoryID != int(model.CategoryMain) {
			continue
		}
		if f.UploadedTimestamp > latest.UploadedTimestamp {
			latest = f
		}
	}
	return time.Unix(latest.UploadedTimestamp, 0).UTC(), latest.Version
}

func printReport(r update.Report) {
	if len(r.Decisions) == 0 {
		fmt.Println("no tracked, Nexus-correlated mods to check")
		return
	}
	for _, d := range r.Decisions {
		if !d.HasUpdate {
			continue
		}
		method := d.Method()
		if method == "" {
			method = "download_date"
		}
		label := colorize(ansiYellow, "update available")
		resolved, ok := r.Resolutions[d.NexusModID]
		if ok {
			fmt.Printf("mod %d: %s (%s) -> file %d, version %s\n",
				d.NexusModID, label, method, resolved.OfferedFileID, resolved.MatchedVersion)
		} else {
			fmt.Printf("mod %d: %s (%s)\n", d.NexusModID, label, method)
		}
	}
}

func init() {
	updatesCmd.Flags().BoolVar(&forceUpdateCheck, "force", false, "bypass the 24h cache and recheck now")
	rootCmd.AddCommand(updatesCmd)
}
