package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/correlate"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/grouper"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// maxConcurrentModInfoLookups bounds the tracked/endorsed mod-info fan-out,
// mirroring internal/update's ResolveFilesConcurrently bound.
const maxConcurrentModInfoLookups = 5

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "match scanned mod groups against tracked and endorsed Nexus mods by name",
	Long: `correlate groups loose files the same way scan does, then runs Tier 3 name
correlation (internal/correlate.NameCorrelate) against every mod the user
tracks or has endorsed on Nexus. It does not attempt MD5 or archive
filename matching (Tiers 0.5/2/2.5), which require staging every managed
archive; no command of this CLI runs those tiers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}
		if err := requireCatalog(); err != nil {
			return err
		}

		ctx := context.Background()

		files, err := walkModPaths(cfg.GameRoot, gameIDFlag)
		if err != nil {
			return err
		}
		grouped := grouper.Group(files, sourceFolderForFile, grouper.DefaultEps)
		groups := make([]model.ModGroup, len(grouped))
		for i, g := range grouped {
			groups[i] = model.ModGroup{
				ID:          int64(i + 1),
				GameID:      gameIDFlag,
				DisplayName: g.DisplayName,
				Confidence:  g.Confidence,
				Files:       g.Files,
			}
		}

		candidates, err := trackedAndEndorsedDownloads(ctx)
		if err != nil {
			fmt.Printf("warning: some tracked/endorsed mods could not be fetched: %v\n", err)
		}

		correlations := correlate.NameCorrelate(groups, candidates)
		if len(correlations) == 0 {
			fmt.Println("no name correlations found above the acceptance threshold")
			return nil
		}
		byID := make(map[int64]model.ModGroup, len(groups))
		for _, g := range groups {
			byID[g.ID] = g
		}
		for _, c := range correlations {
			fmt.Printf("%-40s -> nexus mod %d (score=%.2f, method=%s)\n",
				byID[c.ModGroupID].DisplayName, c.NexusModID, c.Score, c.Method)
		}
		return nil
	},
}

// trackedAndEndorsedDownloads fetches GetModInfo for every distinct mod ID
// the user tracks or has endorsed, bounding the fan-out the same way
// internal/update.ResolveFilesConcurrently does, and accumulating per-mod
// failures via go-multierror instead of aborting the whole batch.
func trackedAndEndorsedDownloads(ctx context.Context) ([]model.NexusDownload, error) {
	tracked, err := cat.GetTrackedMods(ctx)
	if err != nil {
		return nil, err
	}
	endorsed, err := cat.GetEndorsements(ctx)
	if err != nil {
		return nil, err
	}

	isTracked := make(map[int64]bool, len(tracked))
	for _, r := range tracked {
		isTracked[r.ModID] = true
	}
	isEndorsed := make(map[int64]bool, len(endorsed))
	for _, e := range endorsed {
		isEndorsed[e.ModID] = true
	}

	seen := make(map[int64]bool, len(tracked)+len(endorsed))
	var modIDs []int64
	for _, r := range tracked {
		if !seen[r.ModID] {
			seen[r.ModID] = true
			modIDs = append(modIDs, r.ModID)
		}
	}
	for _, r := range endorsed {
		if !seen[r.ModID] {
			seen[r.ModID] = true
			modIDs = append(modIDs, r.ModID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentModInfoLookups)

	var (
		mu      sync.Mutex
		results []model.NexusDownload
		errs    *multierror.Error
	)
	for _, modID := range modIDs {
		modID := modID
		g.Go(func() error {
			info, err := cat.GetModInfo(gctx, cfg.CatalogDomain, modID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("mod %d: %w", modID, err))
				return nil
			}
			results = append(results, model.NexusDownload{
				GameID:     gameIDFlag,
				NexusModID: modID,
				ModName:    info.Name,
				Version:    info.Version,
				IsTracked:  isTracked[modID],
				IsEndorsed: isEndorsed[modID],
			})
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		return results, errs.ErrorOrNil()
	}
	return results, nil
}

func init() {
	rootCmd.AddCommand(correlateCmd)
}
