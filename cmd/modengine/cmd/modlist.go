package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/loadorder"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

var modlistCmd = &cobra.Command{
	Use:   "modlist",
	Short: "resolve and write archive/pc/mod/modlist.txt",
	Long: `modlist groups installed mods' .archive files with any unmanaged archives
on disk, resolves them against recorded load-order preferences with
Kahn's algorithm, and writes the result to archive/pc/mod/modlist.txt.
A preference cycle falls back to default (ASCII filename) order for the
groups involved rather than failing the whole resolve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}

		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}

		modPathRoot := filepath.Join(cfg.GameRoot, "archive", "pc", "mod")
		unmanaged, err := unmanagedArchives(modPathRoot, mods)
		if err != nil {
			return err
		}

		groups := loadorder.BuildGroups(mods, unmanaged)

		prefs, err := db.Preferences(gameIDFlag)
		if err != nil {
			return err
		}
		edges := loadorder.BuildEdges(prefs, groups)

		result := loadorder.ResolveOrder(groups, edges)
		if len(result.CycleKeys) > 0 {
			fmt.Fprintf(os.Stderr, "warning: preference cycle detected among %v, falling back to default order for them\n", result.CycleKeys)
		}

		lines := loadorder.BuildModlistLines(result.Order)
		if err := loadorder.WriteModlist(modPathRoot, lines); err != nil {
			return err
		}

		fmt.Printf("wrote modlist.txt with %d entries\n", len(lines))
		return nil
	},
}

// unmanagedArchives lists .archive filenames under modPathRoot that no
// InstalledMod owns.
func unmanagedArchives(modPathRoot string, mods []model.InstalledMod) ([]string, error) {
	owned := map[string]bool{}
	for _, m := range mods {
		for _, f := range m.Files {
			if strings.HasSuffix(strings.ToLower(f.RelativePath), ".archive") {
				owned[strings.ToLower(filepath.Base(f.RelativePath))] = true
			}
		}
	}

	entries, err := os.ReadDir(modPathRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var unmanaged []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".archive") {
			continue
		}
		if !owned[strings.ToLower(name)] {
			unmanaged = append(unmanaged, name)
		}
	}
	return unmanaged, nil
}

var modlistPreferCmd = &cobra.Command{
	Use:   "modlist-prefer <winner-mod-id> <loser-mod-id>",
	Short: "record that one mod must load before another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		winner, err := parseInt64(args[0])
		if err != nil {
			return fmt.Errorf("invalid winner mod id: %w", err)
		}
		loser, err := parseInt64(args[1])
		if err != nil {
			return fmt.Errorf("invalid loser mod id: %w", err)
		}

		existing, err := db.Preferences(gameIDFlag)
		if err != nil {
			return err
		}

		edges := make([]loadorder.LoadOrderPreferenceEdge, len(existing))
		for i, p := range existing {
			edges[i] = loadorder.LoadOrderPreferenceEdge{WinnerModID: p.WinnerModID, LoserModID: p.LoserModID}
		}
		edges = loadorder.AddPreference(edges, winner, loser)

		updated := make([]model.LoadOrderPreference, 0, len(edges))
		for _, e := range edges {
			updated = append(updated, loadorder.NewPreference(gameIDFlag, e.WinnerModID, e.LoserModID))
		}

		if err := db.SavePreferences(gameIDFlag, updated); err != nil {
			return err
		}
		fmt.Printf("recorded: mod %d loads before mod %d\n", winner, loser)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modlistCmd)
	rootCmd.AddCommand(modlistPreferCmd)
}
