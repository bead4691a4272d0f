package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/conflict"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "scan installed mods for archive, redscript, and tweak collisions",
	Long: `conflicts runs every registered detector (archive resource, archive entry,
redscript target, tweak key) against every enabled installed mod and
prints the merged, severity-sorted evidence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}

		game := model.Game{ID: gameIDFlag, InstallPath: cfg.GameRoot}

		readFile := func(modID int64, relativePath string) (string, error) {
			data, err := os.ReadFile(filepath.Join(cfg.GameRoot, filepath.FromSlash(relativePath)))
			if err != nil {
				return "", err
			}
			return string(data), nil
		}

		analyzer := conflict.NewAnalyzer(readFile)
		evidence, err := analyzer.Analyze(game, mods)
		if err != nil {
			return err
		}

		entries, err := db.ArchiveEntries(gameIDFlag)
		if err != nil {
			return err
		}
		evidence = append(evidence, conflict.DetectArchiveCollisions(game, entries)...)
		severityOrder := map[model.Severity]int{model.SeverityHigh: 0, model.SeverityMedium: 1, model.SeverityLow: 2}
		sort.SliceStable(evidence, func(i, j int) bool {
			return severityOrder[evidence[i].Severity] < severityOrder[evidence[j].Severity]
		})

		if len(evidence) == 0 {
			fmt.Println("no conflicts detected")
			return nil
		}
		for _, e := range evidence {
			fmt.Printf("[%s] %-22s %-30s mods=%v winner=%v\n", severityColor(e.Severity), e.Kind, e.Key, e.ModIDs, winnerString(e.WinnerModID))
		}
		return nil
	},
}

func winnerString(id *int64) string {
	if id == nil {
		return "ambiguous"
	}
	return fmt.Sprintf("%d", *id)
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}
