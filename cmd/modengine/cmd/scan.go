package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/grouper"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "walk the game's mod paths and group loose files into mods",
	Long: `scan walks every configured mod path under the game root (archive/pc/mod,
bin/x64/plugins/cyber_engine_tweaks/mods, red4ext/plugins, r6/scripts,
r6/tweaks, bin/x64/plugins, mods), replaces the on-disk ModFile set
wholesale, and clusters them into ModGroups by folder structure, filename
similarity, and loose-file TF-IDF/DBSCAN clustering.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}

		files, err := walkModPaths(cfg.GameRoot, gameIDFlag)
		if err != nil {
			return err
		}
		groups := grouper.Group(files, sourceFolderForFile, grouper.DefaultEps)

		fmt.Printf("scanned %d files into %d groups\n", len(files), len(groups))
		for _, g := range groups {
			fmt.Printf("  %-40s confidence=%.2f files=%d\n", g.DisplayName, g.Confidence, len(g.Files))
		}
		return nil
	},
}

// modPaths lists the mod-bearing directories under a game root that scan
// and correlate both walk, matching CYBERPUNK_DEFAULT_PATHS. Order doesn't
// matter for walking, but sourceFolderForFile below must still prefer the
// longest matching root: bin/x64/plugins is itself a prefix of
// bin/x64/plugins/cyber_engine_tweaks/mods, so a naive first-match lookup
// would misclassify every CET mod's files as ASI/plugin loader files.
var modPaths = []string{
	"archive/pc/mod",
	"bin/x64/plugins/cyber_engine_tweaks/mods",
	"red4ext/plugins",
	"r6/scripts",
	"r6/tweaks",
	"bin/x64/plugins",
	"mods",
}

// walkModPaths replaces the on-disk ModFile set wholesale by walking every
// configured mod path under root.
func walkModPaths(root string, gameID int64) ([]model.ModFile, error) {
	var files []model.ModFile
	for _, mp := range modPaths {
		dir := filepath.Join(root, filepath.FromSlash(mp))
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, model.ModFile{
				GameID:       gameID,
				RelativePath: filepath.ToSlash(rel),
				Size:         info.Size(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", mp, err)
		}
	}
	return files, nil
}

// sourceFolderForFile reports the mod-path a scanned file lives under,
// grouper's signal for which root a loose file came from. When more than
// one configured root is a prefix of the file's path (bin/x64/plugins vs.
// bin/x64/plugins/cyber_engine_tweaks/mods), the longest, most specific
// root wins so CET-nested files group by their own mod folder instead of
// the shallow ASI-loader root.
func sourceFolderForFile(f model.ModFile) string {
	best := ""
	for _, root := range modPaths {
		if f.RelativePath != root && !strings.HasPrefix(f.RelativePath, root+"/") {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
