package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/install"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/layout"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

var (
	installArchive     string
	installName        string
	installVersion     string
	installNexusModID  int64
	installNexusFileID int64
	installMaxEntrySize int64
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "install a staged archive into the game tree",
	Long: `install opens a staged mod archive, classifies its root layout (standard,
wrapped, or FOMOD), and if it isn't a FOMOD package, extracts it into the
game root with ownership tracking and .archive indexing.

FOMOD archives need an interactive install-step wizard and are rejected
here; drive internal/fomod's evaluator directly for those.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}
		if installArchive == "" {
			return fmt.Errorf("--archive is required")
		}
		if installName == "" {
			return fmt.Errorf("--name is required")
		}

		reader := newStagedArchiveReader(extractor)
		defer reader.cleanup()

		entries, err := reader.ListEntries(installArchive)
		if err != nil {
			return fmt.Errorf("list archive entries: %w", err)
		}
		paths := make([]string, len(entries))
		for i, e := range entries {
			paths[i] = e.Path
		}

		result := layout.Detect(paths, model.KnownRoots)
		if result.Kind == layout.Fomod {
			return fmt.Errorf("archive %s is a FOMOD package; run the FOMOD install wizard instead", installArchive)
		}
		if result.Kind == layout.Unknown {
			return fmt.Errorf("archive %s has no recognizable root layout", installArchive)
		}

		writer := newGameRootWriter(cfg.GameRoot)
		installer := install.NewInstaller(reader, writer, db)

		res, err := installer.Install(install.InstallRequest{
			GameID:       gameIDFlag,
			GameRoot:     cfg.GameRoot,
			ArchivePath:  installArchive,
			Name:         installName,
			Version:      installVersion,
			NexusModID:   installNexusModID,
			NexusFileID:  installNexusFileID,
			StripPrefix:  result.StripPrefix,
			MaxEntrySize: installMaxEntrySize,
		})
		if err != nil {
			return err
		}

		fmt.Printf("installed %q (id=%d): extracted=%d skipped=%d overwritten=%d\n",
			installName, res.InstalledModID, res.Extracted, res.Skipped, res.Overwritten)
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <installed-mod-id>",
	Short: "remove an installed mod's owned files and record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}
		id, err := parseInt64(args[0])
		if err != nil {
			return fmt.Errorf("invalid installed mod id: %w", err)
		}

		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}
		var target *model.InstalledMod
		for i := range mods {
			if mods[i].ID == id {
				target = &mods[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no installed mod with id %d", id)
		}

		writer := newGameRootWriter(cfg.GameRoot)
		installer := install.NewInstaller(nil, writer, db)
		if err := installer.Uninstall(*target); err != nil {
			return err
		}
		fmt.Printf("uninstalled %q\n", target.Name)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <installed-mod-id>",
	Short: "enable or disable an installed mod",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}
		id, err := parseInt64(args[0])
		if err != nil {
			return fmt.Errorf("invalid installed mod id: %w", err)
		}

		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}
		var target *model.InstalledMod
		for i := range mods {
			if mods[i].ID == id {
				target = &mods[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no installed mod with id %d", id)
		}

		writer := newGameRootWriter(cfg.GameRoot)
		installer := install.NewInstaller(nil, writer, db)
		disable := !target.Disabled
		if err := installer.Toggle(*target, disable); err != nil {
			return err
		}
		state := "enabled"
		if disable {
			state = "disabled"
		}
		fmt.Printf("%s %q\n", state, target.Name)
		return nil
	},
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func init() {
	installCmd.Flags().StringVar(&installArchive, "archive", "", "path to the staged archive")
	installCmd.Flags().StringVar(&installName, "name", "", "display name for the installed mod")
	installCmd.Flags().StringVar(&installVersion, "version", "", "installed version string")
	installCmd.Flags().Int64Var(&installNexusModID, "nexus-mod-id", 0, "known Nexus mod ID, if any")
	installCmd.Flags().Int64Var(&installNexusFileID, "nexus-file-id", 0, "known Nexus file ID, if any")
	installCmd.Flags().Int64Var(&installMaxEntrySize, "max-entry-size", 0, "reject any single extracted entry larger than this many bytes (0 = unlimited)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(toggleCmd)
}
