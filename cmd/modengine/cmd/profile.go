package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "manage mod profiles (snapshot, load, export, import, compare, duplicate)",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "snapshot every installed mod's current enabled state into a new profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}
		p := profile.Create(gameIDFlag, uuid.NewString(), args[0], mods)
		if err := db.SaveProfile(p); err != nil {
			return err
		}
		fmt.Printf("created profile %q (id=%s) with %d entries\n", p.Name, p.ID, len(p.Entries))
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "list profiles for the current game",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := db.Profiles(gameIDFlag)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			fmt.Printf("%s  %s\n", p.ID, p.Name)
		}
		return nil
	},
}

var profileLoadCmd = &cobra.Command{
	Use:   "load <profile-id>",
	Short: "toggle every installed mod to match a profile's snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGameRoot(); err != nil {
			return err
		}
		p, err := db.Profile(args[0])
		if err != nil {
			return err
		}
		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}

		writer := newGameRootWriter(cfg.GameRoot)
		installer := newToggler(writer)

		if err := profile.Load(p, mods, installer); err != nil {
			return err
		}
		fmt.Printf("loaded profile %q\n", p.Name)
		return nil
	},
}

var profileExportCmd = &cobra.Command{
	Use:   "export <profile-id> <output-path>",
	Short: "export a profile to a portable JSON document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := db.Profile(args[0])
		if err != nil {
			return err
		}
		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}
		data, err := profile.Export(p, fmt.Sprintf("game:%d", gameIDFlag), mods, time.Now())
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0644); err != nil {
			return err
		}
		fmt.Printf("exported profile %q to %s\n", p.Name, args[1])
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <input-path> <name>",
	Short: "import a portable JSON profile document, matching mods by name then Nexus mod ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		mods, err := db.InstalledMods(gameIDFlag)
		if err != nil {
			return err
		}
		_, entries, err := profile.Import(data, mods)
		if err != nil {
			return err
		}
		p := model.Profile{ID: uuid.NewString(), GameID: gameIDFlag, Name: args[1], Entries: entries}
		if err := db.SaveProfile(p); err != nil {
			return err
		}
		fmt.Printf("imported profile %q (id=%s) with %d matched entries\n", p.Name, p.ID, len(p.Entries))
		return nil
	},
}

var profileCompareCmd = &cobra.Command{
	Use:   "compare <profile-id-a> <profile-id-b>",
	Short: "show which mods were added, removed, or changed state between two profiles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := db.Profile(args[0])
		if err != nil {
			return err
		}
		b, err := db.Profile(args[1])
		if err != nil {
			return err
		}
		cmp := profile.Compare(a, b)
		fmt.Printf("added: %v\n", cmp.Added)
		fmt.Printf("removed: %v\n", cmp.Removed)
		fmt.Printf("state_changed: %v\n", cmp.StateChanged)
		return nil
	},
}

var profileDuplicateCmd = &cobra.Command{
	Use:   "duplicate <profile-id> <new-name>",
	Short: "clone a profile's entries under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := db.Profile(args[0])
		if err != nil {
			return err
		}
		dup := profile.Duplicate(p, uuid.NewString(), args[1])
		if err := db.SaveProfile(dup); err != nil {
			return err
		}
		fmt.Printf("duplicated profile %q as %q (id=%s)\n", p.Name, dup.Name, dup.ID)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile-id>",
	Short: "delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.DeleteProfile(args[0]); err != nil {
			return err
		}
		fmt.Println("deleted profile", args[0])
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileLoadCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileCompareCmd)
	profileCmd.AddCommand(profileDuplicateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
