package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/archive"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/cache"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/catalog"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/config"
	"github.com/Y4rd13/rippermod-manager-sub000/internal/store"
)

var (
	gameRootFlag string
	gameIDFlag   int64
	verbose      bool

	cfg       *config.Config
	db        *store.Store
	dataCache *cache.Cache
	cat       catalog.Client
	extractor *archive.Extractor
)

// rootCmd is the base command when modengine is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "modengine",
	Short: "correlation, conflict, and load-order engine for RED engine mods",
	Long: `modengine scans a Cyberpunk 2077 installation, groups its loose files into
mods, correlates them against Nexus Mods, detects archive/redscript/tweak
conflicts, plans load order, installs staged archives, and checks tracked
mods for updates.`,
	Version:           "1.0.0",
	PersistentPreRunE: bootstrap,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
		if dataCache != nil {
			dataCache.Close()
		}
	},
}

// Execute runs the root command. Called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gameRootFlag, "game-root", "",
		"Cyberpunk 2077 installation directory (overrides GAME_ROOT)")
	rootCmd.PersistentFlags().Int64Var(&gameIDFlag, "game-id", 1,
		"configured game ID to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose output")
}

// bootstrap loads configuration and wires the resources every subcommand
// shares, in the same order the original HTTP server constructed them:
// config first, then the storage/cache layer, then the catalog client.
func bootstrap(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if gameRootFlag != "" {
		loaded.GameRoot = gameRootFlag
	}
	cfg = loaded

	db, err = store.Open(filepath.Join(cfg.DataDir, "modengine.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	dataCache, err = cache.New(cache.Config{
		DBPath: filepath.Join(cfg.DataDir, "cache.db"),
		TTL:    cache.UpdateCheckTTL,
	})
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	extractor, err = archive.NewExtractor(archive.ExtractorConfig{
		TempDir: filepath.Join(cfg.DataDir, "extracted"),
	})
	if err != nil {
		return fmt.Errorf("build extractor: %w", err)
	}

	if cfg.NexusAPIKey != "" {
		httpClient, err := catalog.NewHTTPClient(catalog.ClientConfig{APIKey: cfg.NexusAPIKey})
		if err != nil {
			return fmt.Errorf("build catalog client: %w", err)
		}
		cat = catalog.NewMemoCachedClient(httpClient, 256)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "game root: %s, data dir: %s\n", cfg.GameRoot, cfg.DataDir)
	}

	return nil
}

// requireCatalog fails a subcommand early with a clear message when no
// NEXUS_API_KEY was configured, instead of letting a nil Client panic deep
// inside internal/correlate or internal/update.
func requireCatalog() error {
	if cat == nil {
		return fmt.Errorf("NEXUS_API_KEY is not configured; set it in the environment or .env file")
	}
	return nil
}

// requireGameRoot fails a subcommand early when no game root is known.
func requireGameRoot() error {
	if cfg.GameRoot == "" {
		return fmt.Errorf("no game root configured; pass --game-root or set GAME_ROOT")
	}
	return nil
}
