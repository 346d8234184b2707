package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/ronpa/internal/config"
	"github.com/abhisek/ronpa/internal/logging"
	"github.com/abhisek/ronpa/internal/store"
)

// Resolved in PersistentPreRunE for every subcommand.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ronpa",
	Short:         "Debate sparring coach",
	Long:          "Ronpa is a debate sparring partner: argue a motion, get streamed rebuttals, scores and hints, or run the streaming proxy that serves them.",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		v, err := config.InitViper(path)
		if err != nil {
			return err
		}
		if err := config.Bind(v, cmd.Flags()); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
		cfg, err = config.FromViper(v)
		if err != nil {
			return err
		}
		logger = logging.New(logging.WithDebug(cfg.Debug), logging.WithPretty(true))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides RONPA_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sparCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db / db.path (highest
// priority), then RONPA_DB env var, then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the resolved database.
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
