package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/codequiz/internal/config"
	"github.com/abhisek/codequiz/internal/store"
	"github.com/abhisek/codequiz/internal/ui/theme"
)

// cfg and logger are resolved once in PersistentPreRunE.
var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "codequiz",
	Short:         "Adaptive programming quizzes generated by an LLM",
	Long:          "codequiz serves generated code-comprehension questions, judges answers and tracks a per-topic skill score for every user.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to TOML config file (default $XDG_CONFIG_HOME/codequiz/config.toml)")
	pf.String("db", "", "SQLite path or postgres:// DSN (overrides CODEQUIZ_DB)")
	pf.StringSlice("env-file", []string{".env"}, "dotenv files to load before reading the environment")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration: defaults, TOML file, dotenv files,
// CODEQUIZ_* variables, then flags.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")

	c, err := config.Load(path, envFiles...)
	if err != nil {
		return err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Log.Level = lvl
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	theme.Enabled = !noColor && os.Getenv("NO_COLOR") == ""

	cfg = c
	logger = cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return nil
}

// resolveDBPath returns the database DSN using --db flag (highest
// priority), then the config file and CODEQUIZ_DB, then the default XDG
// path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Store.DSN != "" {
		return cfg.Store.DSN, store.EnsureDir(cfg.Store.DSN)
	}
	return store.DefaultDBPath()
}

// openStore opens the database selected by resolveDBPath.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dsn, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.OpenContext(cmd.Context(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
