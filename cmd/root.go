package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/aimentor/internal/config"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "aimentor",
	Short: "AI mentor for programming courses",
	Long: "aimentor runs a tutoring dialogue in which a chain of AI experts " +
		"registers a student, interviews them, teaches the chosen course and tests them.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Database DSN (overrides database.dsn and AIMENTOR_DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(studentCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// openStore connects to the configured database and creates missing tables.
func openStore(cfg *config.Config) (*store.Store, error) {
	dialect, dsn, err := cfg.DatabaseTarget()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	s, err := store.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// connectStore opens the configured database without touching the schema.
func connectStore(cfg *config.Config) (*store.Store, error) {
	dialect, dsn, err := cfg.DatabaseTarget()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	s, err := store.Connect(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return s, nil
}
