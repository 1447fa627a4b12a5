package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := connectStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "tables created")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop all tables and their data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to drop tables without --yes")
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := connectStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Drop(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "tables dropped")
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().Bool("yes", false, "Confirm dropping every table")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
