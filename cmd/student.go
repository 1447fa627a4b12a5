package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/aimentor/internal/prompt"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Create and inspect students",
}

var studentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a guest student",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.Students().Create(cmd.Context(), nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created student %d (%s)\n", st.ID, st.CurrentExpert)
		return nil
	},
}

var studentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a student's record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.Students().Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(st)
		}
		fmt.Fprintf(out, "Student %d, expert %s\n\n", st.ID, st.CurrentExpert)
		fmt.Fprintln(out, prompt.StudentContext(st))
		return nil
	},
}

func init() {
	studentShowCmd.Flags().Bool("json", false, "Print the raw JSON record")
	studentCmd.AddCommand(studentCreateCmd)
	studentCmd.AddCommand(studentShowCmd)
}
