package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/aimentor/internal/command"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the mentor from the terminal",
	Long: "Reads lines from stdin and sends each as a chat message for the student. " +
		"Without --student a new guest student is created.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Log.Mode = "prod"
		cfg.Log.Level = "warn"
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		d, err := buildDeps(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer d.Close()

		studentID, _ := cmd.Flags().GetInt64("student")
		if studentID == 0 {
			st, err := d.edu.CreateGuestStudent(ctx)
			if err != nil {
				return fmt.Errorf("create student: %w", err)
			}
			studentID = st.ID
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "student %d; empty line or Ctrl-D to quit\n", studentID)

		in := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				return in.Err()
			}
			text := strings.TrimSpace(in.Text())
			if text == "" {
				return nil
			}

			reply, err := d.chat.SendMessage(ctx, studentID, text)
			if reply != nil {
				fmt.Fprintln(out, reply.UserMessage)
				printResults(out, reply.Results)
			}
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		}
	},
}

func printResults(w io.Writer, results []command.Result) {
	for _, r := range results {
		line := fmt.Sprintf("  [%s] %s", r.Status, r.Command)
		if r.Detail != "" {
			line += ": " + r.Detail
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	chatCmd.Flags().Int64("student", 0, "Student id to talk as")
}
