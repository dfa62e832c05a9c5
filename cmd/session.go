package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/ui/theme"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect practice sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list <user>",
	Short: "List a user's sessions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rec := session.NewRecorder(st.SessionRepo(), logger)
		sessions, err := rec.ListByUser(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No sessions for %s.\n", args[0])
			return nil
		}

		now := time.Now()
		rows := make([][]string, 0, len(sessions))
		for _, s := range sessions {
			sum := session.Summarize(s, now)
			status := "open"
			if sum.Ended {
				status = "ended"
			}
			rows = append(rows, []string{
				s.ID,
				s.Topic,
				s.StartedAt.Local().Format("2006-01-02 15:04"),
				sum.Duration.Round(time.Second).String(),
				strconv.Itoa(sum.Attempted),
				theme.Percent(sum.Accuracy),
				status,
			})
		}
		fmt.Fprint(cmd.OutOrStdout(), theme.Table(
			[]string{"ID", "Topic", "Started", "Duration", "Attempted", "Accuracy", "Status"}, rows))
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		s, err := session.NewRecorder(st.SessionRepo(), logger).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSession(cmd, s, session.Summarize(s, time.Now()))
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <id>",
	Short: "End an open session now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		s, err := session.NewRecorder(st.SessionRepo(), logger).EndNow(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSession(cmd, s, session.Summarize(s, time.Now()))
		return nil
	},
}

func printSession(cmd *cobra.Command, s session.Session, sum session.Summary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:        %s\n", s.ID)
	fmt.Fprintf(w, "User:      %s\n", s.UserID)
	if s.Topic != "" {
		fmt.Fprintf(w, "Topic:     %s\n", s.Topic)
	}
	fmt.Fprintf(w, "Started:   %s\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if s.EndedAt != nil {
		fmt.Fprintf(w, "Ended:     %s\n", s.EndedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Duration:  %s\n", sum.Duration.Round(time.Second))
	fmt.Fprintf(w, "Correct:   %d/%d (%s)\n", sum.Correct, sum.Attempted, theme.Percent(sum.Accuracy))
}

func init() {
	sessionListCmd.Flags().IntP("limit", "n", session.DefaultListLimit, "Number of sessions to show")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionEndCmd)
}
