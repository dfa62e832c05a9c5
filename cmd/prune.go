package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete issued questions older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := cfg.Server.QuestionRetention
		if d, _ := cmd.Flags().GetDuration("older-than"); d > 0 {
			retention = d
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.QuestionRepo().PruneQuestions(cmd.Context(), time.Now().Add(-retention))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d question(s) issued more than %s ago.\n", n, retention)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Duration("older-than", 0, "Retention window (overrides server.question_retention)")
}
