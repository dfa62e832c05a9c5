package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/ui/theme"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <topic>",
	Short: "Show the top users for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		limit, _ := cmd.Flags().GetInt("limit")
		board, err := cache.ParseBoard(by)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		var lb cache.Leaderboard = cache.NewSQLLeaderboard(st.SkillRepo())
		client, err := redisClient(ctx)
		if err != nil {
			return err
		}
		if client != nil {
			defer client.Close()
			lb = cache.NewRedisLeaderboard(client)
		}

		entries, err := lb.Top(ctx, args[0], board, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No rankings for %s yet.\n", args[0])
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{strconv.FormatInt(e.Rank, 10), e.UserID, strconv.Itoa(e.Value)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme.Paint(theme.Title, fmt.Sprintf("%s by %s", args[0], board)))
		fmt.Fprint(cmd.OutOrStdout(), theme.Table([]string{"#", "User", string(board)}, rows))
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().String("by", "score", "Ranking: score or streak")
	leaderboardCmd.Flags().IntP("limit", "n", 10, "Number of entries")
}
