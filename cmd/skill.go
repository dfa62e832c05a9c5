package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/ui/theme"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect and reset per-topic skill scores",
}

var skillShowCmd = &cobra.Command{
	Use:   "show <user> [topic]",
	Short: "Show a user's skill scores",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tracker := skill.NewTracker(st.SkillRepo(), skill.WithLogger(logger))
		ctx := cmd.Context()

		var states []skill.State
		if len(args) == 2 {
			s, err := tracker.Get(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			states = []skill.State{s}
		} else {
			states, err = tracker.Progress(ctx, args[0])
			if err != nil {
				return err
			}
		}

		if len(states) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No skills recorded for %s.\n", args[0])
			return nil
		}

		rows := make([][]string, 0, len(states))
		for _, s := range states {
			last := "never"
			if !s.LastPracticedAt.IsZero() {
				last = s.LastPracticedAt.Local().Format("2006-01-02 15:04")
			}
			rows = append(rows, []string{
				s.Topic,
				strconv.Itoa(s.Score),
				theme.Bar(s.Score, skill.MaxScore, 20),
				strconv.Itoa(s.Streak),
				strconv.Itoa(s.BestStreak),
				fmt.Sprintf("%d/%d", s.TotalCorrect, s.TotalAttempted),
				theme.Percent(s.Accuracy()),
				last,
			})
		}
		fmt.Fprint(cmd.OutOrStdout(), theme.Table(
			[]string{"Topic", "Score", "", "Streak", "Best", "Correct", "Accuracy", "Last practiced"}, rows))
		return nil
	},
}

var skillResetCmd = &cobra.Command{
	Use:   "reset <user> <topic>",
	Short: "Reset a user's score for a topic to the default",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		state, ok, err := skill.NewTracker(st.SkillRepo(), skill.WithLogger(logger)).Reset(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no recorded skill for %s.\n", args[0], args[1])
			return nil
		}

		client, err := redisClient(ctx)
		if err != nil {
			return err
		}
		if client != nil {
			defer client.Close()
			err := cache.NewRedisLeaderboard(client).Update(ctx, state.Topic, state.UserID, state.Score, state.BestStreak)
			if err != nil {
				logger.Warn("failed to update leaderboard", "topic", state.Topic, "user", state.UserID, "error", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s/%s to score %d (best streak %d, %d attempts kept).\n",
			args[0], args[1], state.Score, state.BestStreak, state.TotalAttempted)
		return nil
	},
}

func init() {
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillResetCmd)
}
