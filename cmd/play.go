package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/codequiz/internal/practice"
	"github.com/abhisek/codequiz/internal/questiongen"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/ui/theme"
)

var playCmd = &cobra.Command{
	Use:   "play <topic>",
	Short: "Practice a topic in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		topic := args[0]
		user, _ := cmd.Flags().GetString("user")
		count, _ := cmd.Flags().GetInt("count")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rt, err := buildRuntime(ctx, st, nil, nil)
		if err != nil {
			return fmt.Errorf("wire services: %w", err)
		}
		defer rt.Close()

		sess, err := rt.svc.StartSession(ctx, user, topic)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())

		for i := 0; count == 0 || i < count; i++ {
			q, err := rt.svc.NextQuestion(ctx, user, sess.ID, topic)
			if err != nil {
				return err
			}
			printQuestion(out, i+1, q)

			answer, err := in.ReadString('\n')
			answer = strings.TrimSpace(answer)
			if errors.Is(err, io.EOF) && answer == "" || answer == "q" {
				break
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			res, err := rt.svc.SubmitAnswer(ctx, practice.Submission{
				UserID: user, SessionID: sess.ID, QuestionID: q.ID, Answer: answer,
			})
			if err != nil {
				return err
			}
			printResult(out, res)
		}

		_, sum, err := rt.svc.EndSession(ctx, user, sess.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s %d/%d correct (%s) in %s\n",
			theme.Paint(theme.Title, "Session complete:"),
			sum.Correct, sum.Attempted, theme.Percent(sum.Accuracy), sum.Duration.Round(time.Second))
		return nil
	},
}

func printQuestion(w io.Writer, n int, q *practice.IssuedQuestion) {
	fmt.Fprintf(w, "\n%s %s\n",
		theme.Paint(theme.Title, fmt.Sprintf("Q%d", n)),
		theme.Paint(theme.Hint, fmt.Sprintf("(difficulty %d)", q.Difficulty)))
	fmt.Fprintln(w, q.Prompt)
	if q.Code != "" {
		fmt.Fprintf(w, "\n%s\n\n", theme.Paint(theme.Highlight, q.Code))
	}
	if q.Format == questiongen.FormatMultipleChoice {
		for i, c := range q.Choices {
			fmt.Fprintf(w, "  %c) %s\n", 'A'+i, c)
		}
	}
	fmt.Fprint(w, theme.Paint(theme.Hint, "answer (q to quit)> "))
}

func printResult(w io.Writer, res *practice.Result) {
	fmt.Fprintf(w, "%s  score %d (%+d)  streak %d\n",
		theme.Verdict(res.Correct), res.Score, res.Delta, res.Streak)
	fmt.Fprintln(w, theme.Bar(res.Score, skill.MaxScore, 30))
	if res.Feedback != "" {
		fmt.Fprintln(w, theme.Paint(theme.Hint, res.Feedback))
	}
}

func init() {
	playCmd.Flags().StringP("user", "u", "local", "User ID to practice as")
	playCmd.Flags().IntP("count", "n", 0, "Number of questions (0 = until q)")
}
