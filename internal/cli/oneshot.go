package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/soyeahso/brainquest/internal/quiz"
	"github.com/spf13/cobra"
)

// withApp loads config, wires the relay and runs fn under the request timeout.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validateConfig(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if d := cfg.RequestTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	a, err := newApp(ctx, cfg, paths, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func newAskCmd() *cobra.Command {
	var (
		session string
		reqType string
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one chat message through the relay",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				reply, err := a.quiz.Chat(ctx, quiz.ChatParams{
					SessionID: session,
					Prompt:    strings.Join(args, " "),
					Type:      reqType,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "session ID (default \"default\")")
	cmd.Flags().StringVar(&reqType, "type", "general", "request type (general, mcq, performance)")
	return cmd
}

func newQuizCmd() *cobra.Command {
	var (
		p     quiz.QuestionParams
		count int
	)

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Generate multiple-choice questions and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Count = strconv.Itoa(count)
			return withApp(cmd, func(ctx context.Context, a *app) error {
				questions, err := a.quiz.GenerateQuestions(ctx, p)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(questions)
			})
		},
	}

	cmd.Flags().StringVar(&p.SessionID, "session", "", "session ID (default \"default\")")
	cmd.Flags().StringVar(&p.Topic, "topic", quiz.DefaultTopic, "question topic")
	cmd.Flags().IntVar(&count, "count", 5, "number of questions")
	cmd.Flags().StringVar(&p.Difficulty, "difficulty", quiz.DefaultDifficulty, "difficulty level")
	return cmd
}

func newReviewCmd() *cobra.Command {
	var (
		p                      quiz.PerformanceParams
		correct, total, perQuestion int
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Get performance feedback for a finished quiz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if total <= 0 || correct < 0 || correct > total {
				return fmt.Errorf("invalid score %d/%d", correct, total)
			}
			p.Correct = strconv.Itoa(correct)
			p.Total = strconv.Itoa(total)
			p.TimePerQuestion = strconv.Itoa(perQuestion)
			return withApp(cmd, func(ctx context.Context, a *app) error {
				reply, err := a.quiz.ReviewPerformance(ctx, p)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.SessionID, "session", "", "session ID (default \"default\")")
	cmd.Flags().StringVar(&p.Topic, "topic", quiz.DefaultReviewTopic, "quiz topic")
	cmd.Flags().IntVar(&correct, "correct", 0, "correct answers")
	cmd.Flags().IntVar(&total, "total", 5, "total questions")
	cmd.Flags().StringVar(&p.Difficulty, "difficulty", quiz.DefaultDifficulty, "difficulty level")
	cmd.Flags().IntVar(&perQuestion, "time", 30, "seconds per question")
	return cmd
}
