package cli

import (
	"io"
	"os"

	"github.com/soyeahso/brainquest/internal/config"
	"github.com/soyeahso/brainquest/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brainquest",
		Short: "BrainQuest relay between the quiz frontend and a chat-completions model",
		Long: "BrainQuest generates quiz questions, answers study questions and reviews quiz\n" +
			"performance by relaying requests to an OpenRouter-compatible model, with\n" +
			"date/time, Google search and YouTube search tools for general chat.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			log = newLogger(cmd.ErrOrStderr(), logLevel, "pretty")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.brainquest/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newQuizCmd())
	cmd.AddCommand(newReviewCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// newLogger builds the process logger. JSON style writes raw lines to w.
func newLogger(w io.Writer, level, style string) *logging.Logger {
	if level == "" {
		level = "info"
	}
	if style == "json" {
		if w == nil {
			w = os.Stderr
		}
		return logging.New(w, level)
	}
	return logging.New(nil, level)
}

// loadConfig reads and validates the config, then reconfigures the logger
// from its logging section unless --log-level was given.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	log = newLogger(cmd.ErrOrStderr(), level, cfg.Logging.Style)
	return cfg, nil
}

// validateConfig logs every issue and fails if there are any.
func validateConfig(cfg *config.Config) error {
	issues := config.Validate(cfg)
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	if len(issues) > 0 {
		return &config.ConfigError{Message: "config validation failed"}
	}
	return nil
}
