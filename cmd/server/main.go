package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/clubroom-server/internal/app"
	"github.com/vovakirdan/clubroom-server/internal/auth"
	"github.com/vovakirdan/clubroom-server/internal/config"
	"github.com/vovakirdan/clubroom-server/internal/log"
	"github.com/vovakirdan/clubroom-server/internal/store/sqlite"
)

type options struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "clubroom-server",
		Short:         "Presentation rooms for the club website",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.yaml")
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.DatabasePath, "db", "", "SQLite database path")

	root.AddCommand(newTokenCmd(opts))
	return root
}

func loadConfig(opts *options) (config.Config, *zerolog.Logger, error) {
	bootLogger := log.New(opts.overrides.LogLevel, "console")
	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, nil, err
	}
	cfg.UpdateFrom(opts.overrides)

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func serve(ctx context.Context, opts *options) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting clubroom server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newTokenCmd prints a token for an existing account, standing in for the
// sign-in link during development.
func newTokenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue an access token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			token, err := auth.NewService(st, app.JWTConfig(&cfg)).IssueToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
