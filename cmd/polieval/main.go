package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "polieval",
		Short:         "Collect findings about politicians and score them across ten categories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides POLIEVAL_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newEvaluateCmd(opts),
		newMigrateCmd(opts),
		newPoliticianCmd(opts),
		newScheduleCmd(opts),
	)
	return root
}

// load resolves configuration once per command invocation.
func (o *rootOptions) load() config.Config {
	if o.configPath != "" {
		_ = os.Setenv("POLIEVAL_CONFIG", o.configPath)
	}
	cfg := config.Load()
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg
}

func (o *rootOptions) setup() (config.Config, *slog.Logger) {
	cfg := o.load()
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil && !exitErr.reported {
			fmt.Fprintln(os.Stderr, exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, err)
	return exitStartFailure
}
