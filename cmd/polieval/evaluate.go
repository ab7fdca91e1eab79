package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PoliticianEvaluator/internal/app"
	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/evaluator"
	"PoliticianEvaluator/internal/report"
	"PoliticianEvaluator/internal/usecase"
)

type evaluateOptions struct {
	id          string
	name        string
	categories  string
	workers     int
	rescore     bool
	retryFailed int
}

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one politician across the requested categories",
		Example: `  polieval evaluate --id p-001 --name "Kim Min-su"
  polieval evaluate --id p-001 --categories 2-4,9 --retry-failed 2
  polieval evaluate --id p-001 --rescore`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "politician id")
	cmd.Flags().StringVar(&opts.name, "name", "", "politician name (taken from the database when omitted)")
	cmd.Flags().StringVar(&opts.categories, "categories", "all", `category ids: "all", "1-10" or "1,3,5"`)
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent categories (default from config)")
	cmd.Flags().BoolVar(&opts.rescore, "rescore", false, "score stored items instead of collecting new ones")
	cmd.Flags().IntVar(&opts.retryFailed, "retry-failed", 0, "re-run failed categories up to N times")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runEvaluate(cmd *cobra.Command, root *rootOptions, opts *evaluateOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	startFailure := func(err error) error {
		fmt.Fprintln(out, report.StartFailure(err))
		return &exitError{code: exitStartFailure, err: err, reported: true}
	}

	categories, err := domain.ParseCategorySet(opts.categories)
	if err != nil {
		return startFailure(err)
	}

	cfg, logger := root.setup()
	mode := evaluator.ModeCollect
	if opts.rescore {
		mode = evaluator.ModeRescore
	}

	application, err := app.New(ctx, cfg, logger, app.Options{
		Mode:    mode,
		Workers: opts.workers,
		OnResult: func(res domain.CategoryResult) {
			fmt.Fprintln(out, report.Progress(res))
		},
	})
	if err != nil {
		return startFailure(err)
	}
	defer application.Close()

	pipeline := application.Pipeline()
	run, err := pipeline.Evaluate(ctx, usecase.EvaluateRequest{
		PoliticianID:   opts.id,
		PoliticianName: opts.name,
		Categories:     categories,
	})
	if err != nil {
		return startFailure(err)
	}

	for attempt := 1; attempt <= opts.retryFailed && len(run.Final.Failed) > 0 && ctx.Err() == nil; attempt++ {
		fmt.Fprintf(out, "Retrying %d failed categories (attempt %d of %d)\n", len(run.Final.Failed), attempt, opts.retryFailed)
		retried, err := pipeline.Retry(ctx, run)
		if err != nil {
			logger.Error("retry failed categories", "attempt", attempt, "error", err)
			break
		}
		run = retried
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, report.Summary(run))
	return runExit(run.Final)
}
