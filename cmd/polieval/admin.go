package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PoliticianEvaluator/internal/app"
	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/evaluator"
	"PoliticianEvaluator/internal/report"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := root.setup()
			repo, closeDB, err := app.OpenRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("schema applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func newPoliticianCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "politician",
		Short: "Manage the politician roster",
	}

	var p domain.Politician
	add := &cobra.Command{
		Use:   "add",
		Short: "Register or update a politician",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _ := root.setup()
			repo, closeDB, err := app.OpenRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := repo.UpsertPolitician(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	add.Flags().StringVar(&p.ID, "id", "", "politician id")
	add.Flags().StringVar(&p.Name, "name", "", "full name")
	add.Flags().StringVar(&p.Party, "party", "", "party")
	add.Flags().StringVar(&p.Region, "region", "", "region or district")
	add.Flags().StringVar(&p.Position, "position", "", "current position")
	_ = add.MarkFlagRequired("id")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered politicians",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _ := root.setup()
			repo, closeDB, err := app.OpenRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			roster, err := repo.ListPoliticians(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Politicians(roster))
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newScheduleCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Re-evaluate every registered politician on the configured cron expression",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := root.setup()
			application, err := app.New(cmd.Context(), cfg, logger, app.Options{Mode: evaluator.ModeCollect})
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Schedule(cmd.Context())
		},
	}
}
