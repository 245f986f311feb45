package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readify/app"
	"readify/seed"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, books, suppliers, promotions and an admin account from YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := seed.Load(file)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), rt.cfg, rt.aws, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.Services
			seeder := seed.NewSeeder(seed.Deps{
				Accounts:   s.Accounts,
				Categories: s.Categories,
				Books:      s.Books,
				Stock:      s.Stock,
				Suppliers:  s.Suppliers,
				Promotions: s.Promotions,
			}, a.Logger)

			report, err := seeder.Run(cmd.Context(), data)
			if err != nil {
				return err
			}
			a.Logger.Info("Seed complete",
				zap.Int("created", report.Created),
				zap.Int("skipped", report.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed/seed.yaml", "seed data file")
	return cmd
}
