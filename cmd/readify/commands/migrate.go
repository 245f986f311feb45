package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readify/app"
	"readify/database"
	aws_pkg "readify/pkg/aws"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema and the DynamoDB stock table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), rt.cfg, rt.aws, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return runMigrations(cmd.Context(), a)
		},
	}
}

func runMigrations(ctx context.Context, a *app.App) error {
	if err := database.Migrate(a.DB); err != nil {
		return err
	}
	a.Logger.Info("Postgres schema up to date")

	created, err := database.EnsureStockTable(ctx, aws_pkg.NewDynamoClient(a.AWS), a.Config.StockTable)
	if err != nil {
		return err
	}
	a.Logger.Info("Stock table ready", zap.String("table", a.Config.StockTable), zap.Bool("created", created))
	return nil
}
