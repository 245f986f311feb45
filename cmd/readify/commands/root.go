package commands

import (
	"context"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readify/common/logger"
	"readify/config"
	aws_pkg "readify/pkg/aws"
)

const serviceName = "readify"

// runtime is what every subcommand starts from.
type runtime struct {
	cfg    *config.Config
	aws    sdkaws.Config
	logger *zap.Logger
}

var rt runtime

func Execute() error {
	root := &cobra.Command{
		Use:           "readify",
		Short:         "Readify bookstore backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return root.ExecuteContext(context.Background())
}

// bootstrap loads AWS settings, configuration and the logger. Secrets Manager
// is consulted only when AWS_USE_SECRETS is set; the CloudWatch Logs sink is
// attached once the config says it is enabled.
func bootstrap(ctx context.Context) error {
	env := os.Getenv("APP_ENV")
	log := logger.MustInit(env, nil)

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, aws_pkg.NewSecretsClient(awsCfg))
	if err != nil {
		return err
	}

	if cfg.CloudWatchEnabled {
		sink, err := aws_pkg.NewCloudWatchLogsWriter(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		} else {
			log = logger.MustInit(cfg.Env, sink)
		}
	} else if cfg.Env != env {
		log = logger.MustInit(cfg.Env, nil)
	}

	rt = runtime{cfg: cfg, aws: awsCfg, logger: log}
	return nil
}
