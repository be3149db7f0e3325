package commands

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as the CloudFront origin-request function",
	Args:  cobra.NoArgs,
	RunE:  runLambda,
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig((*config.Config).Validate)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	lambda.StartWithOptions(a.handler.Handle,
		lambda.WithEnableSIGTERM(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := a.close(ctx); err != nil {
				a.logger.Warn("shutdown_incomplete", zap.Error(err))
			}
		}),
	)
	return nil
}
