package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "edgeresize",
	Short: "On-the-fly image resizing for CDN edge requests",
	Long: `Serves resized JPEG and PNG derivatives of S3 originals, snapped to a fixed set of
canonical sizes. Runs as a Lambda function or as an HTTP origin behind the CDN.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json, console)")
	flags.String("storage-backend", "s3", "Object storage backend (s3, minio, local)")
	flags.String("storage-region", "", "Storage region; empty uses the AWS default chain")
	flags.String("storage-endpoint", "", "Custom S3-compatible endpoint")
	flags.String("storage-local-root", "./images", "Root directory for the local backend")
	flags.String("bucket-domain", "", "S3 origin domain the bucket name is taken from (serve, resize)")
	flags.Int("jpeg-quality", 80, "JPEG output quality (1-100)")

	mustBind("log.level", flags.Lookup("log-level"))
	mustBind("log.format", flags.Lookup("log-format"))
	mustBind("storage.backend", flags.Lookup("storage-backend"))
	mustBind("storage.region", flags.Lookup("storage-region"))
	mustBind("storage.endpoint", flags.Lookup("storage-endpoint"))
	mustBind("storage.local-root", flags.Lookup("storage-local-root"))
	mustBind("origin.bucket-domain", flags.Lookup("bucket-domain"))
	mustBind("transform.jpeg-quality", flags.Lookup("jpeg-quality"))
}
