package commands

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/dunamismax/edgeresize/internal/edge"
	"github.com/spf13/cobra"
)

var resizeCmd = &cobra.Command{
	Use:   "resize <uri[?query]>",
	Short: "Run one request through the handler and write the result",
	Long: `Runs a single viewer request, e.g. "/img/photo.jpg?width=90&height=90", against the
configured storage. The image is written to --out; error bodies go to stderr.`,
	Example: `  edgeresize resize "/img/photo.jpg?width=500" --bucket-domain images.s3.amazonaws.com --out photo-500.jpg`,
	Args:    cobra.ExactArgs(1),
	RunE:    runResize,
}

func init() {
	resizeCmd.Flags().StringP("out", "o", "", "Output file for the resized image")
	_ = resizeCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(resizeCmd)
}

func runResize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig((*config.Config).Validate)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(ctx) }()

	uri, query, _ := strings.Cut(args[0], "?")
	resp := a.handler.Serve(ctx, edge.Request{
		Method:      http.MethodGet,
		URI:         uri,
		QueryString: query,
		Origin: edge.Origin{
			S3: &edge.OriginTarget{DomainName: cfg.Origin.BucketDomain},
		},
	})
	if resp.Status != http.StatusOK {
		return fmt.Errorf("%d: %s", resp.Status, resp.Body)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Body)
	if err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", out, resp.Header("Content-Type"), len(data))
	return nil
}
