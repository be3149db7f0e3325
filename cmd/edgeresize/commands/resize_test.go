package commands

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResizeCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	src := image.NewNRGBA(image.Rect(0, 0, 1000, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 1000; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "originals", "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "originals", "img", "hero.png"), buf.Bytes(), 0o600))

	run := func(uri, out string) (string, error) {
		var stdout bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs([]string{
			"resize", uri,
			"--storage-backend", "local",
			"--storage-local-root", dir,
			"--bucket-domain", "originals.s3.amazonaws.com",
			"--log-level", "error",
			"--out", out,
		})
		err := rootCmd.ExecuteContext(context.Background())
		return stdout.String(), err
	}

	out := filepath.Join(dir, "hero-500.png")
	stdout, err := run("/img/hero.png?width=480&height=480", out)
	require.NoError(t, err)
	require.Contains(t, stdout, "image/png")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 500, cfg.Width)
	require.Equal(t, 300, cfg.Height)

	_, err = run("/img/hero.gif", filepath.Join(dir, "never.gif"))
	require.EqualError(t, err, "400: Invalid format")
	require.NoFileExists(t, filepath.Join(dir, "never.gif"))
}
