package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalDir_ReadObject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images", "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "img", "photo.jpg"), []byte("jpeg bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("nope"), 0o644))

	store, err := NewLocalDir(root)
	require.NoError(t, err)

	data, err := store.ReadObject(context.Background(), "images", "img/photo.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg bytes"), data)

	_, err = store.ReadObject(context.Background(), "images", "img/missing.jpg")
	require.ErrorIs(t, err, ErrObjectNotFound)

	_, err = store.ReadObject(context.Background(), "images", "../secret.txt")
	require.ErrorIs(t, err, ErrObjectNotFound)

	_, err = store.ReadObject(context.Background(), "images", "")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalDir_RequiresRoot(t *testing.T) {
	_, err := NewLocalDir("  ")
	require.Error(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "ftp"})
	require.Error(t, err)
}

func TestOpen_Local(t *testing.T) {
	reader, err := Open(context.Background(), Config{Backend: BackendLocal, LocalRoot: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &LocalDir{}, reader)
}
