package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewLocalFileStorage(base, zap.NewNop())

	require.NoError(t, store.Save(ctx, "invoice/o1.xlsx", []byte("first")))
	require.NoError(t, store.Save(ctx, "invoice/o1.xlsx", []byte("second")))

	assert.True(t, store.Exists(ctx, "invoice/o1.xlsx"))
	assert.False(t, store.Exists(ctx, "invoice"), "directories are not files")
	assert.False(t, store.Exists(ctx, "invoice/o2.xlsx"))

	content, err := store.Read(ctx, "invoice/o1.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(filepath.Join(base, "invoice"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	assert.Equal(t, filepath.Join(base, "invoice", "o1.xlsx"), store.GetFullPath("invoice/o1.xlsx"))
}

func TestLocalFileStorage_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	store := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	for _, path := range []string{"../outside.xlsx", "invoice/../../outside.xlsx", ""} {
		assert.Error(t, store.Save(ctx, path, []byte("x")), path)
		_, err := store.Read(ctx, path)
		assert.Error(t, err, path)
		assert.False(t, store.Exists(ctx, path), path)
	}
}
