package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

func TestFileAdapterMissingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "lp0")
	adapter := NewFileAdapter(path)

	err := adapter.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, printerr.ErrUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "Unavailable", printerr.KindOf(err))
	assert.False(t, adapter.IsOpen())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "Open must not create the device file")
}

func TestFileAdapterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	adapter := NewFileAdapter(path)
	require.NoError(t, adapter.Open(context.Background()))
	assert.True(t, adapter.IsOpen())

	n, err := adapter.Write(context.Background(), []byte{0x1b, '@'})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = adapter.Write(context.Background(), []byte("hi\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, adapter.Close())
	assert.False(t, adapter.IsOpen())
	assert.NoError(t, adapter.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("old\x1b@hi\n"), got)
}

func TestFileAdapterWriteBeforeOpen(t *testing.T) {
	adapter := NewFileAdapter(filepath.Join(t.TempDir(), "lp0"))

	n, err := adapter.Write(context.Background(), []byte("x"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, printerr.ErrUnavailable)
}

func TestFileAdapterOpenDirectory(t *testing.T) {
	adapter := NewFileAdapter(t.TempDir())

	err := adapter.Open(context.Background())
	assert.ErrorIs(t, err, printerr.ErrUnavailable)
}
