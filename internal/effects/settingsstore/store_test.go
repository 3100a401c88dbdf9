package settingsstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"mvpnd/internal/core"
)

func TestStore_LoadMissingReturnsDefault(t *testing.T) {
	store := New(t.TempDir())
	settings, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, core.Default(), settings)
}

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	store := New(t.TempDir())
	token := "abc123"
	want := core.Settings{AccountToken: &token, AllowLan: true, AutoConnect: true}

	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want.AllowLan, got.AllowLan)
	require.Equal(t, want.AutoConnect, got.AutoConnect)
	require.NotNil(t, got.AccountToken)
	require.Equal(t, token, *got.AccountToken)
}

func TestStore_CorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, store.Save(core.Default()))

	// Corrupting the file after a valid save exercises the parse-error path.
	require.NoError(t, os.WriteFile(store.filePath, []byte("not: [valid: yaml"), 0600))

	_, err := store.Load()
	require.Error(t, err)
}
