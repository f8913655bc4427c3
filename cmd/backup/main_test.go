package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haoshi-console/internal/backend"
	"haoshi-console/internal/models"
	"haoshi-console/internal/store"
)

func TestWriteAll(t *testing.T) {
	st := store.New()
	st.Replace(backend.NewLocalFallback().Snapshot())
	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	files, err := writeAll(dir, st, false, now)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "系統備份_20260105.json"), files[0])

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "威均天翔")
	assert.NotContains(t, string(raw), "admin@haoshi.com")

	for _, f := range files[1:] {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestWriteAll_EmptyStore(t *testing.T) {
	st := store.New()
	props := []models.Property{}
	st.Replace(store.Snapshot{Properties: &props})

	files, err := writeAll(t.TempDir(), st, true, time.Now())
	require.Error(t, err)
	assert.Len(t, files, 1, "the JSON backup is written before the empty export fails")
}
