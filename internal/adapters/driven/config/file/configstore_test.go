package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_MissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), store.Path())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_LoadsNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[fusion]
vector_weight = 0.7
keyword_weight = 0.3
keyword_scale = 20

[similarity]
threshold = 0.35

[similarity.field_thresholds]
motivation = 0.25

[embedding]
provider = "hashing"

[search]
channel_timeout_ms = 1500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, store.GetFloat64("fusion.vector_weight"), 1e-9)
	assert.InDelta(t, 20.0, store.GetFloat64("fusion.keyword_scale"), 1e-9)
	assert.InDelta(t, 0.25, store.GetFloat64("similarity.field_thresholds.motivation"), 1e-9)
	assert.Equal(t, "hashing", store.GetString("embedding.provider"))
	assert.Equal(t, 1500, store.GetInt("search.channel_timeout_ms"))
	assert.Zero(t, store.GetInt("fusion.vector_weight"))
}

func TestConfigStore_SetPersistsNested(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("fusion.vector_weight", 0.6))
	require.NoError(t, store.Set("vector.backend", "qdrant"))
	require.NoError(t, store.Set("indexing.workers", 3))
	require.NoError(t, store.Set("tokenizer.enabled", true))
	require.NoError(t, store.Set("search.tags", []string{"a", "b"}))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[fusion]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, reloaded.GetFloat64("fusion.vector_weight"), 1e-9)
	assert.Equal(t, "qdrant", reloaded.GetString("vector.backend"))
	assert.Equal(t, 3, reloaded.GetInt("indexing.workers"))
	assert.True(t, reloaded.GetBool("tokenizer.enabled"))
	assert.Equal(t, []string{"a", "b"}, reloaded.GetStringSlice("search.tags"))
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)

	assert.Error(t, err)
}

func TestConfigStore_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("fusion.vector_weight", 0.5))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan struct{}, 1)
	require.NoError(t, store.Watch(ctx, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[fusion]\nvector_weight = 0.8\n"), 0600))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
	assert.InDelta(t, 0.8, store.GetFloat64("fusion.vector_weight"), 1e-9)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"e":     true,
	})

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": 1,
			"c": map[string]any{"d": "x"},
		},
		"e": true,
	}, nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flattenMap(nested, ""))
}
