package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ragPayload struct {
	Explanation    string    `json:"explanation"`
	ContextualInfo string    `json:"contextualInfo"`
	Timestamp      time.Time `json:"timestamp"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreCreatesAllNamespaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, ns := range Namespaces() {
		count, err := store.Count(ctx, ns)
		require.NoError(t, err, "namespace %s", ns)
		assert.Zero(t, count)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	written := ragPayload{
		Explanation:    "The Constitution is the supreme law of the land.",
		ContextualInfo: "Ratified in 1788.",
		Timestamp:      time.Now().UTC(),
	}
	require.NoError(t, store.Put(ctx, NamespaceRAGExplanations, "1", written))

	var got ragPayload
	found, err := store.Get(ctx, NamespaceRAGExplanations, "1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, written.Explanation, got.Explanation)
	assert.Equal(t, written.ContextualInfo, got.ContextualInfo)
	assert.True(t, got.Timestamp.After(before))
}

func TestStoreMiss(t *testing.T) {
	store := newTestStore(t)

	var got string
	found, err := store.Get(context.Background(), NamespaceTranslations, "no-such-key", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got)
}

func TestStoreLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NamespaceTranslations, "5", "primeira"))
	require.NoError(t, store.Put(ctx, NamespaceTranslations, "5", "segunda"))

	var got string
	found, err := store.Get(ctx, NamespaceTranslations, "5", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "segunda", got)

	count, err := store.Count(ctx, NamespaceTranslations)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreNamespaceIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NamespaceExplanations, "7", "english explanation"))

	var got string
	found, err := store.Get(ctx, NamespaceTranslations, "7", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreRejectsUnknownNamespace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var got string
	_, err := store.Get(ctx, Namespace("users; DROP TABLE translations"), "k", &got)
	assert.Error(t, err)

	err = store.Put(ctx, Namespace("bogus"), "k", "v")
	assert.Error(t, err)

	_, err = store.Count(ctx, Namespace("bogus"))
	assert.Error(t, err)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, NamespaceTTSFormatted, "tts_123", "texto normalizado"))
	require.NoError(t, store.Close())

	// Reopen applies migrations idempotently and keeps existing entries.
	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	var got string
	found, err := reopened.Get(ctx, NamespaceTTSFormatted, "tts_123", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "texto normalizado", got)
}

func TestStoreRequiresPath(t *testing.T) {
	_, err := NewStore("  ")
	assert.Error(t, err)
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, 1, migrationVersion("001_explanations.sql"))
	assert.Equal(t, 4, migrationVersion("004_rag_explanations.sql"))
	assert.Equal(t, 0, migrationVersion("notes.sql"))
}
