package knowledge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/ragstack/internal/knowledge"
	"github.com/koopa0/ragstack/internal/log"
	"github.com/koopa0/ragstack/internal/testutil"
)

// TestStoreIntegration exercises the full store lifecycle against a real
// Weaviate instance. Opt-in via RAGSTACK_INTEGRATION=1.
func TestStoreIntegration(t *testing.T) {
	url := testutil.StartWeaviate(t)
	ctx := context.Background()

	store, err := knowledge.NewStore(url, "IntegrationKnowledge", log.NewNop())
	require.NoError(t, err)

	ready, err := store.Ready(ctx)
	require.NoError(t, err)
	require.True(t, ready, "container reported started but not ready")

	require.NoError(t, store.EnsureSchema(ctx))
	// EnsureSchema is idempotent.
	require.NoError(t, store.EnsureSchema(ctx))

	docs := knowledge.SampleDocuments()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	embedder := &testutil.FakeEmbedder{Dim: 8}
	vectors, err := embedder.Embed(ctx, texts)
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, docs, vectors))

	// Upserting fixed-ID documents again must not duplicate them.
	require.NoError(t, store.Upsert(ctx, docs, vectors))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(docs), count)

	// Searching with a document's own vector must return that document first.
	query, err := embedder.Embed(ctx, []string{docs[0].Text})
	require.NoError(t, err)
	results, err := store.Search(ctx, query[0], 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, docs[0].ID, results[0].ID)
	assert.Equal(t, docs[0].Text, results[0].Text)

	// Clear drops everything and leaves an empty, usable collection.
	require.NoError(t, store.Clear(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
