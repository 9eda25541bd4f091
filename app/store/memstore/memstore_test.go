package memstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/types"
)

func TestTableOperations(t *testing.T) {
	ctx := context.Background()
	s := New("users")

	rows, err := s.Insert(ctx, "users", []types.Record{
		{"name": "a", "age": json.Number("3")},
		{"name": "b", "age": 5},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[0].ID())

	got, err := s.Select(ctx, "users", types.SelectOptions{Filters: types.Filters{"age": json.Number("5")}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].String("name"))

	got, err = s.Select(ctx, "users", types.SelectOptions{Columns: "name", OrderBy: "name", Ascending: false, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []types.Record{{"name": "b"}}, got)

	updated, err := s.Update(ctx, "users", types.Record{"name": "c"}, types.Filters{"name": "a"})
	require.NoError(t, err)
	require.Len(t, updated, 1)

	total, err := s.Count(ctx, "users", types.Filters{"name": "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	deleted, err := s.Delete(ctx, "users", types.Filters{"name": "c"})
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	assert.Len(t, s.Rows("users"), 1)

	_, err = s.Delete(ctx, "users", nil)
	assert.ErrorIs(t, err, store.ErrEmptyFilters)

	_, err = s.Select(ctx, "missing", types.SelectOptions{})
	assert.True(t, store.IsNotFound(err))
}

func TestKnowledgeQueries(t *testing.T) {
	ctx := context.Background()
	s := New()

	src, err := s.Insert(ctx, "knowledge_sources", []types.Record{{"title": "Intro", "source_type": "youtube"}})
	require.NoError(t, err)
	doc, err := s.Insert(ctx, "knowledge_documents", []types.Record{{"title": "Transcript: Intro", "source_id": src[0].ID(), "document_type": "transcript"}})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "knowledge_chunks", []types.Record{
		{"document_id": doc[0].ID(), "content": "Vector search in Postgres", "chunk_number": 1, "total_chunks": 2, "embedding": "[1,0]"},
		{"document_id": doc[0].ID(), "content": "row level security", "chunk_number": 2, "total_chunks": 2, "embedding": "[0,1]"},
	})
	require.NoError(t, err)

	res, err := s.SearchChunks(ctx, "vector", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Transcript: Intro", res[0].DocumentTitle)
	assert.Equal(t, 2, res[0].TotalChunks)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "youtube", docs[0].SourceType)

	matched, err := s.MatchChunks(ctx, pgvector.NewVector([]float32{0, 1}), 1)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, 2, matched[0].ChunkNumber)
	assert.InDelta(t, 1.0, matched[0].Similarity, 0.0001)
}
