package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/testutils"
	"github.com/quka-ai/knowledge/pkg/types"
)

type testDSN string

func (d testDSN) FormatDSN() string {
	return string(d)
}

func setupTestProvider(t *testing.T) *Provider {
	env, ok := testutils.RequireEnv("TEST_KNOWLEDGE_DB_DSN")
	if !ok {
		t.Skip("TEST_KNOWLEDGE_DB_DSN is not set")
	}

	ctx := context.Background()
	p, err := Setup(ctx, "public", testDSN(env["TEST_KNOWLEDGE_DB_DSN"]))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	schema, err := Schema()
	require.NoError(t, err)
	_, err = p.GetMaster().ExecContext(ctx, schema)
	require.NoError(t, err)
	return p
}

func TestProviderRoundTrip(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()
	title := "integration " + uuid.NewString()

	src, err := p.Insert(ctx, types.TABLE_KNOWLEDGE_SOURCES.Name(), []types.Record{{"title": title, "source_type": "test"}})
	require.NoError(t, err)
	require.Len(t, src, 1)
	t.Cleanup(func() {
		p.Delete(ctx, types.TABLE_KNOWLEDGE_SOURCES.Name(), types.Filters{"id": src[0].ID()})
	})

	doc, err := p.Insert(ctx, types.TABLE_KNOWLEDGE_DOCUMENTS.Name(), []types.Record{{
		"title":         title,
		"source_id":     src[0].ID(),
		"document_type": "note",
		"content":       "integration content",
	}})
	require.NoError(t, err)

	_, err = p.Insert(ctx, types.TABLE_KNOWLEDGE_CHUNKS.Name(), []types.Record{{
		"document_id":  doc[0].ID(),
		"content":      "zebra integration chunk " + title,
		"chunk_number": 1,
		"total_chunks": 1,
	}})
	require.NoError(t, err)

	total, err := p.Count(ctx, types.TABLE_KNOWLEDGE_DOCUMENTS.Name(), types.Filters{"source_id": src[0].ID()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	found, err := p.SearchChunks(ctx, title, 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, title, found[0].DocumentTitle)

	updated, err := p.Update(ctx, types.TABLE_KNOWLEDGE_SOURCES.Name(), types.Record{"author": "tester"}, types.Filters{"id": src[0].ID()})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "tester", updated[0].String("author"))

	// 删除来源时文档与片段级联删除
	deleted, err := p.Delete(ctx, types.TABLE_KNOWLEDGE_SOURCES.Name(), types.Filters{"id": src[0].ID()})
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	_, err = p.Select(ctx, "missing_table_"+uuid.New().String()[:8], types.SelectOptions{})
	assert.True(t, store.IsNotFound(err))
}
