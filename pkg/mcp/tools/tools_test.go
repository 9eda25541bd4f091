package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/knowledge/app/core"
	v1 "github.com/quka-ai/knowledge/app/logic/v1"
	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/app/store/memstore"
	"github.com/quka-ai/knowledge/pkg/mcp/tools"
	"github.com/quka-ai/knowledge/pkg/types"
)

func newTestCore() (*core.Core, *memstore.Store) {
	cfg := core.CoreConfig{
		Supabase: core.SupabaseConfig{URL: "https://abcdefgh.supabase.co", ServiceKey: "key"},
	}
	cfg.SetDefaults()

	s := memstore.New("users")
	return core.NewCore(cfg, s, nil), s
}

func TestTableTools(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCore()

	_, created, err := tools.NewCreateTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.CreateTableRecordsInput{
		TableName: "users",
		Records:   []any{map[string]any{"name": "John", "age": float64(30)}, map[string]any{"name": "Jane", "age": float64(25)}},
	})
	require.NoError(t, err)
	assert.Equal(t, v1.STATUS_SUCCESS, created.Status)
	assert.Equal(t, 2, created.Count)
	// 整数不能被写成浮点
	assert.Equal(t, json.Number("30"), s.Rows("users")[0]["age"])

	_, single, err := tools.NewCreateTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.CreateTableRecordsInput{
		TableName: "users",
		Records:   map[string]any{"name": "Bob", "age": float64(40)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, single.Count)

	desc := false
	result, read, err := tools.NewReadTableRowsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.ReadTableRowsInput{
		TableName: "users",
		Columns:   "name,age",
		OrderBy:   "name",
		Ascending: &desc,
		Limit:     2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, read.Count)
	assert.Equal(t, "John", read.Rows[0].String("name"))
	assert.Equal(t, "Jane", read.Rows[1].String("name"))
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, `"name":"John"`)

	_, read, err = tools.NewReadTableRowsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.ReadTableRowsInput{
		TableName: "users",
		Filters:   map[string]any{"age": float64(25)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, read.Count)
	assert.Equal(t, "Jane", read.Rows[0].String("name"))

	_, updated, err := tools.NewUpdateTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.UpdateTableRecordsInput{
		TableName: "users",
		Updates:   map[string]any{"status": "premium"},
		Filters:   map[string]any{"name": "Bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Count)
	assert.Equal(t, "premium", updated.Data[0].String("status"))

	_, deleted, err := tools.NewDeleteTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.DeleteTableRecordsInput{
		TableName: "users",
		Filters:   map[string]any{"name": "nobody"},
	})
	require.NoError(t, err)
	assert.Equal(t, v1.STATUS_ERROR, deleted.Status)
	assert.Empty(t, deleted.Data)

	_, _, err = tools.NewDeleteTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.DeleteTableRecordsInput{TableName: "users"})
	assert.Error(t, err)

	_, _, err = tools.NewReadTableRowsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.ReadTableRowsInput{TableName: "users", Limit: -1})
	assert.Error(t, err)

	_, _, err = tools.NewCreateTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.CreateTableRecordsInput{TableName: "users", Records: "text"})
	assert.Error(t, err)

	_, _, err = tools.NewReadTableRowsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.ReadTableRowsInput{
		TableName: "users",
		Filters:   map[string]any{"tags": []any{"a", "b"}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidFilter)

	_, _, err = tools.NewDeleteTableRecordsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.DeleteTableRecordsInput{
		TableName: "users",
		Filters:   map[string]any{"metadata": map[string]any{"k": "v"}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidFilter)
}

func TestKnowledgeTools(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCore()

	doc, err := s.Insert(ctx, types.TABLE_KNOWLEDGE_DOCUMENTS.Name(), []types.Record{{"title": "Guide", "document_type": "documentation"}})
	require.NoError(t, err)
	_, err = s.Insert(ctx, types.TABLE_KNOWLEDGE_CHUNKS.Name(), []types.Record{
		{"document_id": doc[0].ID(), "content": "enable row level security", "chunk_number": 1, "total_chunks": 1},
	})
	require.NoError(t, err)

	_, found, err := tools.NewSearchKnowledgeHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.SearchKnowledgeInput{Query: "security"})
	require.NoError(t, err)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "Guide", found.Results[0].DocumentTitle)

	_, _, err = tools.NewSearchKnowledgeHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.SearchKnowledgeInput{Query: "security", Semantic: true})
	assert.Error(t, err)

	_, docs, err := tools.NewListDocumentsHandler(c).Handle(ctx, &mcp.CallToolRequest{}, tools.ListDocumentsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, docs.Count)
	assert.Equal(t, "Unknown", docs.Documents[0].SourceTitle)
}
