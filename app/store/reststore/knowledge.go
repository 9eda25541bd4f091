package reststore

import (
	"context"
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"github.com/supabase-community/postgrest-go"

	"github.com/quka-ai/knowledge/pkg/types"
)

type chunkWithDocument struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	Content     string `json:"content"`
	ChunkNumber int    `json:"chunk_number"`
	TotalChunks int    `json:"total_chunks"`
	Document    *struct {
		Title string `json:"title"`
	} `json:"knowledge_documents"`
}

var ascending = &postgrest.OrderOpts{Ascending: true}

// SearchChunks 内容模糊匹配，通过资源嵌入带出文档标题
func (p *Provider) SearchChunks(ctx context.Context, query string, limit uint64) ([]types.ChunkSearchResult, error) {
	table := types.TABLE_KNOWLEDGE_CHUNKS.Name()

	client, cancel := p.session(ctx, table)
	defer cancel()

	q := client.From(table).
		Select("*,"+types.TABLE_KNOWLEDGE_DOCUMENTS.Name()+"(title)", "", false).
		Ilike("content", ilikePattern("%"+query+"%")).
		Order("document_id", ascending).
		Order("chunk_number", ascending)
	if limit > 0 {
		q = q.Limit(int(limit), "")
	}

	raw, _, err := q.Execute()
	if err != nil {
		return nil, unwrapError(err)
	}

	var rows []chunkWithDocument
	if err = json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	res := make([]types.ChunkSearchResult, 0, len(rows))
	for _, r := range rows {
		item := types.ChunkSearchResult{
			ID:          r.ID,
			DocumentID:  r.DocumentID,
			Content:     r.Content,
			ChunkNumber: r.ChunkNumber,
			TotalChunks: r.TotalChunks,
		}
		if r.Document != nil {
			item.DocumentTitle = r.Document.Title
		}
		res = append(res, item)
	}
	return res, nil
}

type documentWithSource struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	DocumentType string `json:"document_type"`
	CreatedAt    string `json:"created_at"`
	Source       *struct {
		Title      string `json:"title"`
		SourceType string `json:"source_type"`
	} `json:"knowledge_sources"`
}

// ListDocuments 列出全部文档及其来源
func (p *Provider) ListDocuments(ctx context.Context) ([]types.DocumentWithSource, error) {
	table := types.TABLE_KNOWLEDGE_DOCUMENTS.Name()

	client, cancel := p.session(ctx, table)
	defer cancel()

	raw, _, err := client.From(table).
		Select("*,"+types.TABLE_KNOWLEDGE_SOURCES.Name()+"(title,source_type)", "", false).
		Order("created_at", ascending).
		Execute()
	if err != nil {
		return nil, unwrapError(err)
	}

	var rows []documentWithSource
	if err = json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	res := make([]types.DocumentWithSource, 0, len(rows))
	for _, r := range rows {
		item := types.DocumentWithSource{
			ID:           r.ID,
			Title:        r.Title,
			DocumentType: r.DocumentType,
			CreatedAt:    r.CreatedAt,
		}
		if r.Source != nil {
			item.SourceTitle = r.Source.Title
			item.SourceType = r.Source.SourceType
		}
		res = append(res, item)
	}
	return res, nil
}

const matchChunksFunction = "match_knowledge_chunks"

// MatchChunks 调用数据库函数 match_knowledge_chunks 做向量检索
func (p *Provider) MatchChunks(ctx context.Context, embedding pgvector.Vector, limit uint64) ([]types.ChunkSearchResult, error) {
	client, cancel := p.session(ctx, matchChunksFunction)
	defer cancel()

	raw := client.Rpc(matchChunksFunction, "", map[string]any{
		"query_embedding": embedding.String(),
		"match_count":     limit,
	})
	if client.ClientError != nil {
		return nil, unwrapError(client.ClientError)
	}

	var res []types.ChunkSearchResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, err
	}
	return res, nil
}
