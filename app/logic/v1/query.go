package v1

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/types"
)

const DEFAULT_QUERY_LIMIT = 5

type QueryLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewQueryLogic(ctx context.Context, core *core.Core) *QueryLogic {
	return &QueryLogic{
		ctx:  ctx,
		core: core,
	}
}

func fillUnknownTitle(res []types.ChunkSearchResult) []types.ChunkSearchResult {
	return lo.Map(res, func(item types.ChunkSearchResult, _ int) types.ChunkSearchResult {
		if item.DocumentTitle == "" {
			item.DocumentTitle = types.UNKNOWN_VALUE
		}
		return item
	})
}

// Search 按内容模糊匹配片段
func (l *QueryLogic) Search(query string, limit uint64) ([]types.ChunkSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("QueryLogic.Search.EmptyQuery", "query is required", nil)
	}
	if limit == 0 {
		limit = DEFAULT_QUERY_LIMIT
	}

	res, err := l.core.Store().SearchChunks(l.ctx, query, limit)
	if err != nil {
		return nil, errors.New("QueryLogic.Search.SearchChunks", "Error querying database", err)
	}
	return fillUnknownTitle(res), nil
}

// SemanticSearch 将查询向量化后按相似度检索
func (l *QueryLogic) SemanticSearch(query string, limit uint64) ([]types.ChunkSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("QueryLogic.SemanticSearch.EmptyQuery", "query is required", nil)
	}
	if limit == 0 {
		limit = DEFAULT_QUERY_LIMIT
	}

	embedder, err := l.core.Embedder()
	if err != nil {
		return nil, errors.New("QueryLogic.SemanticSearch.Embedder", "semantic search is unavailable", err)
	}
	vectors, err := embedder.EmbeddingForQuery(l.ctx, []string{query})
	if err != nil {
		return nil, errors.New("QueryLogic.SemanticSearch.EmbeddingForQuery", "failed to embed query", err)
	}
	if len(vectors.Data) == 0 {
		return nil, errors.New("QueryLogic.SemanticSearch.EmptyEmbedding", "embedding service returned no vector", nil)
	}

	res, err := l.core.Store().MatchChunks(l.ctx, vectors.Vectors()[0], limit)
	if err != nil {
		return nil, errors.New("QueryLogic.SemanticSearch.MatchChunks", "Error querying database", err)
	}
	return fillUnknownTitle(res), nil
}

// ListDocuments 列出所有文档，来源缺失时显示 Unknown
func (l *QueryLogic) ListDocuments() ([]types.DocumentWithSource, error) {
	docs, err := l.core.Store().ListDocuments(l.ctx)
	if err != nil {
		return nil, errors.New("QueryLogic.ListDocuments.ListDocuments", "Error listing documents", err)
	}
	return lo.Map(docs, func(item types.DocumentWithSource, _ int) types.DocumentWithSource {
		if item.SourceTitle == "" {
			item.SourceTitle = types.UNKNOWN_VALUE
		}
		if item.SourceType == "" {
			item.SourceType = types.UNKNOWN_VALUE
		}
		return item
	}), nil
}
