package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"

	"github.com/quka-ai/knowledge/pkg/register"
	"github.com/quka-ai/knowledge/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KnowledgeStore = NewKnowledgeStore(provider, provider.schema)
	})
}

// KnowledgeStore 片段、文档、来源之间的关联查询
type KnowledgeStore struct {
	CommonFields
}

func NewKnowledgeStore(provider SqlProviderAchieve, schema string) *KnowledgeStore {
	repo := &KnowledgeStore{}
	repo.SetProvider(provider)
	repo.SetSchema(schema)
	return repo
}

var chunkResultColumns = []string{
	"c.id::text AS id",
	"COALESCE(c.document_id::text, '') AS document_id",
	"COALESCE(d.title, '') AS document_title",
	"COALESCE(c.content, '') AS content",
	"COALESCE(c.chunk_number, 0) AS chunk_number",
	"COALESCE(c.total_chunks, 0) AS total_chunks",
}

func (s *KnowledgeStore) chunksJoinDocuments(columns ...string) sq.SelectBuilder {
	return sq.Select(columns...).
		From(s.QuoteTable(types.TABLE_KNOWLEDGE_CHUNKS.Name()) + " c").
		LeftJoin(s.QuoteTable(types.TABLE_KNOWLEDGE_DOCUMENTS.Name()) + " d ON d.id = c.document_id")
}

func (s *KnowledgeStore) buildSearchChunks(query string, limit uint64) (string, []interface{}, error) {
	q := s.chunksJoinDocuments(chunkResultColumns...).
		Where(sq.ILike{"c.content": "%" + query + "%"}).
		OrderBy("c.document_id", "c.chunk_number")
	if limit > 0 {
		q = q.Limit(limit)
	}

	queryString, args, err := q.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// SearchChunks 内容模糊匹配
func (s *KnowledgeStore) SearchChunks(ctx context.Context, query string, limit uint64) ([]types.ChunkSearchResult, error) {
	queryString, args, err := s.buildSearchChunks(query, limit)
	if err != nil {
		return nil, err
	}

	var res []types.ChunkSearchResult
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, wrapError(types.TABLE_KNOWLEDGE_CHUNKS.Name(), err)
	}
	return res, nil
}

func (s *KnowledgeStore) buildListDocuments() (string, []interface{}, error) {
	q := sq.Select(
		"d.id::text AS id",
		"COALESCE(d.title, '') AS title",
		"COALESCE(d.document_type, '') AS document_type",
		"COALESCE(d.created_at::text, '') AS created_at",
		"COALESCE(s.title, '') AS source_title",
		"COALESCE(s.source_type, '') AS source_type",
	).
		From(s.QuoteTable(types.TABLE_KNOWLEDGE_DOCUMENTS.Name()) + " d").
		LeftJoin(s.QuoteTable(types.TABLE_KNOWLEDGE_SOURCES.Name()) + " s ON s.id = d.source_id").
		OrderBy("d.created_at")

	queryString, args, err := q.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// ListDocuments 列出全部文档
func (s *KnowledgeStore) ListDocuments(ctx context.Context) ([]types.DocumentWithSource, error) {
	queryString, args, err := s.buildListDocuments()
	if err != nil {
		return nil, err
	}

	var res []types.DocumentWithSource
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, wrapError(types.TABLE_KNOWLEDGE_DOCUMENTS.Name(), err)
	}
	return res, nil
}

func (s *KnowledgeStore) buildMatchChunks(embedding pgvector.Vector, limit uint64) (string, []interface{}, error) {
	// <=> cosine distance
	similarity, vectorArgs, err := sq.Expr("1 - (c.embedding <=> ?) AS similarity", embedding).ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}

	q := s.chunksJoinDocuments(append(append([]string{}, chunkResultColumns...), similarity)...).
		Where("c.embedding IS NOT NULL").
		OrderBy("similarity DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	queryString, args, err := q.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, append(vectorArgs, args...), nil
}

// MatchChunks 向量检索
func (s *KnowledgeStore) MatchChunks(ctx context.Context, embedding pgvector.Vector, limit uint64) ([]types.ChunkSearchResult, error) {
	queryString, args, err := s.buildMatchChunks(embedding, limit)
	if err != nil {
		return nil, err
	}

	var res []types.ChunkSearchResult
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, wrapError(types.TABLE_KNOWLEDGE_CHUNKS.Name(), err)
	}
	return res, nil
}
