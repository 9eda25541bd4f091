package sqlstore

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/quka-ai/knowledge/pkg/types"
)

func (p *Provider) Select(ctx context.Context, table string, opts types.SelectOptions) ([]types.Record, error) {
	return p.stores.TableStore.Select(ctx, table, opts)
}

func (p *Provider) Count(ctx context.Context, table string, filters types.Filters) (int64, error) {
	return p.stores.TableStore.Count(ctx, table, filters)
}

func (p *Provider) Insert(ctx context.Context, table string, records []types.Record) ([]types.Record, error) {
	return p.stores.TableStore.Insert(ctx, table, records)
}

func (p *Provider) Update(ctx context.Context, table string, values types.Record, filters types.Filters) ([]types.Record, error) {
	return p.stores.TableStore.Update(ctx, table, values, filters)
}

func (p *Provider) Delete(ctx context.Context, table string, filters types.Filters) ([]types.Record, error) {
	return p.stores.TableStore.Delete(ctx, table, filters)
}

func (p *Provider) SearchChunks(ctx context.Context, query string, limit uint64) ([]types.ChunkSearchResult, error) {
	return p.stores.KnowledgeStore.SearchChunks(ctx, query, limit)
}

func (p *Provider) ListDocuments(ctx context.Context) ([]types.DocumentWithSource, error) {
	return p.stores.KnowledgeStore.ListDocuments(ctx)
}

func (p *Provider) MatchChunks(ctx context.Context, embedding pgvector.Vector, limit uint64) ([]types.ChunkSearchResult, error) {
	return p.stores.KnowledgeStore.MatchChunks(ctx, embedding, limit)
}
