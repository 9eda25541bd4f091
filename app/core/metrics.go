package core

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/metrics"
	"github.com/quka-ai/knowledge/pkg/types"
)

type Metrics struct {
	storeOpDuration *prometheus.HistogramVec
	storeOpError    *prometheus.CounterVec
	importedChunks  *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.NewRegistry())

	return &Metrics{
		storeOpDuration: metrics.NewHistogramVec("store_op_duration", []string{"backend", "op", "table"}),
		storeOpError:    metrics.NewCounterVec("store_op_error", []string{"backend", "op", "table"}),
		importedChunks:  metrics.NewCounterVec("imported_chunks", []string{"status"}),
	}
}

func (m *Metrics) StoreOpTimer(backend, op, table string) *prometheus.Timer {
	return prometheus.NewTimer(m.storeOpDuration.WithLabelValues(backend, op, table))
}

func (m *Metrics) StoreOpErrorInc(backend, op, table string) {
	m.storeOpError.WithLabelValues(backend, op, table).Inc()
}

func (m *Metrics) ImportedChunksAdd(status string, n int) {
	m.importedChunks.WithLabelValues(status).Add(float64(n))
}

// instrumentedStore 为每次存储操作记录耗时与错误数
type instrumentedStore struct {
	store.Store
	m *Metrics
}

func instrument(s store.Store, m *Metrics) store.Store {
	return &instrumentedStore{Store: s, m: m}
}

func (s *instrumentedStore) observe(op, table string, err error, timer *prometheus.Timer) {
	timer.ObserveDuration()
	if err != nil {
		s.m.StoreOpErrorInc(s.Backend(), op, table)
	}
}

func (s *instrumentedStore) Select(ctx context.Context, table string, opts types.SelectOptions) (res []types.Record, err error) {
	timer := s.m.StoreOpTimer(s.Backend(), "select", table)
	res, err = s.Store.Select(ctx, table, opts)
	s.observe("select", table, err, timer)
	return
}

func (s *instrumentedStore) Count(ctx context.Context, table string, filters types.Filters) (res int64, err error) {
	timer := s.m.StoreOpTimer(s.Backend(), "count", table)
	res, err = s.Store.Count(ctx, table, filters)
	s.observe("count", table, err, timer)
	return
}

func (s *instrumentedStore) Insert(ctx context.Context, table string, records []types.Record) (res []types.Record, err error) {
	timer := s.m.StoreOpTimer(s.Backend(), "insert", table)
	res, err = s.Store.Insert(ctx, table, records)
	s.observe("insert", table, err, timer)
	return
}

func (s *instrumentedStore) Update(ctx context.Context, table string, values types.Record, filters types.Filters) (res []types.Record, err error) {
	timer := s.m.StoreOpTimer(s.Backend(), "update", table)
	res, err = s.Store.Update(ctx, table, values, filters)
	s.observe("update", table, err, timer)
	return
}

func (s *instrumentedStore) Delete(ctx context.Context, table string, filters types.Filters) (res []types.Record, err error) {
	timer := s.m.StoreOpTimer(s.Backend(), "delete", table)
	res, err = s.Store.Delete(ctx, table, filters)
	s.observe("delete", table, err, timer)
	return
}

func (s *instrumentedStore) SearchChunks(ctx context.Context, query string, limit uint64) (res []types.ChunkSearchResult, err error) {
	table := types.TABLE_KNOWLEDGE_CHUNKS.Name()
	timer := s.m.StoreOpTimer(s.Backend(), "search", table)
	res, err = s.Store.SearchChunks(ctx, query, limit)
	s.observe("search", table, err, timer)
	return
}

func (s *instrumentedStore) ListDocuments(ctx context.Context) (res []types.DocumentWithSource, err error) {
	table := types.TABLE_KNOWLEDGE_DOCUMENTS.Name()
	timer := s.m.StoreOpTimer(s.Backend(), "list", table)
	res, err = s.Store.ListDocuments(ctx)
	s.observe("list", table, err, timer)
	return
}

func (s *instrumentedStore) MatchChunks(ctx context.Context, embedding pgvector.Vector, limit uint64) (res []types.ChunkSearchResult, err error) {
	table := types.TABLE_KNOWLEDGE_CHUNKS.Name()
	timer := s.m.StoreOpTimer(s.Backend(), "match", table)
	res, err = s.Store.MatchChunks(ctx, embedding, limit)
	s.observe("match", table, err, timer)
	return
}
