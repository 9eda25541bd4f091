// Package memstore 内存中的 store.Store 实现，用于测试与演示
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/types"
)

const BackendName = "memory"

// Hook 在写操作执行前调用，返回错误时中止该操作
type Hook func(op, table string, record types.Record) error

type Store struct {
	mu     sync.Mutex
	tables map[string][]types.Record
	hook   Hook
}

// New 创建包含所有知识库表的空存储，tables 可追加额外的表
func New(tables ...string) *Store {
	s := &Store{tables: make(map[string][]types.Record)}
	for _, t := range types.ExpectedTables {
		s.tables[t.Name()] = nil
	}
	for _, t := range types.ExpectedViews {
		s.tables[t.Name()] = nil
	}
	for _, t := range tables {
		s.tables[t] = nil
	}
	return s
}

func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// DropTable 模拟表不存在
func (s *Store) DropTable(table string) {
	s.mu.Lock()
	delete(s.tables, table)
	s.mu.Unlock()
}

// Rows 返回表中全部行的副本
func (s *Store) Rows(table string) []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]types.Record, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		res = append(res, clone(r))
	}
	return res
}

func (s *Store) Backend() string {
	return BackendName
}

func (s *Store) Close() error {
	return nil
}

func clone(r types.Record) types.Record {
	res := make(types.Record, len(r))
	for k, v := range r {
		res[k] = v
	}
	return res
}

func (s *Store) rows(table string) ([]types.Record, error) {
	rows, ok := s.tables[table]
	if !ok {
		return nil, &store.NotFoundError{Table: table, Err: fmt.Errorf("relation %q does not exist", table)}
	}
	return rows, nil
}

// normalize 统一数值与字符串的比较
func normalize(v any) string {
	switch val := v.(type) {
	case nil:
		return "\x00null"
	case json.Number:
		return val.String()
	case string:
		return val
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}

func match(r types.Record, filters types.Filters) bool {
	for column, want := range filters {
		if normalize(r[column]) != normalize(want) {
			return false
		}
	}
	return true
}

func likeRegexp(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("(?is)^" + strings.Join(parts, ".*") + "$")
}

func (s *Store) Select(ctx context.Context, table string, opts types.SelectOptions) ([]types.Record, error) {
	columns := opts.ColumnList()
	if err := store.CheckTable(table, columns...); err != nil {
		return nil, err
	}
	if err := store.CheckFilters(opts.Filters); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return nil, err
	}

	ilike := make(map[string]*regexp.Regexp, len(opts.ILike))
	for column, pattern := range opts.ILike {
		ilike[column] = likeRegexp(pattern)
	}

	var res []types.Record
	for _, r := range rows {
		if !match(r, opts.Filters) {
			continue
		}
		ok := true
		for column, re := range ilike {
			if !re.MatchString(r.String(column)) {
				ok = false
				break
			}
		}
		if ok {
			res = append(res, clone(r))
		}
	}

	if opts.OrderBy != "" {
		sort.SliceStable(res, func(i, j int) bool {
			a, b := res[i].String(opts.OrderBy), res[j].String(opts.OrderBy)
			if opts.Ascending {
				return a < b
			}
			return a > b
		})
	}
	if opts.Limit > 0 && uint64(len(res)) > opts.Limit {
		res = res[:opts.Limit]
	}

	if len(columns) > 0 {
		for i, r := range res {
			projected := make(types.Record, len(columns))
			for _, c := range columns {
				projected[c] = r[c]
			}
			res[i] = projected
		}
	}
	if res == nil {
		res = []types.Record{}
	}
	return res, nil
}

func (s *Store) Count(ctx context.Context, table string, filters types.Filters) (int64, error) {
	if err := store.CheckTable(table); err != nil {
		return 0, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range rows {
		if match(r, filters) {
			total++
		}
	}
	return total, nil
}

func (s *Store) Insert(ctx context.Context, table string, records []types.Record) ([]types.Record, error) {
	if len(records) == 0 {
		return nil, store.ErrNoRecords
	}
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return nil, err
	}

	res := make([]types.Record, 0, len(records))
	for _, r := range records {
		if err = store.CheckTable(table, r.Columns()...); err != nil {
			return nil, err
		}
		if s.hook != nil {
			if err = s.hook("insert", table, r); err != nil {
				return nil, err
			}
		}
		row := clone(r)
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.NewString()
		}
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
		}
		rows = append(rows, row)
		res = append(res, clone(row))
	}
	s.tables[table] = rows
	return res, nil
}

func (s *Store) Update(ctx context.Context, table string, values types.Record, filters types.Filters) ([]types.Record, error) {
	if len(values) == 0 {
		return nil, store.ErrNoRecords
	}
	if len(filters) == 0 {
		return nil, store.ErrEmptyFilters
	}
	if err := store.CheckTable(table, values.Columns()...); err != nil {
		return nil, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return nil, err
	}
	if s.hook != nil {
		if err = s.hook("update", table, values); err != nil {
			return nil, err
		}
	}

	res := []types.Record{}
	for _, r := range rows {
		if !match(r, filters) {
			continue
		}
		for k, v := range values {
			r[k] = v
		}
		res = append(res, clone(r))
	}
	return res, nil
}

func (s *Store) Delete(ctx context.Context, table string, filters types.Filters) ([]types.Record, error) {
	if len(filters) == 0 {
		return nil, store.ErrEmptyFilters
	}
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(table)
	if err != nil {
		return nil, err
	}

	res := []types.Record{}
	kept := rows[:0]
	for _, r := range rows {
		if match(r, filters) {
			res = append(res, r)
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	return res, nil
}

func (s *Store) documentTitles() map[string]string {
	titles := make(map[string]string)
	for _, d := range s.tables[types.TABLE_KNOWLEDGE_DOCUMENTS.Name()] {
		titles[d.ID()] = d.String("title")
	}
	return titles
}

func toChunkResult(r types.Record, titles map[string]string) types.ChunkSearchResult {
	res := types.ChunkSearchResult{
		ID:            r.ID(),
		DocumentID:    r.String("document_id"),
		DocumentTitle: titles[r.String("document_id")],
		Content:       r.String("content"),
	}
	fmt.Sscan(r.String("chunk_number"), &res.ChunkNumber)
	fmt.Sscan(r.String("total_chunks"), &res.TotalChunks)
	return res
}

func (s *Store) SearchChunks(ctx context.Context, query string, limit uint64) ([]types.ChunkSearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(types.TABLE_KNOWLEDGE_CHUNKS.Name())
	if err != nil {
		return nil, err
	}
	titles := s.documentTitles()
	re := likeRegexp("%" + query + "%")

	res := []types.ChunkSearchResult{}
	for _, r := range rows {
		if !re.MatchString(r.String("content")) {
			continue
		}
		res = append(res, toChunkResult(r, titles))
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].DocumentID != res[j].DocumentID {
			return res[i].DocumentID < res[j].DocumentID
		}
		return res[i].ChunkNumber < res[j].ChunkNumber
	})
	if limit > 0 && uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]types.DocumentWithSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.rows(types.TABLE_KNOWLEDGE_DOCUMENTS.Name())
	if err != nil {
		return nil, err
	}
	sources := make(map[string]types.Record)
	for _, src := range s.tables[types.TABLE_KNOWLEDGE_SOURCES.Name()] {
		sources[src.ID()] = src
	}

	res := make([]types.DocumentWithSource, 0, len(docs))
	for _, d := range docs {
		item := types.DocumentWithSource{
			ID:           d.ID(),
			Title:        d.String("title"),
			DocumentType: d.String("document_type"),
			CreatedAt:    d.String("created_at"),
		}
		if src, ok := sources[d.String("source_id")]; ok {
			item.SourceTitle = src.String("title")
			item.SourceType = src.String("source_type")
		}
		res = append(res, item)
	}
	return res, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (s *Store) MatchChunks(ctx context.Context, embedding pgvector.Vector, limit uint64) ([]types.ChunkSearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(types.TABLE_KNOWLEDGE_CHUNKS.Name())
	if err != nil {
		return nil, err
	}
	titles := s.documentTitles()
	query := embedding.Slice()

	res := []types.ChunkSearchResult{}
	for _, r := range rows {
		raw := r.String("embedding")
		if raw == "" {
			continue
		}
		var vec []float32
		if err = json.Unmarshal([]byte(raw), &vec); err != nil {
			continue
		}
		item := toChunkResult(r, titles)
		item.Similarity = cosine(query, vec)
		res = append(res, item)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Similarity > res[j].Similarity
	})
	if limit > 0 && uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

var _ store.Store = (*Store)(nil)
