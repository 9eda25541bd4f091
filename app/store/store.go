package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/quka-ai/knowledge/pkg/types"
)

// TableStore 单表的增删改查，所有条件均为等值过滤
type TableStore interface {
	// Select 按条件读取行
	Select(ctx context.Context, table string, opts types.SelectOptions) ([]types.Record, error)
	// Count 返回满足条件的行数
	Count(ctx context.Context, table string, filters types.Filters) (int64, error)
	// Insert 批量写入，返回写入后的行(包含远端生成的 id)
	Insert(ctx context.Context, table string, records []types.Record) ([]types.Record, error)
	// Update 更新满足条件的行，返回更新后的行
	Update(ctx context.Context, table string, values types.Record, filters types.Filters) ([]types.Record, error)
	// Delete 删除满足条件的行，返回被删除的行
	Delete(ctx context.Context, table string, filters types.Filters) ([]types.Record, error)
}

// KnowledgeStore 知识库的关联查询
type KnowledgeStore interface {
	// SearchChunks 按内容模糊匹配片段，并带出所属文档标题
	SearchChunks(ctx context.Context, query string, limit uint64) ([]types.ChunkSearchResult, error)
	// ListDocuments 列出所有文档及其来源
	ListDocuments(ctx context.Context) ([]types.DocumentWithSource, error)
	// MatchChunks 按向量余弦相似度检索片段
	MatchChunks(ctx context.Context, embedding pgvector.Vector, limit uint64) ([]types.ChunkSearchResult, error)
}

type Store interface {
	TableStore
	KnowledgeStore
	// Backend 返回后端名称，用于日志与指标
	Backend() string
	Close() error
}

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrEmptyFilters      = errors.New("filters are required")
	ErrNoRecords         = errors.New("no records given")
	ErrInvalidFilter     = errors.New("filter value must be a string, number, boolean or null")
)

// NotFoundError 目标表或视图不存在
type NotFoundError struct {
	Table string
	Err   error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("relation %q does not exist: %v", e.Table, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// CheckTable 校验表名以及过滤列名
func CheckTable(table string, columns ...string) error {
	if !types.ValidIdentifier(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	for _, c := range columns {
		if !types.ValidIdentifier(c) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, c)
		}
	}
	return nil
}

// CheckFilters 校验过滤列名，过滤值只接受标量
func CheckFilters(filters types.Filters) error {
	for _, column := range filters.Columns() {
		if !types.ValidIdentifier(column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
		}
		switch filters[column].(type) {
		case nil, string, bool, json.Number,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return fmt.Errorf("%w: column %q", ErrInvalidFilter, column)
		}
	}
	return nil
}
