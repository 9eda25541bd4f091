package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/types"
)

const (
	STATUS_SUCCESS = "success"
	STATUS_ERROR   = "error"
)

// MutationResult 写操作的返回结构
type MutationResult struct {
	Data   []types.Record `json:"data"`
	Count  int            `json:"count"`
	Status string         `json:"status"`
}

func newMutationResult(data []types.Record) *MutationResult {
	if data == nil {
		data = []types.Record{}
	}
	res := &MutationResult{
		Data:   data,
		Count:  len(data),
		Status: STATUS_ERROR,
	}
	if len(data) > 0 {
		res.Status = STATUS_SUCCESS
	}
	return res
}

type ReadTableOptions struct {
	Columns   string
	Filters   types.Filters
	Limit     uint64
	OrderBy   string
	Ascending bool
}

type TableLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewTableLogic(ctx context.Context, core *core.Core) *TableLogic {
	return &TableLogic{
		ctx:  ctx,
		core: core,
	}
}

// ReadTableRows 读取任意表
func (l *TableLogic) ReadTableRows(table string, opts ReadTableOptions) ([]types.Record, error) {
	if opts.Columns == "" {
		opts.Columns = "*"
	}
	rows, err := l.core.Store().Select(l.ctx, table, types.SelectOptions{
		Columns:   opts.Columns,
		Filters:   opts.Filters,
		OrderBy:   opts.OrderBy,
		Ascending: opts.Ascending,
		Limit:     opts.Limit,
	})
	if err != nil {
		return nil, errors.New("TableLogic.ReadTableRows.Select", "failed to read rows from "+table, err)
	}
	return rows, nil
}

// ParseRecords records 可以是单个对象或对象数组
func ParseRecords(raw json.RawMessage) ([]types.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, errors.New("ParseRecords.Empty", "records is required", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if strings.HasPrefix(string(trimmed), "[") {
		var list []types.Record
		if err := dec.Decode(&list); err != nil {
			return nil, errors.New("ParseRecords.DecodeList", "records must be an object or an array of objects", err)
		}
		if len(list) == 0 {
			return nil, errors.New("ParseRecords.EmptyList", "records is empty", nil)
		}
		return list, nil
	}

	var one types.Record
	if err := dec.Decode(&one); err != nil {
		return nil, errors.New("ParseRecords.DecodeObject", "records must be an object or an array of objects", err)
	}
	return []types.Record{one}, nil
}

// CreateTableRecords 写入一条或多条记录
func (l *TableLogic) CreateTableRecords(table string, records []types.Record) (*MutationResult, error) {
	data, err := l.core.Store().Insert(l.ctx, table, records)
	if err != nil {
		return nil, errors.New("TableLogic.CreateTableRecords.Insert", "failed to create records in "+table, err)
	}
	return newMutationResult(data), nil
}

// UpdateTableRecords 更新满足过滤条件的记录，过滤条件不能为空
func (l *TableLogic) UpdateTableRecords(table string, updates types.Record, filters types.Filters) (*MutationResult, error) {
	data, err := l.core.Store().Update(l.ctx, table, updates, filters)
	if err != nil {
		return nil, errors.New("TableLogic.UpdateTableRecords.Update", "failed to update records in "+table, err)
	}
	return newMutationResult(data), nil
}

// DeleteTableRecords 删除满足过滤条件的记录，过滤条件不能为空
func (l *TableLogic) DeleteTableRecords(table string, filters types.Filters) (*MutationResult, error) {
	data, err := l.core.Store().Delete(l.ctx, table, filters)
	if err != nil {
		return nil, errors.New("TableLogic.DeleteTableRecords.Delete", "failed to delete records from "+table, err)
	}
	return newMutationResult(data), nil
}
