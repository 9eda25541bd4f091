package reststore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/types"
)

// filterValue 将标量过滤值编码为 PostgREST 的参数文本
func filterValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// applyFilters 等值过滤，nil 对应 is.null
func applyFilters(query *postgrest.FilterBuilder, filters types.Filters) *postgrest.FilterBuilder {
	for _, column := range filters.Columns() {
		v := filters[column]
		if v == nil {
			query = query.Is(column, "null")
			continue
		}
		query = query.Eq(column, filterValue(v))
	}
	return query
}

// ilikePattern PostgREST 在 URL 中使用 * 作为通配符
func ilikePattern(pattern string) string {
	return strings.ReplaceAll(pattern, "%", "*")
}

func checkSelect(table string, opts types.SelectOptions) error {
	check := opts.ColumnList()
	for column := range opts.ILike {
		check = append(check, column)
	}
	if opts.OrderBy != "" {
		check = append(check, opts.OrderBy)
	}
	if err := store.CheckTable(table, check...); err != nil {
		return err
	}
	return store.CheckFilters(opts.Filters)
}

// Select 读取满足条件的行
func (p *Provider) Select(ctx context.Context, table string, opts types.SelectOptions) ([]types.Record, error) {
	if err := checkSelect(table, opts); err != nil {
		return nil, err
	}

	client, cancel := p.session(ctx, table)
	defer cancel()

	query := client.From(table).Select(strings.Join(opts.ColumnList(), ","), "", false)
	query = applyFilters(query, opts.Filters)

	ilikeColumns := make([]string, 0, len(opts.ILike))
	for column := range opts.ILike {
		ilikeColumns = append(ilikeColumns, column)
	}
	sort.Strings(ilikeColumns)
	for _, column := range ilikeColumns {
		query = query.Ilike(column, ilikePattern(opts.ILike[column]))
	}

	if opts.OrderBy != "" {
		query = query.Order(opts.OrderBy, &postgrest.OrderOpts{Ascending: opts.Ascending})
	}
	if opts.Limit > 0 {
		query = query.Limit(int(opts.Limit), "")
	}

	raw, _, err := query.Execute()
	if err != nil {
		return nil, unwrapError(err)
	}
	return types.DecodeRecords(raw)
}

// Count 使用 count=exact，总数取自 Content-Range
func (p *Provider) Count(ctx context.Context, table string, filters types.Filters) (int64, error) {
	if err := store.CheckTable(table); err != nil {
		return 0, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return 0, err
	}

	client, cancel := p.session(ctx, table)
	defer cancel()

	query := applyFilters(client.From(table).Select("*", "exact", false), filters)
	_, total, err := query.Limit(1, "").Execute()
	if err != nil {
		return 0, unwrapError(err)
	}
	return total, nil
}

// insertBatches 按列集合切分连续的记录，同一批次的记录列完全一致
func insertBatches(records []types.Record) [][]types.Record {
	var (
		batches [][]types.Record
		last    string
	)
	for _, r := range records {
		key := strings.Join(r.Columns(), ",")
		if len(batches) == 0 || key != last {
			batches = append(batches, nil)
			last = key
		}
		batches[len(batches)-1] = append(batches[len(batches)-1], r)
	}
	return batches
}

// Insert 批量写入，列不同的记录分批提交，未给出的列使用默认值
func (p *Provider) Insert(ctx context.Context, table string, records []types.Record) ([]types.Record, error) {
	if len(records) == 0 {
		return nil, store.ErrNoRecords
	}
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := store.CheckTable(table, r.Columns()...); err != nil {
			return nil, err
		}
	}

	client, cancel := p.session(ctx, table)
	defer cancel()

	res := make([]types.Record, 0, len(records))
	for _, batch := range insertBatches(records) {
		body, err := json.Marshal(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to encode records, %w", err)
		}

		raw, _, err := client.From(table).Insert(json.RawMessage(body), false, "", "representation", "").Execute()
		if err != nil {
			return nil, unwrapError(err)
		}
		rows, err := types.DecodeRecords(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, rows...)
	}
	return res, nil
}

// Update 更新满足条件的行
func (p *Provider) Update(ctx context.Context, table string, values types.Record, filters types.Filters) ([]types.Record, error) {
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

	body, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode values, %w", err)
	}

	client, cancel := p.session(ctx, table)
	defer cancel()

	query := applyFilters(client.From(table).Update(json.RawMessage(body), "representation", ""), filters)
	raw, _, err := query.Execute()
	if err != nil {
		return nil, unwrapError(err)
	}
	return types.DecodeRecords(raw)
}

// Delete 删除满足条件的行
func (p *Provider) Delete(ctx context.Context, table string, filters types.Filters) ([]types.Record, error) {
	if len(filters) == 0 {
		return nil, store.ErrEmptyFilters
	}
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return nil, err
	}

	client, cancel := p.session(ctx, table)
	defer cancel()

	raw, _, err := applyFilters(client.From(table).Delete("representation", ""), filters).Execute()
	if err != nil {
		return nil, unwrapError(err)
	}
	return types.DecodeRecords(raw)
}
