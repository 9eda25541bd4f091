package sqlstore

import (
	"context"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/register"
	"github.com/quka-ai/knowledge/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.TableStore = NewTableStore(provider, provider.schema)
	})
}

// TableStore 通用的单表操作，表名与列名在运行时传入
type TableStore struct {
	CommonFields
}

func NewTableStore(provider SqlProviderAchieve, schema string) *TableStore {
	repo := &TableStore{}
	repo.SetProvider(provider)
	repo.SetSchema(schema)
	return repo
}

func applyFilters[T interface {
	Where(pred interface{}, args ...interface{}) T
}](query T, filters types.Filters) T {
	for _, column := range filters.Columns() {
		query = query.Where(sq.Eq{pq.QuoteIdentifier(column): filters[column]})
	}
	return query
}

func (s *TableStore) buildSelect(table string, opts types.SelectOptions) (string, []interface{}, error) {
	columns := opts.ColumnList()
	check := append(append([]string{}, columns...), opts.Filters.Columns()...)
	for column := range opts.ILike {
		check = append(check, column)
	}
	if opts.OrderBy != "" {
		check = append(check, opts.OrderBy)
	}
	if err := store.CheckTable(table, check...); err != nil {
		return "", nil, err
	}
	if err := store.CheckFilters(opts.Filters); err != nil {
		return "", nil, err
	}

	selectColumns := []string{"*"}
	if len(columns) > 0 {
		selectColumns = make([]string, 0, len(columns))
		for _, c := range columns {
			selectColumns = append(selectColumns, pq.QuoteIdentifier(c))
		}
	}

	query := sq.Select(selectColumns...).From(s.QuoteTable(table))
	query = applyFilters(query, opts.Filters)

	ilikeColumns := make([]string, 0, len(opts.ILike))
	for column := range opts.ILike {
		ilikeColumns = append(ilikeColumns, column)
	}
	sort.Strings(ilikeColumns)
	for _, column := range ilikeColumns {
		query = query.Where(sq.ILike{pq.QuoteIdentifier(column): opts.ILike[column]})
	}

	if opts.OrderBy != "" {
		direction := " DESC"
		if opts.Ascending {
			direction = " ASC"
		}
		query = query.OrderBy(pq.QuoteIdentifier(opts.OrderBy) + direction)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// Select 读取满足条件的行
func (s *TableStore) Select(ctx context.Context, table string, opts types.SelectOptions) ([]types.Record, error) {
	queryString, args, err := s.buildSelect(table, opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.GetReplica(ctx).Queryx(queryString, args...)
	if err != nil {
		return nil, wrapError(table, err)
	}
	return scanRecords(rows)
}

func (s *TableStore) buildCount(table string, filters types.Filters) (string, []interface{}, error) {
	if err := store.CheckTable(table); err != nil {
		return "", nil, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return "", nil, err
	}
	query := applyFilters(sq.Select("COUNT(*)").From(s.QuoteTable(table)), filters)

	queryString, args, err := query.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// Count 返回满足条件的行数
func (s *TableStore) Count(ctx context.Context, table string, filters types.Filters) (int64, error) {
	queryString, args, err := s.buildCount(table, filters)
	if err != nil {
		return 0, err
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, wrapError(table, err)
	}
	return total, nil
}

func (s *TableStore) buildInsert(table string, records []types.Record) (string, []interface{}, error) {
	if len(records) == 0 {
		return "", nil, store.ErrNoRecords
	}

	// 多条记录的列取并集，缺失的列使用 DEFAULT
	columnSet := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			columnSet[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for k := range columnSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	if err := store.CheckTable(table, columns...); err != nil {
		return "", nil, err
	}

	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		quoted = append(quoted, pq.QuoteIdentifier(c))
	}

	query := sq.Insert(s.QuoteTable(table)).Columns(quoted...).Suffix("RETURNING *")
	for _, r := range records {
		values := make([]interface{}, 0, len(columns))
		for _, c := range columns {
			v, ok := r[c]
			if !ok {
				values = append(values, sq.Expr("DEFAULT"))
				continue
			}
			val, err := toSqlValue(v)
			if err != nil {
				return "", nil, err
			}
			values = append(values, val)
		}
		query = query.Values(values...)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// Insert 批量写入记录
func (s *TableStore) Insert(ctx context.Context, table string, records []types.Record) ([]types.Record, error) {
	queryString, args, err := s.buildInsert(table, records)
	if err != nil {
		return nil, err
	}

	rows, err := s.GetMaster(ctx).Queryx(queryString, args...)
	if err != nil {
		return nil, wrapError(table, err)
	}
	return scanRecords(rows)
}

func (s *TableStore) buildUpdate(table string, values types.Record, filters types.Filters) (string, []interface{}, error) {
	if len(values) == 0 {
		return "", nil, store.ErrNoRecords
	}
	if len(filters) == 0 {
		return "", nil, store.ErrEmptyFilters
	}
	if err := store.CheckTable(table, values.Columns()...); err != nil {
		return "", nil, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return "", nil, err
	}

	query := sq.Update(s.QuoteTable(table)).Suffix("RETURNING *")
	for _, column := range values.Columns() {
		val, err := toSqlValue(values[column])
		if err != nil {
			return "", nil, err
		}
		query = query.Set(pq.QuoteIdentifier(column), val)
	}
	query = applyFilters(query, filters)

	queryString, args, err := query.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// Update 更新满足条件的行
func (s *TableStore) Update(ctx context.Context, table string, values types.Record, filters types.Filters) ([]types.Record, error) {
	queryString, args, err := s.buildUpdate(table, values, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.GetMaster(ctx).Queryx(queryString, args...)
	if err != nil {
		return nil, wrapError(table, err)
	}
	return scanRecords(rows)
}

func (s *TableStore) buildDelete(table string, filters types.Filters) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, store.ErrEmptyFilters
	}
	if err := store.CheckTable(table); err != nil {
		return "", nil, err
	}
	if err := store.CheckFilters(filters); err != nil {
		return "", nil, err
	}

	query := applyFilters(sq.Delete(s.QuoteTable(table)).Suffix("RETURNING *"), filters)

	queryString, args, err := query.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return queryString, args, nil
}

// Delete 删除满足条件的行
func (s *TableStore) Delete(ctx context.Context, table string, filters types.Filters) ([]types.Record, error) {
	queryString, args, err := s.buildDelete(table, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.GetMaster(ctx).Queryx(queryString, args...)
	if err != nil {
		return nil, wrapError(table, err)
	}
	return scanRecords(rows)
}
