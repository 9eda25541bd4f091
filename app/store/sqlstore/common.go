package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quka-ai/knowledge/app/store"
)

func ErrorSqlBuild(err error) error {
	return fmt.Errorf("failed to build sql query, %w", err)
}

type SqlProviderAchieve interface {
	GetMaster() *sqlx.DB
	GetReplica() *sqlx.DB
}

// store 基础设置
type CommonFields struct {
	provider SqlProviderAchieve
	schema   string
}

func (c *CommonFields) SetProvider(p SqlProviderAchieve) {
	c.provider = p
}

func (c *CommonFields) SetSchema(schema string) {
	c.schema = schema
}

// QuoteTable 返回带 schema 前缀且已转义的表名
func (c *CommonFields) QuoteTable(table string) string {
	if c.schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(c.schema) + "." + pq.QuoteIdentifier(table)
}

type Master interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Queryx(query string, args ...interface{}) (*sqlx.Rows, error)
}

type Replica interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Queryx(query string, args ...interface{}) (*sqlx.Rows, error)
}

type dbWithContext struct {
	db  *sqlx.DB
	ctx context.Context
}

func (d *dbWithContext) Get(dest interface{}, query string, args ...interface{}) error {
	return d.db.GetContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return d.db.QueryxContext(d.ctx, query, args...)
}

func (d *dbWithContext) Select(dest interface{}, query string, args ...interface{}) error {
	return d.db.SelectContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(d.ctx, query, args...)
}

func (c *CommonFields) GetMaster(ctx context.Context) Master {
	return &dbWithContext{db: c.provider.GetMaster(), ctx: ctx}
}

func (c *CommonFields) GetReplica(ctx context.Context) Replica {
	return &dbWithContext{db: c.provider.GetReplica(), ctx: ctx}
}

// undefined_table
const pqUndefinedTable = pq.ErrorCode("42P01")

// wrapError 将表不存在的错误转换为 store.NotFoundError
func wrapError(table string, err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUndefinedTable {
		return &store.NotFoundError{Table: table, Err: err}
	}
	return err
}
