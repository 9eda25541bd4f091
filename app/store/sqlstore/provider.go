package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/register"
	"github.com/quka-ai/knowledge/pkg/sqlstore"
)

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

const BackendName = "postgres"

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
	schema string
}

type Stores struct {
	store.TableStore
	store.KnowledgeStore
}

type RegisterKey struct{}

type ConnectConfig = sqlstore.ConnectConfig

// Setup 连接数据库并初始化所有 store
func Setup(ctx context.Context, schema string, m ConnectConfig, s ...ConnectConfig) (*Provider, error) {
	sqlProvider, err := sqlstore.SetupProvider(ctx, m, s...)
	if err != nil {
		return nil, err
	}
	return NewWithSqlProvider(sqlProvider, schema), nil
}

func NewWithSqlProvider(sqlProvider *sqlstore.SqlProvider, schema string) *Provider {
	provider := &Provider{
		SqlProvider: sqlProvider,
		stores:      &Stores{},
		schema:      schema,
	}

	register.Apply(RegisterKey{}, provider)
	return provider
}

func (p *Provider) Backend() string {
	return BackendName
}

var _ store.Store = (*Provider)(nil)
