package sqlstore

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type ConnectConfig interface {
	FormatDSN() string
}

type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	if len(s.replicas) == 1 {
		return s.replicas[0]
	}
	return s.replicas[rand.IntN(len(s.replicas))]
}

// 建立数据库连接
func (s *SqlProvider) initConnection(ctx context.Context, conf ConnectConfig) (*sqlx.DB, error) {
	engine, err := sqlx.Open("postgres", conf.FormatDSN())
	if err != nil {
		return nil, err
	}
	engine.SetConnMaxIdleTime(5 * time.Minute)

	if err = engine.PingContext(ctx); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

// SetupProvider 连接主库，replicas 为空时读请求同样走主库
func SetupProvider(ctx context.Context, m ConnectConfig, s ...ConnectConfig) (*SqlProvider, error) {
	provider := &SqlProvider{}

	engine, err := provider.initConnection(ctx, m)
	if err != nil {
		return nil, err
	}
	provider.master = engine

	for _, v := range s {
		slave, err := provider.initConnection(ctx, v)
		if err != nil {
			provider.Close()
			return nil, err
		}
		provider.replicas = append(provider.replicas, slave)
	}

	if len(provider.replicas) == 0 {
		provider.replicas = append(provider.replicas, engine)
	}
	return provider, nil
}

// NewProvider 使用已建立的连接，主要用于测试
func NewProvider(master *sqlx.DB, replicas ...*sqlx.DB) *SqlProvider {
	if len(replicas) == 0 {
		replicas = []*sqlx.DB{master}
	}
	return &SqlProvider{master: master, replicas: replicas}
}

func (s *SqlProvider) Close() error {
	var firstErr error
	for _, r := range s.replicas {
		if r == s.master {
			continue
		}
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.master != nil {
		if err := s.master.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
