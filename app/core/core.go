package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/app/store/reststore"
	"github.com/quka-ai/knowledge/app/store/sqlstore"
	"github.com/quka-ai/knowledge/pkg/ai"
	"github.com/quka-ai/knowledge/pkg/ai/openai"
	"github.com/quka-ai/knowledge/pkg/object-storage/s3"
)

type Core struct {
	cfg CoreConfig

	store      store.Store
	embedder   ai.Embedder
	httpEngine *gin.Engine

	metrics *Metrics
}

// SetupLogger 日志输出到 stderr，stdout 留给命令输出与 MCP stdio
func SetupLogger(cfg Log) {
	var writer io.Writer = os.Stderr
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28, //days
			Compress:   true,
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

// SetupCore 根据配置选择存储后端，配置了 DSN 时直连数据库，否则走 PostgREST
func SetupCore(ctx context.Context, cfg CoreConfig) (*Core, error) {
	SetupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := setupStore(ctx, cfg.Supabase)
	if err != nil {
		return nil, err
	}

	var embedder ai.Embedder
	if cfg.Embedding.Enabled {
		embedder = openai.New(cfg.Embedding.Token, cfg.Embedding.Endpoint, cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.Batch)
	}

	if role := cfg.Supabase.KeyRole(); cfg.Supabase.DSN == "" && role != "" && role != "service_role" {
		slog.Warn("supabase key is not a service role key, row level security may hide rows", slog.String("role", role))
	}

	return NewCore(cfg, s, embedder), nil
}

func MustSetupCore(ctx context.Context, cfg CoreConfig) *Core {
	core, err := SetupCore(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return core
}

// NewCore 使用已创建的存储，存储操作会被记录到指标中
func NewCore(cfg CoreConfig, s store.Store, embedder ai.Embedder) *Core {
	m := NewMetrics("knowledge", "core")
	return &Core{
		cfg:        cfg,
		store:      instrument(s, m),
		embedder:   embedder,
		httpEngine: gin.New(),
		metrics:    m,
	}
}

func setupStore(ctx context.Context, cfg SupabaseConfig) (store.Store, error) {
	if cfg.DSN != "" {
		var replicas []sqlstore.ConnectConfig
		if cfg.ReplicaDSN != "" {
			replicas = append(replicas, ConnectConfig{DSN: cfg.ReplicaDSN})
		}
		provider, err := sqlstore.Setup(ctx, cfg.Schema, ConnectConfig{DSN: cfg.DSN}, replicas...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect supabase database, %w", err)
		}
		slog.Debug("store ready", slog.String("backend", provider.Backend()))
		return provider, nil
	}

	provider, err := reststore.New(reststore.Config{
		URL:        cfg.URL,
		ServiceKey: cfg.ServiceKey,
		Schema:     cfg.Schema,
		Timeout:    cfg.TimeoutDuration(),
		RateLimit:  cfg.RateLimit,
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("store ready", slog.String("backend", provider.Backend()), slog.String("url", cfg.URL))
	return provider, nil
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Store() store.Store {
	return s.store
}

// Embedder 未配置向量模型时返回 ai.ErrEmbeddingDisabled
func (s *Core) Embedder() (ai.Embedder, error) {
	if s.embedder == nil {
		return nil, ai.ErrEmbeddingDisabled
	}
	return s.embedder, nil
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

// FileStorage 访问指定 bucket，其余参数取自 object_storage.s3 配置
func (s *Core) FileStorage(ctx context.Context, bucket string) (*s3.S3, error) {
	c := s.cfg.ObjectStorage.S3
	if bucket == "" {
		bucket = c.Bucket
	}
	return s3.NewS3Client(ctx, c.Endpoint, c.Region, bucket, c.AccessKey, c.SecretKey, s3.WithPathStyle(c.UsePathStyle))
}

func (s *Core) Close() error {
	return s.store.Close()
}
