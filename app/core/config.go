package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgrijalva/jwt-go"
	"github.com/joho/godotenv"

	"github.com/quka-ai/knowledge/pkg/utils"
)

// LoadConfig 读取配置，path 为空时仅使用环境变量
// 工作目录下的 .env 会先被加载，已存在的环境变量优先
func LoadConfig(path string) (CoreConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return CoreConfig{}, fmt.Errorf("failed to load .env, %w", err)
	}

	conf := CoreConfig{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return CoreConfig{}, err
		}
		if err = toml.Unmarshal(raw, &conf); err != nil {
			return CoreConfig{}, fmt.Errorf("failed to parse config file %s, %w", path, err)
		}
	}
	conf.FromENV()
	conf.SetDefaults()
	return conf, nil
}

func MustLoadConfig(path string) CoreConfig {
	conf, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return conf
}

type CoreConfig struct {
	Log           Log                 `toml:"log"`
	Supabase      SupabaseConfig      `toml:"supabase"`
	Chunk         ChunkConfig         `toml:"chunk"`
	Embedding     EmbeddingConfig     `toml:"embedding"`
	MCP           MCPConfig           `toml:"mcp"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`
}

// FromENV 环境变量只填充配置文件中未设置的字段
func (c *CoreConfig) FromENV() {
	c.Log.FromENV()
	c.Supabase.FromENV()
	c.Chunk.FromENV()
	c.Embedding.FromENV()
	c.MCP.FromENV()
	c.ObjectStorage.FromENV()
}

func (c *CoreConfig) SetDefaults() {
	if c.Supabase.Schema == "" {
		c.Supabase.Schema = "public"
	}
	if c.Supabase.Timeout <= 0 {
		c.Supabase.Timeout = 30
	}
	if c.Chunk.Size <= 0 {
		c.Chunk.Size = utils.DefaultChunkSize
	}
	// 未设置重叠时取默认值，且不超过块大小的五分之一
	if c.Chunk.Overlap <= 0 {
		c.Chunk.Overlap = min(utils.DefaultChunkOverlap, c.Chunk.Size/5)
	}
	if c.Embedding.Token != "" {
		c.Embedding.Enabled = true
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Embedding.Batch <= 0 {
		c.Embedding.Batch = 16
	}
	if c.MCP.Addr == "" {
		c.MCP.Addr = ":8080"
	}
}

var ErrMissingCredentials = errors.New("missing Supabase credentials in environment variables. Please set SUPABASE_URL and SUPABASE_SERVICE_KEY")

// Validate 未配置直连 DSN 时必须提供 REST 凭证
func (c CoreConfig) Validate() error {
	if c.Supabase.DSN == "" && (c.Supabase.URL == "" || c.Supabase.ServiceKey == "") {
		return ErrMissingCredentials
	}
	if c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.Chunk.Overlap, c.Chunk.Size)
	}
	return nil
}

func envString(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func envInt(dst *int, key string) {
	if *dst != 0 {
		return
	}
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func envFloat(dst *float64, key string) {
	if *dst != 0 {
		return
	}
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if *dst {
		return
	}
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	envString(&l.Level, "KNOWLEDGE_LOG_LEVEL")
	envString(&l.Path, "KNOWLEDGE_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type SupabaseConfig struct {
	URL        string  `toml:"url"`
	ServiceKey string  `toml:"service_key"`
	DSN        string  `toml:"dsn"`         // 直连数据库，设置后优先于 REST
	ReplicaDSN string  `toml:"replica_dsn"` // 只读副本
	Schema     string  `toml:"schema"`
	Timeout    int     `toml:"timeout"`    // 秒
	RateLimit  float64 `toml:"rate_limit"` // 每秒请求数
}

func (s *SupabaseConfig) FromENV() {
	envString(&s.URL, "SUPABASE_URL")
	envString(&s.ServiceKey, "SUPABASE_SERVICE_KEY")
	envString(&s.DSN, "SUPABASE_DB_DSN")
	envString(&s.ReplicaDSN, "SUPABASE_DB_REPLICA_DSN")
	envString(&s.Schema, "SUPABASE_SCHEMA")
	envInt(&s.Timeout, "SUPABASE_TIMEOUT")
	envFloat(&s.RateLimit, "SUPABASE_RATE_LIMIT")
}

func (s SupabaseConfig) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s SupabaseConfig) keyClaims() jwt.MapClaims {
	claims := jwt.MapClaims{}
	if s.ServiceKey == "" {
		return claims
	}
	// 只读取声明，不校验签名
	if _, _, err := new(jwt.Parser).ParseUnverified(s.ServiceKey, claims); err != nil {
		return jwt.MapClaims{}
	}
	return claims
}

// ProjectRef 项目标识，取自 URL 的第一段域名，自定义域名时从 service key 的 ref 声明中读取
func (s SupabaseConfig) ProjectRef() string {
	if u, err := url.Parse(s.URL); err == nil && strings.HasSuffix(u.Hostname(), ".supabase.co") {
		return strings.SplitN(u.Hostname(), ".", 2)[0]
	}
	if ref, ok := s.keyClaims()["ref"].(string); ok {
		return ref
	}
	if u, err := url.Parse(s.URL); err == nil && u.Hostname() != "" {
		return strings.SplitN(u.Hostname(), ".", 2)[0]
	}
	return ""
}

// KeyRole service key 的 role 声明，正常情况下为 service_role
func (s SupabaseConfig) KeyRole() string {
	role, _ := s.keyClaims()["role"].(string)
	return role
}

const dashboardURLFormat = "https://app.supabase.com/project/%s/sql/new"

func (s SupabaseConfig) DashboardURL() string {
	ref := s.ProjectRef()
	if ref == "" {
		return "https://app.supabase.com"
	}
	return fmt.Sprintf(dashboardURLFormat, ref)
}

type ChunkConfig struct {
	Size    int `toml:"size"`    // 每块的词数
	Overlap int `toml:"overlap"` // 相邻块重叠的词数
}

func (c *ChunkConfig) FromENV() {
	envInt(&c.Size, "KNOWLEDGE_CHUNK_SIZE")
	envInt(&c.Overlap, "KNOWLEDGE_CHUNK_OVERLAP")
}

type EmbeddingConfig struct {
	Enabled    bool   `toml:"enabled"`
	Token      string `toml:"token"`
	Endpoint   string `toml:"endpoint"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	Batch      int    `toml:"batch"`
}

func (e *EmbeddingConfig) FromENV() {
	envString(&e.Token, "OPENAI_API_KEY")
	envString(&e.Endpoint, "OPENAI_BASE_URL")
	envString(&e.Model, "KNOWLEDGE_EMBEDDING_MODEL")
	envInt(&e.Dimensions, "KNOWLEDGE_EMBEDDING_DIMENSIONS")
}

type MCPConfig struct {
	Addr  string `toml:"addr"`
	Token string `toml:"token"`
}

func (m *MCPConfig) FromENV() {
	envString(&m.Addr, "KNOWLEDGE_MCP_ADDR")
	envString(&m.Token, "KNOWLEDGE_MCP_TOKEN")
}

type ObjectStorageDriver struct {
	S3 S3Config `toml:"s3"`
}

func (o *ObjectStorageDriver) FromENV() {
	o.S3.FromENV()
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

func (s *S3Config) FromENV() {
	envString(&s.Bucket, "KNOWLEDGE_S3_BUCKET")
	envString(&s.Region, "KNOWLEDGE_S3_REGION")
	envString(&s.Endpoint, "KNOWLEDGE_S3_ENDPOINT")
	envString(&s.AccessKey, "KNOWLEDGE_S3_ACCESS_KEY")
	envString(&s.SecretKey, "KNOWLEDGE_S3_SECRET_KEY")
	envBool(&s.UsePathStyle, "KNOWLEDGE_S3_USE_PATH_STYLE")
}

type ConnectConfig struct {
	DSN string
}

func (c ConnectConfig) FormatDSN() string {
	return c.DSN
}
