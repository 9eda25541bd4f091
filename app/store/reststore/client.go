package reststore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"golang.org/x/time/rate"

	"github.com/quka-ai/knowledge/app/store"
)

const BackendName = "rest"

type Config struct {
	URL        string
	ServiceKey string
	Schema     string
	Timeout    time.Duration
	RateLimit  float64 // 每秒请求数，0 表示不限制
}

type Option func(p *Provider)

// WithTransport 替换底层的 http.RoundTripper
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Provider) {
		p.transport = rt
	}
}

// Provider 通过 PostgREST (/rest/v1) 访问 Supabase
type Provider struct {
	cfg       Config
	endpoint  string
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func New(cfg Config, opts ...Option) (*Provider, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supabase url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	p := &Provider{
		cfg:       cfg,
		endpoint:  strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		transport: http.DefaultTransport.(*http.Transport).Clone(),
		limiter:   rate.NewLimiter(limit, burst),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *Provider) Backend() string {
	return BackendName
}

func (p *Provider) Close() error {
	if t, ok := p.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// session 为单次操作创建 postgrest 客户端，请求绑定 ctx 并经过限流
// postgrest.Client 的 ClientError 是共享状态，因此客户端不在操作之间复用
func (p *Provider) session(ctx context.Context, table string) (*postgrest.Client, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)

	client := postgrest.NewClient(p.endpoint, p.cfg.Schema, nil)
	client.SetApiKey(p.cfg.ServiceKey).SetAuthToken(p.cfg.ServiceKey)
	client.Transport.Parent = &boundTransport{
		ctx:     ctx,
		table:   table,
		limiter: p.limiter,
		next:    p.transport,
	}
	return client, cancel
}

// boundTransport 为 postgrest-go 的请求补上 ctx 与限流，
// 并把 4xx/5xx 响应转换为 APIError
type boundTransport struct {
	ctx     context.Context
	table   string
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *boundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(t.ctx); err != nil {
		return nil, err
	}

	resp, err := t.next.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return nil, wrapError(t.table, newAPIError(resp.StatusCode, raw))
}

// unwrapError 去掉 http.Client 附加的 *url.Error，直接返回 APIError 或 NotFoundError
func unwrapError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		var apiErr *APIError
		if errors.As(ue.Err, &apiErr) {
			return ue.Err
		}
	}
	return err
}

var _ store.Store = (*Provider)(nil)
