package v1_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/app/store/memstore"
	"github.com/quka-ai/knowledge/pkg/ai"
)

type fakeEmbedder struct {
	calls int
	err   error
}

// 向量的第一维为文本长度，方便断言
func (f *fakeEmbedder) embed(content []string) (ai.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return ai.EmbeddingResult{}, f.err
	}
	res := ai.EmbeddingResult{Model: "fake", Usage: &openai.Usage{}}
	for _, c := range content {
		res.Data = append(res.Data, []float32{float32(len(c)), 1})
	}
	return res, nil
}

func (f *fakeEmbedder) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return f.embed(content)
}

func (f *fakeEmbedder) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return f.embed(content)
}

var errEmbedding = errors.New("embedding service unavailable")

func newTestCore(embedder ai.Embedder) (*core.Core, *memstore.Store) {
	cfg := core.CoreConfig{
		Supabase: core.SupabaseConfig{URL: "https://abcdefgh.supabase.co", ServiceKey: "key"},
		Chunk:    core.ChunkConfig{Size: 5, Overlap: 1},
	}
	cfg.SetDefaults()

	s := memstore.New("users")
	return core.NewCore(cfg, s, embedder), s
}

func words(n int) string {
	var res string
	for i := 1; i <= n; i++ {
		if i > 1 {
			res += " "
		}
		res += fmt.Sprintf("w%d", i)
	}
	return res
}
