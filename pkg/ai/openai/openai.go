package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/quka-ai/knowledge/pkg/ai"
)

const (
	NAME = "openai"

	defaultBatch = 6
)

type Driver struct {
	client     *openai.Client
	model      string
	dimensions int
	batch      int
}

func New(token, proxy, model string, dimensions, batch int) *Driver {
	cfg := openai.DefaultConfig(token)
	if proxy != "" {
		cfg.BaseURL = proxy
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if batch <= 0 {
		batch = defaultBatch
	}

	return &Driver{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
		batch:      batch,
	}
}

func (s *Driver) embedding(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	slog.Debug("Embedding", slog.String("driver", NAME), slog.Int("inputs", len(content)))
	queryReq := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	}

	r := ai.EmbeddingResult{
		Usage: &openai.Usage{},
		Model: s.model,
	}
	for _, group := range lo.Chunk(content, s.batch) {
		queryReq.Input = group
		resp, err := s.client.CreateEmbeddings(ctx, queryReq)
		if err != nil {
			return r, fmt.Errorf("Error creating embedding: %w", err)
		}
		if len(resp.Data) != len(group) {
			return r, fmt.Errorf("embedding count mismatch, want %d got %d", len(group), len(resp.Data))
		}
		for _, v := range resp.Data {
			r.Data = append(r.Data, v.Embedding)
		}

		r.Usage.PromptTokens += resp.Usage.PromptTokens
		r.Usage.TotalTokens += resp.Usage.TotalTokens
		if resp.Model != "" {
			r.Model = string(resp.Model)
		}
	}
	return r, nil
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, content)
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, content)
}

var _ ai.Embedder = (*Driver)(nil)
