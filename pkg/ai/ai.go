package ai

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
	"github.com/sashabaranov/go-openai"
)

var ErrEmbeddingDisabled = errors.New("embedding is not configured, set OPENAI_API_KEY to enable it")

// Embedder 文本向量化
type Embedder interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
}

type EmbeddingResult struct {
	Model string
	Usage *openai.Usage
	Data  [][]float32
}

// Vectors 转换为 pgvector 类型，顺序与输入一致
func (r EmbeddingResult) Vectors() []pgvector.Vector {
	res := make([]pgvector.Vector, 0, len(r.Data))
	for _, v := range r.Data {
		res = append(res, pgvector.NewVector(v))
	}
	return res
}
