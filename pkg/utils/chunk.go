package utils

import "strings"

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

// ChunkText 按空白切词后以固定窗口滑动切分文本，相邻窗口重叠 overlap 个词
// 词数不超过 size 时原样返回整段文本
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	words := strings.Fields(text)
	if len(words) <= size {
		return []string{text}
	}

	step := size - overlap
	if step <= 0 {
		step = size
	}

	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ContextChunk 带上下文的片段，Prefix/Suffix 分别为前后相邻片段的内容
type ContextChunk struct {
	Number  int // 从 1 开始
	Total   int
	Content string
	Prefix  string
	Suffix  string
}

// WithContext 为每个片段补充前后相邻片段作为上下文
func WithContext(chunks []string) []ContextChunk {
	total := len(chunks)
	res := make([]ContextChunk, total)
	for i, content := range chunks {
		item := ContextChunk{
			Number:  i + 1,
			Total:   total,
			Content: content,
		}
		if i > 0 {
			item.Prefix = chunks[i-1]
		}
		if i < total-1 {
			item.Suffix = chunks[i+1]
		}
		res[i] = item
	}
	return res
}
