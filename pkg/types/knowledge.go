package types

const (
	SOURCE_TYPE_YOUTUBE = "youtube"

	DOCUMENT_TYPE_TRANSCRIPT = "transcript"
)

// KnowledgeSource knowledge_sources 表的结构体
type KnowledgeSource struct {
	ID            string   `json:"id,omitempty" db:"id"`
	SourceType    string   `json:"source_type" db:"source_type"`
	Title         string   `json:"title" db:"title"`
	URL           string   `json:"url" db:"url"`
	Author        string   `json:"author" db:"author"`
	PublishedDate string   `json:"published_date,omitempty" db:"published_date"`
	Description   string   `json:"description" db:"description"`
	Metadata      Metadata `json:"metadata" db:"metadata"`
}

// KnowledgeDocument knowledge_documents 表的结构体
type KnowledgeDocument struct {
	ID           string   `json:"id,omitempty" db:"id"`
	SourceID     string   `json:"source_id" db:"source_id"`
	Title        string   `json:"title" db:"title"`
	DocumentType string   `json:"document_type" db:"document_type"`
	Content      string   `json:"content" db:"content"`
	Metadata     Metadata `json:"metadata" db:"metadata"`
}

// KnowledgeChunk knowledge_chunks 表的结构体
type KnowledgeChunk struct {
	ID            string   `json:"id,omitempty" db:"id"`
	DocumentID    string   `json:"document_id" db:"document_id"`
	Content       string   `json:"content" db:"content"`
	ChunkNumber   int      `json:"chunk_number" db:"chunk_number"`
	TotalChunks   int      `json:"total_chunks" db:"total_chunks"`
	ContextPrefix string   `json:"context_prefix" db:"context_prefix"`
	ContextSuffix string   `json:"context_suffix" db:"context_suffix"`
	Embedding     string   `json:"embedding,omitempty" db:"embedding"` // pgvector 文本格式 [1,2,3]
	Metadata      Metadata `json:"metadata" db:"metadata"`
}

// YoutubeVideo youtube_videos 表的结构体
type YoutubeVideo struct {
	ID          string   `json:"id,omitempty" db:"id"`
	SourceID    string   `json:"source_id" db:"source_id"`
	YoutubeID   string   `json:"youtube_id" db:"youtube_id"`
	Title       string   `json:"title" db:"title"`
	Channel     string   `json:"channel" db:"channel"`
	PublishedAt string   `json:"published_at,omitempty" db:"published_at"`
	Duration    int64    `json:"duration" db:"duration"`
	Transcript  string   `json:"transcript" db:"transcript"`
	Metadata    Metadata `json:"metadata" db:"metadata"`
}

// ChunkSearchResult 关键字检索结果，附带所属文档标题
type ChunkSearchResult struct {
	ID            string  `json:"id" db:"id"`
	DocumentID    string  `json:"document_id" db:"document_id"`
	DocumentTitle string  `json:"document_title" db:"document_title"`
	Content       string  `json:"content" db:"content"`
	ChunkNumber   int     `json:"chunk_number" db:"chunk_number"`
	TotalChunks   int     `json:"total_chunks" db:"total_chunks"`
	Similarity    float64 `json:"similarity,omitempty" db:"similarity"`
}

// DocumentWithSource 文档列表，附带来源的标题与类型
type DocumentWithSource struct {
	ID           string `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	DocumentType string `json:"document_type" db:"document_type"`
	CreatedAt    string `json:"created_at" db:"created_at"`
	SourceTitle  string `json:"source_title" db:"source_title"`
	SourceType   string `json:"source_type" db:"source_type"`
}
