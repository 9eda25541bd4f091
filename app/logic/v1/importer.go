package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/types"
	"github.com/quka-ai/knowledge/pkg/utils"
)

const (
	STAGE_SOURCE   = "source"
	STAGE_DOCUMENT = "document"
	STAGE_VIDEO    = "video"
	STAGE_CHUNK    = "chunk"
	STAGE_FILE     = "file"
)

// ImportProgress 导入进度，Current 从 1 开始
type ImportProgress struct {
	Stage   string
	Current int
	Total   int
	Message string
}

type ImporterOption func(l *ImporterLogic)

func WithProgress(f func(ImportProgress)) ImporterOption {
	return func(l *ImporterLogic) {
		l.progress = f
	}
}

type ImporterLogic struct {
	ctx      context.Context
	core     *core.Core
	progress func(ImportProgress)
}

func NewImporterLogic(ctx context.Context, core *core.Core, opts ...ImporterOption) *ImporterLogic {
	l := &ImporterLogic{
		ctx:      ctx,
		core:     core,
		progress: func(ImportProgress) {},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *ImporterLogic) report(stage string, current, total int, format string, args ...any) {
	l.progress(ImportProgress{Stage: stage, Current: current, Total: total, Message: fmt.Sprintf(format, args...)})
}

func (l *ImporterLogic) insertOne(table types.TableName, row any) (string, error) {
	record, err := types.ToRecord(row)
	if err != nil {
		return "", err
	}
	res, err := l.core.Store().Insert(l.ctx, table.Name(), []types.Record{record})
	if err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", fmt.Errorf("no row returned from %s", table)
	}
	return res[0].ID(), nil
}

func (l *ImporterLogic) videoExists(youtubeID string) (bool, error) {
	rows, err := l.core.Store().Select(l.ctx, types.TABLE_YOUTUBE_VIDEOS.Name(), types.SelectOptions{
		Columns: "id",
		Filters: types.Filters{"youtube_id": youtubeID},
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// embedChunks 未配置向量模型时返回 nil，向量化失败只记录日志，片段照常写入
func (l *ImporterLogic) embedChunks(title string, contents []string) []string {
	embedder, err := l.core.Embedder()
	if err != nil || len(contents) == 0 {
		return nil
	}
	res, err := embedder.EmbeddingForDocument(l.ctx, title, contents)
	if err != nil {
		slog.Warn("failed to embed chunks, continue without embeddings", slog.String("title", title), slog.String("error", err.Error()))
		return nil
	}
	return lo.Map(res.Vectors(), func(v pgvector.Vector, _ int) string {
		return v.String()
	})
}

// insertChunks 逐条写入片段，单条失败不影响其余片段
func (l *ImporterLogic) insertChunks(documentID, title string, chunks []utils.ContextChunk, metadata func(i int) types.Metadata) (created int, failed []int) {
	embeddings := l.embedChunks(title, lo.Map(chunks, func(c utils.ContextChunk, _ int) string {
		return c.Content
	}))

	for i, c := range chunks {
		row := types.KnowledgeChunk{
			DocumentID:    documentID,
			Content:       c.Content,
			ChunkNumber:   c.Number,
			TotalChunks:   c.Total,
			ContextPrefix: c.Prefix,
			ContextSuffix: c.Suffix,
			Metadata:      metadata(i),
		}
		if i < len(embeddings) {
			row.Embedding = embeddings[i]
		}
		if _, err := l.insertOne(types.TABLE_KNOWLEDGE_CHUNKS, row); err != nil {
			slog.Error("failed to create chunk", slog.String("document_id", documentID), slog.Int("chunk", c.Number), slog.String("error", err.Error()))
			l.report(STAGE_CHUNK, c.Number, c.Total, "Error creating chunk %d: %v", c.Number, err)
			failed = append(failed, c.Number)
			continue
		}
		created++
		l.report(STAGE_CHUNK, c.Number, c.Total, "Created chunk %d/%d", c.Number, c.Total)
	}
	l.core.Metrics().ImportedChunksAdd("created", created)
	l.core.Metrics().ImportedChunksAdd("failed", len(failed))
	return created, failed
}

type ImportTranscriptResult struct {
	Title         string
	SourceID      string
	DocumentID    string
	VideoCreated  bool
	VideoExisted  bool
	TotalChunks   int
	CreatedChunks int
	FailedChunks  []int
	Warnings      []string
}

func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	return dec.Decode(v)
}

// ImportTranscript 导入单个字幕文件
func (l *ImporterLogic) ImportTranscript(path string) (*ImportTranscriptResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("ImporterLogic.ImportTranscript.ReadFile", "Error reading transcript file", err)
	}
	res, err := l.ImportTranscriptData(raw)
	if err != nil {
		return nil, errors.Trace("ImporterLogic.ImportTranscript", err)
	}
	return res, nil
}

func (l *ImporterLogic) ImportTranscriptData(raw []byte) (*ImportTranscriptResult, error) {
	var t types.TranscriptFile
	if err := decodeJSON(raw, &t); err != nil {
		return nil, errors.New("ImporterLogic.ImportTranscriptData.Decode", "Error reading transcript file", err)
	}
	if strings.TrimSpace(t.Transcript) == "" {
		return nil, errors.New("ImporterLogic.ImportTranscriptData.EmptyTranscript", "transcript is empty", nil)
	}

	result := &ImportTranscriptResult{Title: t.Title}
	baseMetadata := func() types.Metadata {
		return types.Metadata{
			"video_id":        t.VideoID,
			"extraction_time": t.ExtractionTime,
		}
	}

	l.report(STAGE_SOURCE, 1, 1, "Creating source record for video: %s", t.Title)
	sourceID, err := l.insertOne(types.TABLE_KNOWLEDGE_SOURCES, types.KnowledgeSource{
		SourceType:    types.SOURCE_TYPE_YOUTUBE,
		Title:         t.Title,
		URL:           t.VideoURL,
		Author:        t.Channel,
		PublishedDate: t.UploadDate,
		Description:   t.Description,
		Metadata:      baseMetadata(),
	})
	if err != nil {
		return nil, errors.New("ImporterLogic.ImportTranscriptData.InsertSource", "Error creating source record", err)
	}
	result.SourceID = sourceID

	l.report(STAGE_DOCUMENT, 1, 1, "Creating document record...")
	docMetadata := baseMetadata()
	if lang := utils.WhatLang(t.Transcript); lang != "" {
		docMetadata["language"] = lang
	}
	documentTitle := types.TRANSCRIPT_TITLE_AS + t.Title
	documentID, err := l.insertOne(types.TABLE_KNOWLEDGE_DOCUMENTS, types.KnowledgeDocument{
		SourceID:     sourceID,
		Title:        documentTitle,
		DocumentType: types.DOCUMENT_TYPE_TRANSCRIPT,
		Content:      t.Transcript,
		Metadata:     docMetadata,
	})
	if err != nil {
		return nil, errors.New("ImporterLogic.ImportTranscriptData.InsertDocument", "Error creating document record", err)
	}
	result.DocumentID = documentID

	l.report(STAGE_VIDEO, 1, 1, "Creating YouTube video record...")
	if err = l.createTranscriptVideo(t, sourceID, result); err != nil {
		slog.Warn("issue with youtube video record, continuing with chunks", slog.String("video_id", t.VideoID), slog.String("error", err.Error()))
		result.Warnings = append(result.Warnings, fmt.Sprintf("Issue with YouTube video record: %s", errors.Message(err)))
	}

	chunks := utils.WithContext(utils.ChunkText(t.Transcript, l.core.Cfg().Chunk.Size, l.core.Cfg().Chunk.Overlap))
	result.TotalChunks = len(chunks)
	result.CreatedChunks, result.FailedChunks = l.insertChunks(documentID, documentTitle, chunks, func(int) types.Metadata {
		return baseMetadata()
	})
	return result, nil
}

func (l *ImporterLogic) createTranscriptVideo(t types.TranscriptFile, sourceID string, result *ImportTranscriptResult) error {
	exists, err := l.videoExists(t.VideoID)
	if err != nil {
		return errors.Trace("ImporterLogic.createTranscriptVideo.VideoExists", err)
	}
	if exists {
		result.VideoExisted = true
		return nil
	}
	if _, err = l.insertOne(types.TABLE_YOUTUBE_VIDEOS, types.YoutubeVideo{
		SourceID:    sourceID,
		YoutubeID:   t.VideoID,
		Title:       t.Title,
		Channel:     t.Channel,
		PublishedAt: t.UploadDate,
		Transcript:  t.Transcript,
		Metadata: types.Metadata{
			"extraction_time": t.ExtractionTime,
		},
	}); err != nil {
		return err
	}
	result.VideoCreated = true
	return nil
}

const (
	VIDEO_STATUS_IMPORTED = "imported"
	VIDEO_STATUS_SKIPPED  = "skipped"
	VIDEO_STATUS_FAILED   = "failed"
)

type YoutubeImportOptions struct {
	// SkipExisting 跳过 youtube_videos 中已存在的视频
	SkipExisting bool
}

type VideoImportResult struct {
	VideoID       string
	Title         string
	Status        string
	Reason        string
	SourceID      string
	DocumentID    string
	TotalChunks   int
	CreatedChunks int
	FailedChunks  []int
}

type YoutubeImportResult struct {
	Source string
	Videos []VideoImportResult
}

func (r *YoutubeImportResult) Count(status string) int {
	return lo.CountBy(r.Videos, func(v VideoImportResult) bool {
		return v.Status == status
	})
}

// ImportYoutubeDir 批量导入已分段的视频字幕，单个文件失败时记录并继续
func (l *ImporterLogic) ImportYoutubeDir(source TranscriptSource, opts YoutubeImportOptions) (*YoutubeImportResult, error) {
	files, err := source.List(l.ctx)
	if err != nil {
		return nil, errors.New("ImporterLogic.ImportYoutubeDir.List", "failed to list transcript files", err)
	}
	if len(files) == 0 {
		return nil, errors.New("ImporterLogic.ImportYoutubeDir.Empty", fmt.Sprintf("No transcript files found in %s", source), nil)
	}

	result := &YoutubeImportResult{Source: source.String()}
	for i, name := range files {
		if err = l.ctx.Err(); err != nil {
			return result, errors.New("ImporterLogic.ImportYoutubeDir.Canceled", "import canceled", err)
		}

		videoID := VideoIDFromName(name)
		l.report(STAGE_FILE, i+1, len(files), "Processing video %s...", videoID)

		item := l.importYoutubeFile(source, name, videoID, opts)
		if item.Status == VIDEO_STATUS_FAILED {
			slog.Error("failed to import video", slog.String("video_id", videoID), slog.String("reason", item.Reason))
		}
		result.Videos = append(result.Videos, item)
	}
	return result, nil
}

func (l *ImporterLogic) importYoutubeFile(source TranscriptSource, name, videoID string, opts YoutubeImportOptions) VideoImportResult {
	item := VideoImportResult{VideoID: videoID, Status: VIDEO_STATUS_FAILED}

	if opts.SkipExisting {
		exists, err := l.videoExists(videoID)
		if err != nil {
			item.Reason = fmt.Sprintf("Error checking existing video: %s", errors.Message(err))
			return item
		}
		if exists {
			item.Status = VIDEO_STATUS_SKIPPED
			item.Reason = "already imported"
			return item
		}
	}

	raw, err := source.Read(l.ctx, name)
	if err != nil {
		item.Reason = fmt.Sprintf("Error reading transcript file %s: %v", name, err)
		return item
	}
	var data types.YoutubeExport
	if err = decodeJSON(raw, &data); err != nil {
		item.Reason = fmt.Sprintf("Error reading transcript file %s: %v", name, err)
		return item
	}
	if data.VideoInfo.IsEmpty() || len(data.Chunks) == 0 {
		item.Status = VIDEO_STATUS_SKIPPED
		item.Reason = fmt.Sprintf("Invalid transcript data in %s", name)
		return item
	}

	info := data.VideoInfo
	item.Title = types.StringOr(info.Title, types.UNKNOWN_VALUE)
	channel := types.StringOr(info.Channel, types.UNKNOWN_VALUE)
	uploadDate := types.StringOr(info.UploadDate, "")

	l.report(STAGE_SOURCE, 1, 1, "Creating source record for '%s'...", item.Title)
	item.SourceID, err = l.insertOne(types.TABLE_KNOWLEDGE_SOURCES, types.KnowledgeSource{
		SourceType:    types.SOURCE_TYPE_YOUTUBE,
		Title:         item.Title,
		URL:           types.YOUTUBE_WATCH_URL + videoID,
		Author:        channel,
		PublishedDate: uploadDate,
		Description:   types.StringOr(info.Description, ""),
		Metadata: types.Metadata{
			"video_id":   videoID,
			"duration":   info.Duration,
			"view_count": info.ViewCount,
		},
	})
	if err != nil {
		item.Reason = fmt.Sprintf("Error creating source record: %v", err)
		return item
	}

	content := strings.Join(lo.Map(data.Chunks, func(c types.YoutubeSegment, _ int) string {
		return c.Text
	}), "")
	documentTitle := types.TRANSCRIPT_TITLE_AS + item.Title
	docMetadata := types.Metadata{
		"video_id":    videoID,
		"duration":    info.Duration,
		"chunk_count": len(data.Chunks),
	}
	if lang := utils.WhatLang(content); lang != "" {
		docMetadata["language"] = lang
	}

	l.report(STAGE_DOCUMENT, 1, 1, "Creating document record...")
	item.DocumentID, err = l.insertOne(types.TABLE_KNOWLEDGE_DOCUMENTS, types.KnowledgeDocument{
		SourceID:     item.SourceID,
		Title:        documentTitle,
		DocumentType: types.DOCUMENT_TYPE_TRANSCRIPT,
		Content:      content,
		Metadata:     docMetadata,
	})
	if err != nil {
		item.Reason = fmt.Sprintf("Error creating document record: %v", err)
		return item
	}

	chunks := utils.WithContext(lo.Map(data.Chunks, func(c types.YoutubeSegment, _ int) string {
		return c.Text
	}))
	item.TotalChunks = len(chunks)
	item.CreatedChunks, item.FailedChunks = l.insertChunks(item.DocumentID, documentTitle, chunks, func(i int) types.Metadata {
		seg := data.Chunks[i]
		return types.Metadata{
			"start_time": seg.Start,
			"end_time":   seg.End,
			"duration":   seg.End - seg.Start,
		}
	})

	l.report(STAGE_VIDEO, 1, 1, "Creating YouTube-specific record...")
	if _, err = l.insertOne(types.TABLE_YOUTUBE_VIDEOS, types.YoutubeVideo{
		SourceID:    item.SourceID,
		YoutubeID:   videoID,
		Title:       item.Title,
		Channel:     channel,
		PublishedAt: uploadDate,
		Duration:    int64(info.Duration),
		Transcript:  content,
		Metadata: types.Metadata{
			"view_count":    info.ViewCount,
			"like_count":    info.LikeCount,
			"comment_count": info.CommentCount,
		},
	}); err != nil {
		item.Reason = fmt.Sprintf("Error creating YouTube record: %v", err)
		return item
	}

	item.Status = VIDEO_STATUS_IMPORTED
	return item
}
