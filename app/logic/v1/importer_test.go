package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
	kerrors "github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/types"
)

func writeJSON(t *testing.T, path string, v any) {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
}

func transcriptFile(t *testing.T, transcript string) string {
	path := filepath.Join(t.TempDir(), "transcript.json")
	writeJSON(t, path, types.TranscriptFile{
		VideoID:        "vid123",
		VideoURL:       "https://www.youtube.com/watch?v=vid123",
		Title:          "Intro to Supabase",
		Channel:        "Supabase",
		UploadDate:     "20240115",
		Description:    "desc",
		Transcript:     transcript,
		ExtractionTime: "2024-02-01T10:00:00",
	})
	return path
}

func TestImportTranscript(t *testing.T) {
	c, s := newTestCore(nil)

	var progress []v1.ImportProgress
	logic := v1.NewImporterLogic(context.Background(), c, v1.WithProgress(func(p v1.ImportProgress) {
		progress = append(progress, p)
	}))

	res, err := logic.ImportTranscript(transcriptFile(t, words(12)))
	require.NoError(t, err)

	// 12 个词，窗口 5，步长 4：w1-w5, w5-w9, w9-w12
	assert.Equal(t, 3, res.TotalChunks)
	assert.Equal(t, 3, res.CreatedChunks)
	assert.Empty(t, res.FailedChunks)
	assert.True(t, res.VideoCreated)

	sources := s.Rows("knowledge_sources")
	require.Len(t, sources, 1)
	assert.Equal(t, res.SourceID, sources[0].ID())
	assert.Equal(t, "youtube", sources[0].String("source_type"))
	assert.Equal(t, "Supabase", sources[0].String("author"))
	assert.Equal(t, "20240115", sources[0].String("published_date"))

	docs := s.Rows("knowledge_documents")
	require.Len(t, docs, 1)
	assert.Equal(t, "Transcript: Intro to Supabase", docs[0].String("title"))
	assert.Equal(t, "transcript", docs[0].String("document_type"))
	assert.Equal(t, res.SourceID, docs[0].String("source_id"))

	videos := s.Rows("youtube_videos")
	require.Len(t, videos, 1)
	assert.Equal(t, "vid123", videos[0].String("youtube_id"))
	assert.Equal(t, "0", videos[0].String("duration"))

	chunks := s.Rows("knowledge_chunks")
	require.Len(t, chunks, 3)
	assert.Equal(t, "w1 w2 w3 w4 w5", chunks[0].String("content"))
	assert.Equal(t, "", chunks[0].String("context_prefix"))
	assert.Equal(t, chunks[1].String("content"), chunks[0].String("context_suffix"))
	assert.Equal(t, chunks[1].String("content"), chunks[2].String("context_prefix"))
	assert.Equal(t, "", chunks[2].String("context_suffix"))
	for i, ch := range chunks {
		assert.Equal(t, res.DocumentID, ch.String("document_id"))
		assert.Equal(t, "3", ch.String("total_chunks"))
		assert.Equal(t, json.Number(string(rune('1'+i))), ch["chunk_number"])
		assert.Equal(t, "", ch.String("embedding"))
	}

	assert.NotEmpty(t, progress)
	assert.Equal(t, v1.STAGE_SOURCE, progress[0].Stage)
}

func TestImportTranscriptShortTextSingleChunk(t *testing.T) {
	c, s := newTestCore(nil)
	logic := v1.NewImporterLogic(context.Background(), c)

	res, err := logic.ImportTranscript(transcriptFile(t, "  hello   world  "))
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalChunks)

	chunks := s.Rows("knowledge_chunks")
	require.Len(t, chunks, 1)
	assert.Equal(t, "  hello   world  ", chunks[0].String("content"))
}

func TestImportTranscriptExistingVideo(t *testing.T) {
	c, s := newTestCore(nil)
	_, err := s.Insert(context.Background(), "youtube_videos", []types.Record{{"youtube_id": "vid123"}})
	require.NoError(t, err)

	res, err := v1.NewImporterLogic(context.Background(), c).ImportTranscript(transcriptFile(t, words(3)))
	require.NoError(t, err)
	assert.True(t, res.VideoExisted)
	assert.False(t, res.VideoCreated)
	assert.Len(t, s.Rows("youtube_videos"), 1)
}

func TestImportTranscriptVideoFailureContinues(t *testing.T) {
	c, s := newTestCore(nil)
	s.SetHook(func(op, table string, record types.Record) error {
		if table == "youtube_videos" {
			return errors.New("permission denied")
		}
		return nil
	})

	res, err := v1.NewImporterLogic(context.Background(), c).ImportTranscript(transcriptFile(t, words(3)))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "permission denied")
	assert.Equal(t, 1, res.CreatedChunks)
}

func TestImportTranscriptChunkFailureSkipped(t *testing.T) {
	c, s := newTestCore(nil)
	s.SetHook(func(op, table string, record types.Record) error {
		if table == "knowledge_chunks" && record.String("chunk_number") == "2" {
			return errors.New("value too long")
		}
		return nil
	})

	res, err := v1.NewImporterLogic(context.Background(), c).ImportTranscript(transcriptFile(t, words(12)))
	require.NoError(t, err)
	assert.Equal(t, 2, res.CreatedChunks)
	assert.Equal(t, []int{2}, res.FailedChunks)
	assert.Len(t, s.Rows("knowledge_chunks"), 2)
}

func TestImportTranscriptSourceFailureAborts(t *testing.T) {
	c, s := newTestCore(nil)
	s.SetHook(func(op, table string, record types.Record) error {
		if table == "knowledge_sources" {
			return errors.New("boom")
		}
		return nil
	})

	_, err := v1.NewImporterLogic(context.Background(), c).ImportTranscript(transcriptFile(t, words(3)))
	require.Error(t, err)
	assert.Empty(t, s.Rows("knowledge_documents"))
	assert.Empty(t, s.Rows("knowledge_chunks"))
}

func TestImportTranscriptErrors(t *testing.T) {
	c, _ := newTestCore(nil)
	logic := v1.NewImporterLogic(context.Background(), c)

	_, err := logic.ImportTranscript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = logic.ImportTranscript(transcriptFile(t, "   "))
	require.Error(t, err)

	var ce *kerrors.CustomizedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"ImporterLogic.ImportTranscriptData.EmptyTranscript", "ImporterLogic.ImportTranscript"}, ce.GetTrace())
	assert.Equal(t, "transcript is empty", kerrors.Message(err))
}

func TestImportTranscriptWithEmbeddings(t *testing.T) {
	embedder := &fakeEmbedder{}
	c, s := newTestCore(embedder)

	_, err := v1.NewImporterLogic(context.Background(), c).ImportTranscript(transcriptFile(t, words(12)))
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.calls)

	chunks := s.Rows("knowledge_chunks")
	require.Len(t, chunks, 3)
	assert.Equal(t, "[14,1]", chunks[0].String("embedding"))
}

func TestImportTranscriptEmbeddingFailureKeepsChunks(t *testing.T) {
	c, s := newTestCore(&fakeEmbedder{err: errEmbedding})

	res, err := v1.NewImporterLogic(context.Background(), c).ImportTranscript(transcriptFile(t, words(12)))
	require.NoError(t, err)
	assert.Equal(t, 3, res.CreatedChunks)
	assert.Equal(t, "", s.Rows("knowledge_chunks")[0].String("embedding"))
}

func strPtr(s string) *string {
	return &s
}

func youtubeDir(t *testing.T) string {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "abc.json"), types.YoutubeExport{
		VideoInfo: &types.YoutubeVideoInfo{
			Title:        strPtr("Vectors"),
			Channel:      strPtr("DB Talks"),
			UploadDate:   strPtr("20240301"),
			Duration:     125,
			ViewCount:    10,
			LikeCount:    2,
			CommentCount: 1,
		},
		Chunks: []types.YoutubeSegment{
			{Text: "Hello ", Start: 0, End: 2.5},
			{Text: "vector ", Start: 2.5, End: 4},
			{Text: "world", Start: 4, End: 6},
		},
	})
	writeJSON(t, filepath.Join(dir, "nochunks.json"), map[string]any{
		"video_info": map[string]any{"title": "Empty"},
		"chunks":     []any{},
	})
	writeJSON(t, filepath.Join(dir, "notitle.json"), map[string]any{
		"video_info": map[string]any{"duration": 10},
		"chunks":     []any{map[string]any{"text": "only", "start": 0, "end": 1}},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	return dir
}

func TestImportYoutubeDir(t *testing.T) {
	c, s := newTestCore(nil)
	logic := v1.NewImporterLogic(context.Background(), c)

	res, err := logic.ImportYoutubeDir(v1.DirSource{Dir: youtubeDir(t)}, v1.YoutubeImportOptions{})
	require.NoError(t, err)
	require.Len(t, res.Videos, 4)
	assert.Equal(t, 2, res.Count(v1.VIDEO_STATUS_IMPORTED))
	assert.Equal(t, 1, res.Count(v1.VIDEO_STATUS_SKIPPED))
	assert.Equal(t, 1, res.Count(v1.VIDEO_STATUS_FAILED))

	videos := s.Rows("youtube_videos")
	require.Len(t, videos, 2)

	var abc types.Record
	for _, v := range videos {
		if v.String("youtube_id") == "abc" {
			abc = v
		}
	}
	require.NotNil(t, abc)
	assert.Equal(t, "Hello vector world", abc.String("transcript"))
	assert.Equal(t, "125", abc.String("duration"))
	assert.Equal(t, "DB Talks", abc.String("channel"))

	sources, err := s.Select(context.Background(), "knowledge_sources", types.SelectOptions{Filters: types.Filters{"url": "https://www.youtube.com/watch?v=notitle"}})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Unknown", sources[0].String("title"))
	assert.Equal(t, "Unknown", sources[0].String("author"))
	_, hasDate := sources[0]["published_date"]
	assert.False(t, hasDate)

	chunks, err := s.Select(context.Background(), "knowledge_chunks", types.SelectOptions{
		ILike:     map[string]string{"content": "vector%"},
		OrderBy:   "chunk_number",
		Ascending: true,
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello ", chunks[0].String("context_prefix"))
	assert.Equal(t, "world", chunks[0].String("context_suffix"))
	meta, ok := chunks[0]["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("1.5"), meta["duration"])
}

func TestImportYoutubeDirSparseVideoInfo(t *testing.T) {
	dir := t.TempDir()
	chunks := []any{map[string]any{"text": "only", "start": 0, "end": 1}}
	writeJSON(t, filepath.Join(dir, "zero.json"), map[string]any{"video_info": map[string]any{"duration": 0}, "chunks": chunks})
	writeJSON(t, filepath.Join(dir, "nulltitle.json"), map[string]any{"video_info": map[string]any{"title": nil}, "chunks": chunks})
	writeJSON(t, filepath.Join(dir, "extra.json"), map[string]any{"video_info": map[string]any{"uploader_id": "u1"}, "chunks": chunks})
	writeJSON(t, filepath.Join(dir, "blank.json"), map[string]any{"video_info": map[string]any{}, "chunks": chunks})
	writeJSON(t, filepath.Join(dir, "missing.json"), map[string]any{"video_info": nil, "chunks": chunks})

	c, s := newTestCore(nil)
	res, err := v1.NewImporterLogic(context.Background(), c).ImportYoutubeDir(v1.DirSource{Dir: dir}, v1.YoutubeImportOptions{})
	require.NoError(t, err)
	require.Len(t, res.Videos, 5)
	assert.Equal(t, 3, res.Count(v1.VIDEO_STATUS_IMPORTED))
	assert.Equal(t, 2, res.Count(v1.VIDEO_STATUS_SKIPPED))

	for _, v := range res.Videos {
		switch v.VideoID {
		case "blank", "missing":
			assert.Equal(t, v1.VIDEO_STATUS_SKIPPED, v.Status, v.VideoID)
			assert.Contains(t, v.Reason, "Invalid transcript data")
		default:
			assert.Equal(t, v1.VIDEO_STATUS_IMPORTED, v.Status, v.VideoID)
			assert.Equal(t, "Unknown", v.Title)
		}
	}
	assert.Len(t, s.Rows("youtube_videos"), 3)
}

func TestImportYoutubeDirSkipExisting(t *testing.T) {
	c, s := newTestCore(nil)
	_, err := s.Insert(context.Background(), "youtube_videos", []types.Record{{"youtube_id": "abc"}})
	require.NoError(t, err)

	res, err := v1.NewImporterLogic(context.Background(), c).ImportYoutubeDir(v1.DirSource{Dir: youtubeDir(t)}, v1.YoutubeImportOptions{SkipExisting: true})
	require.NoError(t, err)

	for _, v := range res.Videos {
		if v.VideoID == "abc" {
			assert.Equal(t, v1.VIDEO_STATUS_SKIPPED, v.Status)
		}
	}
	assert.Len(t, s.Rows("youtube_videos"), 2)
}

func TestImportYoutubeDirEmpty(t *testing.T) {
	c, _ := newTestCore(nil)

	_, err := v1.NewImporterLogic(context.Background(), c).ImportYoutubeDir(v1.DirSource{Dir: t.TempDir()}, v1.YoutubeImportOptions{})
	assert.Error(t, err)
}

func TestVideoIDFromName(t *testing.T) {
	assert.Equal(t, "abc", v1.VideoIDFromName("/tmp/x/abc.json"))
	assert.Equal(t, "abc", v1.VideoIDFromName("youtube/abc.json"))
}
