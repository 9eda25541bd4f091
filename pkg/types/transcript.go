package types

import "encoding/json"

// TranscriptFile 单个视频字幕导出文件
type TranscriptFile struct {
	VideoID        string `json:"video_id"`
	VideoURL       string `json:"video_url"`
	Title          string `json:"title"`
	Channel        string `json:"channel"`
	UploadDate     string `json:"upload_date"`
	Description    string `json:"description"`
	Transcript     string `json:"transcript"`
	ExtractionTime string `json:"extraction_time"`
}

// YoutubeExport 目录批量导入时的文件格式，文件名即视频 ID
type YoutubeExport struct {
	VideoInfo *YoutubeVideoInfo `json:"video_info"`
	Chunks    []YoutubeSegment  `json:"chunks"`
}

type YoutubeVideoInfo struct {
	Title        *string `json:"title"`
	Channel      *string `json:"channel"`
	UploadDate   *string `json:"upload_date"`
	Description  *string `json:"description"`
	Duration     float64 `json:"duration"`
	ViewCount    int64   `json:"view_count"`
	LikeCount    int64   `json:"like_count"`
	CommentCount int64   `json:"comment_count"`

	keys int // 解码时 video_info 中出现的键数量
}

func (v *YoutubeVideoInfo) UnmarshalJSON(raw []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return err
	}

	type plain YoutubeVideoInfo
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*v = YoutubeVideoInfo(p)
	v.keys = len(keys)
	return nil
}

// IsEmpty video_info 缺失、为 null 或为空对象时视为无效数据，
// 只要有任意键(即使值为 0 或 null)就不为空
func (v *YoutubeVideoInfo) IsEmpty() bool {
	if v == nil {
		return true
	}
	if v.keys > 0 {
		return false
	}
	return *v == YoutubeVideoInfo{}
}

// YoutubeSegment 已分好段的字幕片段
type YoutubeSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

const (
	UNKNOWN_VALUE       = "Unknown"
	YOUTUBE_WATCH_URL   = "https://www.youtube.com/watch?v="
	TRANSCRIPT_TITLE_AS = "Transcript: "
)

// StringOr 字段缺失时返回默认值
func StringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
