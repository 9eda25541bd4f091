package v1

import (
	"context"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/types"
)

type VideoLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewVideoLogic(ctx context.Context, core *core.Core) *VideoLogic {
	return &VideoLogic{
		ctx:  ctx,
		core: core,
	}
}

// ListVideos 按发布时间列出全部视频
func (l *VideoLogic) ListVideos() ([]types.YoutubeVideo, error) {
	rows, err := l.core.Store().Select(l.ctx, types.TABLE_YOUTUBE_VIDEOS.Name(), types.SelectOptions{
		OrderBy:   "published_at",
		Ascending: true,
	})
	if err != nil {
		return nil, errors.New("VideoLogic.ListVideos.Select", "failed to list videos", err)
	}

	videos, err := types.FromRecords[types.YoutubeVideo](rows)
	if err != nil {
		return nil, errors.New("VideoLogic.ListVideos.FromRecords", "failed to decode videos", err)
	}
	return videos, nil
}
