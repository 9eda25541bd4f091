package v1

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/object-storage/s3"
)

const transcriptExt = ".json"

// TranscriptSource 批量导入时的文件来源
type TranscriptSource interface {
	// List 返回所有 .json 文件的名称，名称可直接传给 Read
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	String() string
}

// DirSource 本地目录
type DirSource struct {
	Dir string
}

func (s DirSource) List(ctx context.Context) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.Dir, "*"+transcriptExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (s DirSource) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (s DirSource) String() string {
	return s.Dir
}

// S3Source bucket 下某个前缀中的对象
type S3Source struct {
	Client *s3.S3
	Prefix string
}

func (s S3Source) List(ctx context.Context) ([]string, error) {
	keys, err := s.Client.ListObjects(ctx, s.Prefix, transcriptExt)
	if err != nil {
		return nil, err
	}
	// 只取当前层级，与本地目录的行为一致
	res := keys[:0]
	for _, k := range keys {
		if !strings.Contains(strings.TrimPrefix(k, s.Prefix), "/") {
			res = append(res, k)
		}
	}
	sort.Strings(res)
	return res, nil
}

func (s S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	return s.Client.Download(ctx, name)
}

func (s S3Source) String() string {
	return s3.Scheme + "://" + s.Client.Bucket + "/" + s.Prefix
}

// OpenTranscriptSource 解析本地目录或 s3://bucket/prefix
func OpenTranscriptSource(ctx context.Context, core *core.Core, uri string) (TranscriptSource, error) {
	if !s3.IsURI(uri) {
		info, err := os.Stat(uri)
		if err != nil {
			return nil, errors.New("OpenTranscriptSource.Stat", "transcript directory not found", err)
		}
		if !info.IsDir() {
			return nil, errors.New("OpenTranscriptSource.IsDir", uri+" is not a directory", nil)
		}
		return DirSource{Dir: uri}, nil
	}

	bucket, prefix, err := s3.ParseURI(uri)
	if err != nil {
		return nil, errors.New("OpenTranscriptSource.ParseURI", "invalid transcript source", err)
	}
	cli, err := core.FileStorage(ctx, bucket)
	if err != nil {
		return nil, errors.New("OpenTranscriptSource.FileStorage", "failed to setup s3 client", err)
	}
	return S3Source{Client: cli, Prefix: prefix}, nil
}

// VideoIDFromName 文件名去掉 .json 即视频 ID
func VideoIDFromName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), transcriptExt)
}
