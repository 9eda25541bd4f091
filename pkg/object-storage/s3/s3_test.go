package s3_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/knowledge/pkg/object-storage/s3"
	"github.com/quka-ai/knowledge/pkg/testutils"
)

func TestParseURI(t *testing.T) {
	bucket, prefix, err := s3.ParseURI("s3://transcripts/youtube/2024")
	require.NoError(t, err)
	assert.Equal(t, "transcripts", bucket)
	assert.Equal(t, "youtube/2024/", prefix)

	bucket, prefix, err = s3.ParseURI("s3://transcripts")
	require.NoError(t, err)
	assert.Equal(t, "transcripts", bucket)
	assert.Equal(t, "", prefix)

	_, _, err = s3.ParseURI("/tmp/transcripts")
	assert.Error(t, err)

	assert.True(t, s3.IsURI("s3://a/b"))
	assert.False(t, s3.IsURI("./youtube"))
	assert.Equal(t, "abc.json", s3.BaseName("youtube/abc.json"))
}

func newClient(t *testing.T) *s3.S3 {
	testutils.LoadEnvOrPanic()
	if os.Getenv("TEST_KNOWLEDGE_S3_BUCKET") == "" {
		t.Skip("TEST_KNOWLEDGE_S3_BUCKET is not set")
	}
	cli, err := s3.NewS3Client(context.Background(),
		os.Getenv("TEST_KNOWLEDGE_S3_ENDPOINT"),
		os.Getenv("TEST_KNOWLEDGE_S3_REGION"),
		os.Getenv("TEST_KNOWLEDGE_S3_BUCKET"),
		os.Getenv("TEST_KNOWLEDGE_S3_ACCESS_KEY"),
		os.Getenv("TEST_KNOWLEDGE_S3_SECRET_KEY"),
		s3.WithPathStyle(os.Getenv("TEST_KNOWLEDGE_S3_PATH_STYLE") == "true"),
	)
	require.NoError(t, err)
	return cli
}

func TestListAndDownload(t *testing.T) {
	cli := newClient(t)

	keys, err := cli.ListObjects(context.Background(), os.Getenv("TEST_KNOWLEDGE_S3_PREFIX"), ".json")
	require.NoError(t, err)
	if len(keys) == 0 {
		t.Skip("no transcript objects under prefix")
	}

	raw, err := cli.Download(context.Background(), keys[0])
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}
