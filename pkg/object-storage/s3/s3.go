package s3

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const Scheme = "s3"

type S3 struct {
	Endpoint string
	Region   string
	Bucket   string
	ak       string
	sk       string
	options  options
	cli      *s3.Client
}

type options struct {
	usePathStyle bool
}

type Option func(o *options)

// WithPathStyle MinIO 等自建服务需要 endpoint/bucket 形式的地址
func WithPathStyle(enabled bool) Option {
	return func(o *options) {
		o.usePathStyle = enabled
	}
}

func NewS3Client(ctx context.Context, endpoint, region, bucket, ak, sk string, opts ...Option) (*S3, error) {
	cli := &S3{
		Endpoint: endpoint,
		Region:   region,
		Bucket:   bucket,
		ak:       ak,
		sk:       sk,
	}
	for _, o := range opts {
		o(&cli.options)
	}

	if _, err := cli.DefaultConfig(ctx); err != nil {
		return nil, err
	}
	return cli, nil
}

func (s *S3) DefaultConfig(ctx context.Context) (aws.Config, error) {
	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
	}
	if s.ak != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}))
	}
	if s.Endpoint != "" {
		loadOptions = append(loadOptions, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           s.Endpoint,
				SigningRegion: s.Region,
			}, nil
		})))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return aws.Config{}, err
	}

	s.cli = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.options.usePathStyle
	})
	return cfg, nil
}

// ListObjects 列出 prefix 下所有以 suffix 结尾的对象
func (s *S3) ListObjects(ctx context.Context, prefix, suffix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.cli, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(strings.TrimPrefix(prefix, "/")),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects of %s/%s, %w", s.Bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, suffix) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// Download 读取整个对象
func (s *S3) Download(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := manager.NewDownloader(s.cli).Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s/%s, %w", s.Bucket, key, err)
	}
	return buf.Bytes(), nil
}

// ParseURI 解析 s3://bucket/prefix
func ParseURI(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != Scheme || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q, expect s3://bucket/prefix", raw)
	}
	prefix = strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return u.Host, prefix, nil
}

func IsURI(raw string) bool {
	return strings.HasPrefix(raw, Scheme+"://")
}

// BaseName 对象 key 的文件名部分
func BaseName(key string) string {
	return path.Base(key)
}
