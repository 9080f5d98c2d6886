package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config locates definitions in a bucket.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

// S3Source reads definition files from an S3 bucket using the same layout as
// FileSource under an optional key prefix.
type S3Source struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Source builds a source from the default AWS credential chain.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newS3Source(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

func newS3Source(client s3API, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Source) key(file string) string {
	if s.prefix == "" {
		return file
	}
	return path.Join(s.prefix, file)
}

// LoadIndex reads the index object, listing the bucket when it is absent.
func (s *S3Source) LoadIndex(ctx context.Context) (*Index, error) {
	data, err := s.ReadFile(ctx, IndexPath)
	if err == nil {
		return ParseIndex(data)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}
	var paths []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, listPrefix, err)
		}
		for _, obj := range page.Contents {
			paths = append(paths, strings.TrimPrefix(aws.ToString(obj.Key), listPrefix))
		}
	}
	return buildIndex(paths), nil
}

func (s *S3Source) ReadFile(ctx context.Context, file string) ([]byte, error) {
	key := s.key(file)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}
