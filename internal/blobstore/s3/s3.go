// Package s3 serves corpora from S3-compatible buckets.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
)

// API is the subset of the S3 client used here
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Region string
	// Endpoint overrides the AWS endpoint (MinIO, LocalStack)
	Endpoint     string
	UsePathStyle bool
}

type Store struct {
	api API
}

// New creates a Store using the AWS default credential chain
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithAPI(client), nil
}

func NewWithAPI(api API) *Store {
	return &Store{api: api}
}

func (s *Store) List(ctx context.Context, corpus string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(corpus),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s: %w", corpus, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			names = append(names, key)
		}
	}

	return names, nil
}

func (s *Store) Open(ctx context.Context, corpus, name string) (io.ReadCloser, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(corpus),
		Key:    aws.String(name),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s: %w", corpus, name, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("open s3://%s/%s: %w", corpus, name, err)
	}
	return out.Body, nil
}

// Put buffers r so the SDK can sign and retry the payload.
func (s *Store) Put(ctx context.Context, corpus, name string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload for s3://%s/%s: %w", corpus, name, err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(corpus),
		Key:    aws.String(name),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", corpus, name, err)
	}
	return nil
}

// Delete is idempotent on S3, so a missing key is not reported.
func (s *Store) Delete(ctx context.Context, corpus, name string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(corpus),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", corpus, name, err)
	}
	return nil
}

var _ blobstore.ReadWriter = (*Store)(nil)
