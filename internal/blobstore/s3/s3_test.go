package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
)

// mockS3API is a mock implementation of API for testing
type mockS3API struct {
	listFunc func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	getFunc  func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	putFunc  func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	delFunc  func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3API) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return m.listFunc(ctx, params, optFns...)
}

func (m *mockS3API) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.getFunc(ctx, params, optFns...)
}

func (m *mockS3API) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.putFunc(ctx, params, optFns...)
}

func (m *mockS3API) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return m.delFunc(ctx, params, optFns...)
}

func objects(keys ...string) []types.Object {
	out := make([]types.Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Object{Key: aws.String(k)})
	}
	return out
}

func TestStore_ListPaginates(t *testing.T) {
	mock := &mockS3API{
		listFunc: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "photos", aws.ToString(params.Bucket))
			if params.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					Contents:              objects("a.jpg", "folder/"),
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page-2"),
				}, nil
			}
			assert.Equal(t, "page-2", aws.ToString(params.ContinuationToken))
			return &s3.ListObjectsV2Output{Contents: objects("folder/b.PNG")}, nil
		},
	}

	names, err := NewWithAPI(mock).List(context.Background(), "photos")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "folder/b.PNG"}, names)
}

func TestStore_ListFailure(t *testing.T) {
	mock := &mockS3API{
		listFunc: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, errors.New("access denied")
		},
	}

	_, err := NewWithAPI(mock).List(context.Background(), "photos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list s3://photos")
}

func TestStore_Open(t *testing.T) {
	mock := &mockS3API{
		getFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			switch aws.ToString(params.Key) {
			case "a.jpg":
				return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("jpeg-bytes"))}, nil
			case "gone.jpg":
				return nil, &types.NoSuchKey{}
			default:
				return nil, errors.New("throttled")
			}
		},
	}
	store := NewWithAPI(mock)

	rc, err := store.Open(context.Background(), "photos", "a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	require.NoError(t, rc.Close())

	_, err = store.Open(context.Background(), "photos", "gone.jpg")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = store.Open(context.Background(), "photos", "other.jpg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_PutAndDelete(t *testing.T) {
	var stored []byte
	mock := &mockS3API{
		putFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			assert.Equal(t, "photos", aws.ToString(params.Bucket))
			assert.Equal(t, "upload.jpg", aws.ToString(params.Key))
			assert.Equal(t, "image/jpeg", aws.ToString(params.ContentType))
			data, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			stored = data
			return &s3.PutObjectOutput{}, nil
		},
		delFunc: func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			if aws.ToString(params.Key) == "locked.jpg" {
				return nil, errors.New("access denied")
			}
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	store := NewWithAPI(mock)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "photos", "upload.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg"))
	assert.Equal(t, "jpeg-bytes", string(stored))

	require.NoError(t, store.Delete(ctx, "photos", "upload.jpg"))

	err := store.Delete(ctx, "photos", "locked.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete s3://photos/locked.jpg")
}
