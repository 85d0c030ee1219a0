package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3SinkPut(t *testing.T) {
	client := new(mockS3)
	sink := newS3Sink(client, "dive-docs", "/operators/")
	ctx := context.Background()

	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "dive-docs" &&
			aws.ToString(in.Key) == "operators/bir/bir_1.pdf" &&
			aws.ToString(in.ContentType) == "application/pdf" &&
			aws.ToInt64(in.ContentLength) == 4
	})).Return(nil)

	err := sink.Put(ctx, "bir/bir_1.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestS3SinkDeleteWrapsErrors(t *testing.T) {
	client := new(mockS3)
	sink := newS3Sink(client, "dive-docs", "")
	ctx := context.Background()

	client.On("DeleteObject", ctx, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "certification/c.png"
	})).Return(errors.New("access denied"))

	err := sink.Delete(ctx, "certification/c.png")
	assert.ErrorContains(t, err, "access denied")
	client.AssertExpectations(t)
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Options{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestNewS3SinkKeepsPrefix(t *testing.T) {
	sink, err := NewS3Sink(context.Background(), S3Options{
		Bucket:    "dive-docs",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Prefix:    "verification/",
	})
	assert.NoError(t, err)
	assert.Equal(t, "verification/bir/bir_1.pdf", sink.objectKey("bir/bir_1.pdf"))
}
