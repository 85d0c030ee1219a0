package storage

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *MockSink) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
