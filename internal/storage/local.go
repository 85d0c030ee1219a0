package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSink writes documents below a directory on the local filesystem.
type LocalSink struct {
	validator *KeyValidator
}

func NewLocalSink(root string) (*LocalSink, error) {
	validator, err := NewKeyValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o750); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}

	return &LocalSink{validator: validator}, nil
}

func (s *LocalSink) RootAbs() string {
	return s.validator.RootAbs()
}

func (s *LocalSink) Put(ctx context.Context, key string, body io.Reader, size int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := s.validator.Resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o750); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	// O_EXCL: keys are unique per upload and documents are never overwritten.
	file, err := os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("open %q: %w", key, err)
	}

	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr == nil && size >= 0 && written != size {
		copyErr = fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(resolved)
		return fmt.Errorf("write %q: %w", key, err)
	}

	return nil
}

func (s *LocalSink) Delete(_ context.Context, key string) error {
	resolved, err := s.validator.Resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	return nil
}
