package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage appends events to a file as NDJSON.
type FileStorage struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileStorage opens path for appending, creating it and its parent
// directory when missing.
func NewFileStorage(path string) (*FileStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Join(ErrWriteFailed, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Join(ErrWriteFailed, err)
	}

	return &FileStorage{file: f, enc: json.NewEncoder(f)}, nil
}

// Store writes event as one line. json.Encoder terminates each value with a
// newline.
func (s *FileStorage) Store(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrStorageClosed
	}
	if err := s.enc.Encode(event); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
