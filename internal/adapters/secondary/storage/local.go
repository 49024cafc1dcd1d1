package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// LocalStore persists attachment content on the local filesystem, one file
// per stored name under a single directory.
type LocalStore struct {
	dir string
}

var _ ports.FileStore = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, storedName string, content io.Reader) (int64, error) {
	path, err := s.path(storedName)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}

	written, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("writing file: %w", err)
	}
	return written, nil
}

func (s *LocalStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	path, err := s.path(storedName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, storedName string) error {
	path, err := s.path(storedName)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.ErrAttachmentNotFound
		}
		return err
	}
	return nil
}

// path resolves a stored name inside the upload directory, rejecting names
// that would escape it.
func (s *LocalStore) path(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) || strings.HasPrefix(storedName, ".") {
		return "", apperrors.NewValidationError(apperrors.ErrBadRequest, "Invalid file name", nil)
	}
	return filepath.Join(s.dir, storedName), nil
}
