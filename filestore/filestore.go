// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/danielhkuo/publicpulse/identity"
)

// ErrTooLarge is returned by Save when the upload exceeds the size limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Store keeps uploaded files under one directory.
type Store struct {
	fs       afero.Fs
	dir      string
	maxBytes int64
}

// New creates a Store rooted at dir on fs. A maxBytes of zero or less
// disables the size limit.
func New(fs afero.Fs, dir string, maxBytes int64) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, maxBytes: maxBytes}, nil
}

// Fs returns the filesystem the store writes to.
func (s *Store) Fs() afero.Fs { return s.fs }

// Save copies r to "<datasetID>_<filename>" in the store directory and
// returns the stored path. A partial file is removed on failure.
func (s *Store) Save(r io.Reader, datasetID, filename string) (string, error) {
	path := filepath.Join(s.dir, identity.StoredName(datasetID, filename))

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		s.fs.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
