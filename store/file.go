package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one file per model in a directory, <name>.json or
// <name>.json.zst when compression is on.
type FileStore struct {
	Dir      string
	Compress bool
}

func NewFileStore(dir string, compress bool) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating model directory: %w", err)
	}
	return &FileStore{Dir: dir, Compress: compress}, nil
}

func (s *FileStore) path(name string, compressed bool) string {
	if compressed {
		return filepath.Join(s.Dir, name+".json.zst")
	}
	return filepath.Join(s.Dir, name+".json")
}

func (s *FileStore) Save(_ context.Context, doc *Document) error {
	if err := checkName(doc.Name); err != nil {
		return err
	}
	data, err := encode(doc, s.Compress)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, "."+doc.Name+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(doc.Name, s.Compress)); err != nil {
		return err
	}
	// drop the copy in the other format so Load cannot return a stale model
	err = os.Remove(s.path(doc.Name, !s.Compress))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, name string) (*Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	for _, compressed := range []bool{s.Compress, !s.Compress} {
		data, err := os.ReadFile(s.path(name, compressed))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return decode(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (s *FileStore) Close() error {
	return nil
}
