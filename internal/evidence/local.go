package evidence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs under a directory, fanned out by the first two hex digits.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create evidence dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(hash string) string {
	return filepath.Join(s.root, hash[:2], hash+".blob")
}

func (s *LocalStore) Put(ctx context.Context, data []byte) (Object, error) {
	contentType, err := SniffImage(data)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	ref, hash := contentRef(data)
	obj := Object{Ref: ref, ContentType: contentType, Size: len(data)}

	p := s.path(hash)
	if _, err := os.Stat(p); err == nil {
		return obj, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create evidence dir: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Dir(p), hash+".*.tmp")
	if err != nil {
		return Object{}, fmt.Errorf("failed to write evidence: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Object{}, fmt.Errorf("failed to write evidence: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Object{}, fmt.Errorf("failed to write evidence: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return Object{}, fmt.Errorf("failed to write evidence: %w", err)
	}

	obj.Created = true
	return obj, nil
}

func (s *LocalStore) Get(ctx context.Context, ref string) ([]byte, error) {
	hash, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	hash, err := parseRef(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(hash)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}
	return nil
}
