package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps files in one directory, sandboxed with os.Root.
type LocalStore struct {
	dir        string
	root       *os.Root
	publicBase string
}

func NewLocalStore(dir, publicBase string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open storage directory: %w", err)
	}
	return &LocalStore{dir: abs, root: root, publicBase: publicBase}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Write(_ context.Context, name string, data []byte, _ string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	f, err := s.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.root.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

func (s *LocalStore) Exists(_ context.Context, name string) (bool, error) {
	if !ValidName(name) {
		return false, ErrInvalidName
	}
	info, err := s.root.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	if err := s.root.Remove(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) URL(name string) string {
	return publicURL(s.publicBase, name)
}

// Healthy checks that the directory is still reachable.
func (s *LocalStore) Healthy(_ context.Context) error {
	_, err := s.root.Stat(".")
	return err
}

func (s *LocalStore) Close() error {
	return s.root.Close()
}
