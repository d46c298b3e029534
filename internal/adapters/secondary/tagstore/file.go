package tagstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// FileStore keeps the notified tags as a JSON array of strings, the format
// operators already have on disk. Every Add rewrites the whole file through a
// temp file and rename, so a crash never leaves it half written.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ ports.NotifiedTagStore = (*FileStore)(nil)

// NewFileStore creates a file-backed store. A missing file is an empty set.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("tagstore: file path is required")
	}
	s := &FileStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Contains(_ context.Context, tag domain.NotifiedTag) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := tags[string(tag)]
	return ok, nil
}

func (s *FileStore) Add(_ context.Context, tag domain.NotifiedTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := tags[string(tag)]; ok {
		return nil
	}
	tags[string(tag)] = struct{}{}
	return s.save(tags)
}

// Ping checks the file is readable and parseable.
func (s *FileStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (map[string]struct{}, error) {
	tags := make(map[string]struct{})

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tags, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tagstore: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return tags, nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("tagstore: parse %s: %w", s.path, err)
	}
	for _, t := range list {
		tags[t] = struct{}{}
	}
	return tags, nil
}

func (s *FileStore) save(tags map[string]struct{}) error {
	list := make([]string, 0, len(tags))
	for t := range tags {
		list = append(list, t)
	}
	sort.Strings(list)

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("tagstore: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("tagstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tagstore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tagstore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tagstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("tagstore: replace %s: %w", s.path, err)
	}
	return nil
}
