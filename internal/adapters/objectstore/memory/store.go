package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"bovine-monitoring/internal/ports/objectstore"
)

type object struct {
	data      []byte
	opts      objectstore.UploadOptions
	updatedAt time.Time
}

// Store es un bucket en memoria (dev/tests).
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
	now     func() time.Time
}

func NewStore(baseURL string) *Store {
	return &Store{
		objects: make(map[string]object),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *Store) Upload(ctx context.Context, path string, data []byte, opts objectstore.UploadOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = strings.Trim(path, "/")
	if path == "" {
		return errors.New("object path required")
	}
	if _, exists := s.objects[path]; exists {
		return errors.New("object already exists")
	}
	s.objects[path] = object{data: bytes.Clone(data), opts: opts, updatedAt: s.now().UTC()}
	return nil
}

func (s *Store) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range paths {
		if _, ok := s.objects[p]; ok {
			delete(s.objects, p)
			n++
		}
	}
	if n == 0 {
		return objectstore.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.Trim(prefix, "/") + "/"
	out := make([]objectstore.Object, 0)
	for p, o := range s.objects {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, objectstore.Object{
			Path:        p,
			Size:        int64(len(o.data)),
			ContentType: o.opts.ContentType,
			UpdatedAt:   o.updatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (s *Store) PublicURL(path string) string {
	return s.baseURL + "/" + strings.Trim(path, "/")
}
