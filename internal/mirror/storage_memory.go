package mirror

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// MemoryStorage is an in-process MirrorStorage used for dry runs and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string]memoryFile
	now   func() time.Time
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

var _ interfaces.MirrorStorage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty storage stamping writes with now.
func NewMemoryStorage(now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}
	return &MemoryStorage{files: make(map[string]memoryFile), now: now}
}

func (s *MemoryStorage) List(_ context.Context, dir string) ([]interfaces.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir = path.Clean(dir)
	var out []interfaces.FileInfo
	for p, f := range s.files {
		if path.Dir(p) != dir {
			continue
		}
		out = append(out, interfaces.FileInfo{Name: path.Base(p), Path: p, ModTime: f.modTime, Size: int64(len(f.data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemoryStorage) Read(_ context.Context, p string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path.Clean(p)]
	if !ok {
		return nil, notExist("read", p)
	}
	return append([]byte(nil), f.data...), nil
}

func (s *MemoryStorage) Write(_ context.Context, p string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path.Clean(p)] = memoryFile{data: append([]byte(nil), data...), modTime: s.now()}
	return nil
}

func (s *MemoryStorage) Stat(_ context.Context, p string) (interfaces.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := path.Clean(p)
	f, ok := s.files[key]
	if !ok {
		return interfaces.FileInfo{}, notExist("stat", p)
	}
	return interfaces.FileInfo{Name: path.Base(key), Path: key, ModTime: f.modTime, Size: int64(len(f.data))}, nil
}

func (s *MemoryStorage) SetModTime(_ context.Context, p string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := path.Clean(p)
	f, ok := s.files[key]
	if !ok {
		return notExist("chtimes", p)
	}
	f.modTime = t
	s.files[key] = f
	return nil
}

func notExist(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
}
