package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// FileStorage stores mirror units on the local filesystem below Root.
// Paths passed to its methods are slash-separated and relative to Root.
type FileStorage struct {
	Root string
}

var _ interfaces.MirrorStorage = (*FileStorage)(nil)

// NewFileStorage returns a storage rooted at root.
func NewFileStorage(root string) *FileStorage {
	return &FileStorage{Root: root}
}

func (s *FileStorage) resolve(p string) string {
	return filepath.Join(s.Root, filepath.FromSlash(p))
}

// List returns the regular files directly below dir. A missing directory is
// an empty listing.
func (s *FileStorage) List(ctx context.Context, dir string) ([]interfaces.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.resolve(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]interfaces.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, interfaces.FileInfo{
			Name:    entry.Name(),
			Path:    filepath.ToSlash(filepath.Join(dir, entry.Name())),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return out, nil
}

// Read returns the content stored at p.
func (s *FileStorage) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.resolve(p))
}

// Write replaces the content at p through a temporary file and a rename, so
// readers never observe a partial write.
func (s *FileStorage) Write(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.resolve(p)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", p, err)
	}
	return nil
}

// Stat describes the file at p. Missing files yield an error matching
// fs.ErrNotExist.
func (s *FileStorage) Stat(ctx context.Context, p string) (interfaces.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.FileInfo{}, err
	}
	info, err := os.Stat(s.resolve(p))
	if err != nil {
		return interfaces.FileInfo{}, err
	}
	return interfaces.FileInfo{
		Name:    info.Name(),
		Path:    p,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// SetModTime sets both access and modification time of p to t.
func (s *FileStorage) SetModTime(ctx context.Context, p string, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Chtimes(s.resolve(p), t, t)
}
