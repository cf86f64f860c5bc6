package interfaces

import (
	"context"
	"time"
)

// FileInfo describes a persisted mirror unit.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// MirrorStorage is the persistence contract used by the local mirror. Write
// must be atomic: readers observe either the previous content or the new one.
type MirrorStorage interface {
	List(ctx context.Context, dir string) ([]FileInfo, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Stat(ctx context.Context, path string) (FileInfo, error)
	SetModTime(ctx context.Context, path string, t time.Time) error
}
