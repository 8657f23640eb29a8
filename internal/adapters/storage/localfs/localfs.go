package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filestream/internal/ports"
)

// LocalFS implements ports.Replica on a directory of the local
// filesystem. Object keys map to paths under the configured root.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	dst := filepath.Join(l.root, filepath.FromSlash(in.ObjectKey))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, err
	}

	f, err := os.Create(dst)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	defer f.Close()

	n, err := io.Copy(f, in.Reader)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}, nil
}

func (l *LocalFS) OpenRange(ctx context.Context, objectKey string, offset, length int64) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(objectKey)))
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}
	if length < 0 {
		return f, nil
	}
	return &limitedFile{Reader: io.LimitReader(f, length), f: f}, nil
}

func (l *LocalFS) DeleteObject(ctx context.Context, objectKey string) error {
	return os.Remove(filepath.Join(l.root, filepath.FromSlash(objectKey)))
}

type limitedFile struct {
	io.Reader
	f *os.File
}

func (lf *limitedFile) Close() error { return lf.f.Close() }
