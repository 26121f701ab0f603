package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// typesDir holds the content type recorded for each object, mirroring the
// bucket layout.
const typesDir = ".types"

// Local stores every bucket as a directory under Root.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) Bucket(name string) Bucket {
	return &localBucket{
		dir:   filepath.Join(l.Root, name),
		types: filepath.Join(l.Root, typesDir, name),
	}
}

type localBucket struct {
	dir   string
	types string
}

func (b *localBucket) abs(p string) (string, string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(b.dir, filepath.FromSlash(clean)), nil
}

func (b *localBucket) typePath(clean string) string {
	return filepath.Join(b.types, filepath.FromSlash(clean))
}

func (b *localBucket) writeType(clean, contentType string) error {
	dst := b.typePath(clean)
	if contentType == "" {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to clear content type: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dst, []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("failed to write content type: %w", err)
	}
	return nil
}

// readType returns the recorded content type, or a neutral one for objects
// stored without it.
func (b *localBucket) readType(clean string) string {
	data, err := os.ReadFile(b.typePath(clean))
	if err != nil || len(data) == 0 {
		return "application/octet-stream"
	}
	return strings.TrimSpace(string(data))
}

func (b *localBucket) Put(ctx context.Context, p string, r io.Reader, contentType string, upsert bool) error {
	clean, dst, err := b.abs(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if !upsert {
		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			return ErrObjectExists
		}
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if err := writeAndClose(f, r, dst); err != nil {
			return err
		}
		return b.writeType(clean, contentType)
	}

	// write aside and rename so readers never see a half-written object
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := writeAndClose(tmp, r, tmp.Name()); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file: %w", err)
	}
	return b.writeType(clean, contentType)
}

func writeAndClose(f *os.File, r io.Reader, name string) error {
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(name)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (b *localBucket) Open(_ context.Context, p string) (io.ReadCloser, *Object, error) {
	clean, src, err := b.abs(p)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrObjectNotFound
	}

	return f, &Object{
		Path:        clean,
		ContentType: b.readType(clean),
		Size:        info.Size(),
		ModTime:     info.ModTime().UTC(),
	}, nil
}

func (b *localBucket) Remove(_ context.Context, p string) error {
	clean, dst, err := b.abs(p)
	if err != nil {
		return err
	}
	err = os.Remove(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	if err != nil {
		return err
	}
	_ = os.Remove(b.typePath(clean))
	return nil
}

func (b *localBucket) Exists(_ context.Context, p string) (bool, error) {
	_, dst, err := b.abs(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
