// Package localfs stores uploaded files on the local disk.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Storage struct {
	dir    string
	prefix string
}

// New stores files under dir and returns URLs under prefix.
func New(dir, prefix string) *Storage {
	if prefix == "" {
		prefix = "/uploads"
	}
	return &Storage{dir: dir, prefix: "/" + strings.Trim(prefix, "/")}
}

func (s *Storage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	file := uuid.NewString() + sanitizeExt(name)
	f, err := os.Create(filepath.Join(s.dir, file))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join(s.prefix, file), nil
}

// Delete removes a file previously returned by Save. Unknown or foreign
// URLs are ignored.
func (s *Storage) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.prefix+"/") {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 8 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
