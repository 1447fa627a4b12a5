package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Dir keeps files in a local directory. Intended for development and tests.
type Dir struct {
	root string
}

// NewDir creates the directory if needed and returns a Dir store over it.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	id := uuid.NewString() + strings.ToLower(filepath.Ext(name))

	f, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(f.Name(), filepath.Join(d.root, id)); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return id, nil
}

func (d *Dir) Download(ctx context.Context, id string) (*Object, error) {
	if !validID(id) {
		return nil, fmt.Errorf("blob %q: %w", id, ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.root, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blob %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %q: %w", id, err)
	}
	return &Object{Data: data, ContentType: contentTypeForKey(id, data)}, nil
}
