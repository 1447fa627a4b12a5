package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSConfig selects the bucket and optional key prefix.
type GCSConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	// CredentialsFile is a service account JSON file. Empty means
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file"`
	// EmulatorHost points the client at a fake-gcs-server instance.
	EmulatorHost string `yaml:"emulator_host"`
}

// GCS stores files as objects in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a storage client for cfg.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.EmulatorHost != "":
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (g *GCS) key(id string) string {
	if g.prefix == "" {
		return id
	}
	return g.prefix + "/" + id
}

func (g *GCS) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	id := uuid.NewString() + strings.ToLower(path.Ext(name))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(g.key(id)).NewWriter(ctx)
	w.ContentType = contentTypeForKey(id, nil)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close GCS writer: %w", err)
	}
	return id, nil
}

func (g *GCS) Download(ctx context.Context, id string) (*Object, error) {
	if !validID(id) {
		return nil, fmt.Errorf("blob %q: %w", id, ErrNotFound)
	}

	rd, err := g.client.Bucket(g.bucket).Object(g.key(id)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("blob %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object %q: %w", id, err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %q: %w", id, err)
	}

	ct := rd.Attrs.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = contentTypeForKey(id, data)
	}
	return &Object{Data: data, ContentType: ct}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
