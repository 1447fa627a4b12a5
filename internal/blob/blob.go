// Package blob stores course material files (topic intros, education plans,
// block and chapter content) outside the relational database.
package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
)

// ErrNotFound is returned when a file id does not resolve to an object.
var ErrNotFound = errors.New("blob not found")

// Object is a downloaded file.
type Object struct {
	Data        []byte
	ContentType string
}

// Store uploads and downloads opaque files by id.
type Store interface {
	// Upload stores the content read from r and returns its file id. name
	// is only used to derive the extension and content type.
	Upload(ctx context.Context, name string, r io.Reader) (string, error)

	// Download returns the file stored under id.
	Download(ctx context.Context, id string) (*Object, error)
}

// contentTypeForKey picks a MIME type from the key's extension, falling
// back to sniffing the content.
func contentTypeForKey(key string, data []byte) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	}
	if data == nil {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}

// validID rejects ids that could escape the storage root or bucket prefix.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
