// Package storage persists chat attachments.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is a flat key/value blob store.
type Storage interface {
	// Write stores r under key. size is -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read opens the content under key; the caller closes it.
	// A missing key is domain.ErrNotFound.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL a client can fetch the content from.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// DefaultURLExpiry is how long presigned attachment links stay valid.
const DefaultURLExpiry = 24 * time.Hour

// AttachmentKey builds a unique key for a user's upload:
// attachments/<userID>/<uuid>/<sanitized name>.
func AttachmentKey(userID, filename string) string {
	return path.Join("attachments", SanitizeSegment(userID), uuid.NewString(), SanitizeSegment(filename))
}

// OwnsKey reports whether key lives under the user's attachment prefix.
func OwnsKey(userID, key string) bool {
	return strings.HasPrefix(key, path.Join("attachments", SanitizeSegment(userID))+"/")
}

// SanitizeSegment makes s safe as a single path segment.
func SanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r < 0x20 || r == 0x7f:
			return '_'
		default:
			return r
		}
	}, s)
	if s == "" || s == "." || s == ".." {
		return "file"
	}
	return s
}
