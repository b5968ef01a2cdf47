package asset

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the id does not resolve to a stored asset.
	ErrNotFound = errors.New("asset not found")
	// ErrInvalidID indicates the id carries path separators or other
	// traversal material and was rejected before touching storage.
	ErrInvalidID = errors.New("invalid asset id")
)

// Store persists uploaded image bytes keyed by generated id.
// Ids are independent of the untrusted original filename; only the
// extension is preserved so content types survive read-back.
type Store interface {
	// Save writes the upload and returns the generated id.
	Save(ctx context.Context, originalFilename string, r io.Reader) (string, error)
	// Open streams a stored asset. Returns ErrNotFound for unknown ids and
	// ErrInvalidID for ids that fail validation.
	Open(ctx context.Context, id string) (io.ReadCloser, string, error)
	// Clear deletes every stored asset. Per-file failures are logged and
	// skipped so one bad file cannot abort a bulk reset.
	Clear(ctx context.Context) error
}

// NewKey derives a collision-resistant storage key from an upload: a random
// UUIDv4 rendered as 32 hex chars plus the original extension, lowercased.
func NewKey(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalFilename)))
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// ValidateID rejects ids that could escape the asset root.
func ValidateID(id string) error {
	if id == "" {
		return ErrInvalidID
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return ErrInvalidID
	}
	if filepath.Base(id) != id || id == "." {
		return ErrInvalidID
	}
	return nil
}

// ContentTypeFor infers a content type from the id's extension.
func ContentTypeFor(id string) string {
	if ct := mime.TypeByExtension(filepath.Ext(id)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
