// Package storage keeps generated OI workbooks on disk so a run can be downloaded again.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when no stored file matches the owner and file ID.
var ErrFileNotFound = errors.New("stored file not found")

// FileInfo contains metadata about a stored workbook
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // relative to the owner directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the operations the fluctuation service needs from a file store.
// Files are namespaced per owner; uuid.Nil is the anonymous owner.
type Storage interface {
	// Save stores the content under a new file ID
	Save(ctx context.Context, ownerID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns the stored content; the caller closes it
	Open(ctx context.Context, ownerID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	Delete(ctx context.Context, ownerID, fileID uuid.UUID) error

	List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error)

	// Stat returns metadata without opening the content
	Stat(ctx context.Context, ownerID, fileID uuid.UUID) (*FileInfo, error)
}
