package storage

import (
	"context"
	"io"
)

// StoredBlob describes the outcome of persisting a blob.
type StoredBlob struct {
	Reference string
	Size      int64
	Checksum  string // hex-encoded SHA-256 of the stored bytes
}

// BlobStore is the opaque byte-storage collaborator of the drive core. The
// core persists only the reference and the size/checksum metadata it gets
// back; it never inspects how or where bytes live.
type BlobStore interface {
	Store(ctx context.Context, r io.Reader) (StoredBlob, error)
	Read(ctx context.Context, reference string) ([]byte, error)
	Delete(ctx context.Context, reference string) error
	Checksum(ctx context.Context, reference string) (string, error)

	// Location identifies the backend for file_details.storage_location.
	Location() string
}
