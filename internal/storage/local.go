package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps blobs as flat files under a root directory. References are
// generated UUIDs; the two-character fan-out directory keeps large stores
// listable.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a store.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Location identifies this backend in file detail rows.
func (s *LocalStore) Location() string { return "local" }

// Store writes the reader to disk, hashing while copying.
func (s *LocalStore) Store(ctx context.Context, r io.Reader) (StoredBlob, error) {
	if err := ctx.Err(); err != nil {
		return StoredBlob{}, err
	}

	reference := uuid.NewString()
	path := s.pathFor(reference)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return StoredBlob{}, fmt.Errorf("local store: create blob dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StoredBlob{}, fmt.Errorf("local store: create blob: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), r)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredBlob{}, fmt.Errorf("local store: write blob: %w", err)
	}

	return StoredBlob{
		Reference: reference,
		Size:      size,
		Checksum:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Read returns the full blob contents.
func (s *LocalStore) Read(ctx context.Context, reference string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.pathFor(reference))
	if err != nil {
		return nil, fmt.Errorf("local store: read blob %s: %w", reference, err)
	}
	return data, nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, reference string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.pathFor(reference)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local store: delete blob %s: %w", reference, err)
	}
	return nil
}

// Checksum recomputes the SHA-256 digest of the stored bytes.
func (s *LocalStore) Checksum(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.Open(s.pathFor(reference))
	if err != nil {
		return "", fmt.Errorf("local store: open blob %s: %w", reference, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("local store: hash blob %s: %w", reference, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *LocalStore) pathFor(reference string) string {
	fanout := "00"
	if len(reference) >= 2 {
		fanout = reference[:2]
	}
	return filepath.Join(s.root, fanout, reference)
}
