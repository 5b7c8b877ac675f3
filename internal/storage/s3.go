package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// S3Config holds connection settings for the S3 blob backend.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional, for S3-compatible stores
	KeyPrefix       string
}

// S3Store keeps blobs as objects in a single bucket. References are generated
// UUIDs prefixed with an optional key prefix.
type S3Store struct {
	bucket string
	prefix string
	svc    *s3.S3
}

// NewS3Store builds an S3-backed blob store.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 store: bucket is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 store: session: %w", err)
	}

	return &S3Store{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.KeyPrefix, "/"),
		svc:    s3.New(sess),
	}, nil
}

// Location identifies this backend in file detail rows.
func (s *S3Store) Location() string { return "s3" }

// Store buffers the reader, hashes it and uploads the object.
func (s *S3Store) Store(ctx context.Context, r io.Reader) (StoredBlob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return StoredBlob{}, fmt.Errorf("s3 store: buffer blob: %w", err)
	}

	reference := uuid.NewString()
	digest := sha256.Sum256(data)

	_, err = s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(reference)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return StoredBlob{}, fmt.Errorf("s3 store: put object: %w", err)
	}

	return StoredBlob{
		Reference: reference,
		Size:      int64(len(data)),
		Checksum:  hex.EncodeToString(digest[:]),
	}, nil
}

// Read downloads the full object contents.
func (s *S3Store) Read(ctx context.Context, reference string) ([]byte, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(reference)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 store: get object %s: %w", reference, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 store: read object %s: %w", reference, err)
	}
	return data, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *S3Store) Delete(ctx context.Context, reference string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(reference)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil
		}
		return fmt.Errorf("s3 store: delete object %s: %w", reference, err)
	}
	return nil
}

// Checksum downloads the object and recomputes its SHA-256 digest.
func (s *S3Store) Checksum(ctx context.Context, reference string) (string, error) {
	data, err := s.Read(ctx, reference)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:]), nil
}

func (s *S3Store) keyFor(reference string) string {
	if s.prefix == "" {
		return reference
	}
	return s.prefix + "/" + reference
}
