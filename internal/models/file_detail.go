package models

import (
	"strings"
	"time"
)

// Visibility controls whether a file may be served without authentication.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// FileDetail carries file-only attributes, 1:1 with a Node of kind file.
// BlobReference is nil only transiently during upload, inside the creating
// transaction; it is never observable as nil afterwards unless the blob
// backend is being swapped out.
type FileDetail struct {
	NodeID          uint64     `gorm:"primaryKey" json:"node_id"`
	BlobReference   *string    `gorm:"size:512;index" json:"blob_reference"`
	MimeType        string     `gorm:"size:255;not null" json:"mime_type"`
	SizeBytes       int64      `gorm:"not null;default:0" json:"size_bytes"`
	Checksum        *string    `gorm:"size:128;index" json:"checksum"`
	StorageLocation string     `gorm:"size:64;not null" json:"storage_location"`
	Visibility      Visibility `gorm:"type:varchar(16);not null;default:private" json:"visibility"`
	Version         int        `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Node *Node `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the satellite table name explicit.
func (FileDetail) TableName() string { return "file_details" }

// IsImage reports whether the stored mime type is an image type.
func (f *FileDetail) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// IsVideo reports whether the stored mime type is a video type.
func (f *FileDetail) IsVideo() bool {
	return strings.HasPrefix(f.MimeType, "video/")
}

// IsAudio reports whether the stored mime type is an audio type.
func (f *FileDetail) IsAudio() bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}
