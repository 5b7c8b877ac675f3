package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
)

// StorageStats summarizes space usage across the drive. File counts and byte
// totals include trashed files, since trashed content still occupies blob
// storage; the folder count covers active folders only.
type StorageStats struct {
	FolderCount    int64  `json:"folder_count"`
	FileCount      int64  `json:"file_count"`
	TrashedCount   int64  `json:"trashed_count"`
	TotalBytes     int64  `json:"total_bytes"`
	TotalFormatted string `json:"total_formatted"`
}

// StorageService computes storage accounting figures.
type StorageService struct {
	db *gorm.DB
}

// NewStorageService constructs a storage service.
func NewStorageService(db *gorm.DB) (*StorageService, error) {
	if db == nil {
		return nil, errors.New("storage service: db is required")
	}
	return &StorageService{db: db}, nil
}

// Stats returns the usage summary, drive-wide or for a single owner when
// ownerID is non-nil. Ownership follows the node's created_by column.
func (s *StorageService) Stats(ctx context.Context, ownerID *uint64) (*StorageStats, error) {
	ctx = ensureContext(ctx)

	stats := &StorageStats{}

	nodeQuery := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Node{})
		if ownerID != nil {
			query = query.Where("created_by = ?", *ownerID)
		}
		return query
	}

	if err := nodeQuery().
		Where("kind = ? AND is_trashed = ?", models.NodeKindFolder, false).
		Count(&stats.FolderCount).Error; err != nil {
		return nil, fmt.Errorf("storage service: count folders: %w", err)
	}

	if err := nodeQuery().
		Where("kind = ?", models.NodeKindFile).
		Count(&stats.FileCount).Error; err != nil {
		return nil, fmt.Errorf("storage service: count files: %w", err)
	}

	if err := nodeQuery().
		Where("is_trashed = ?", true).
		Count(&stats.TrashedCount).Error; err != nil {
		return nil, fmt.Errorf("storage service: count trashed: %w", err)
	}

	var total struct {
		Total int64
	}
	sizeQuery := s.db.WithContext(ctx).Model(&models.FileDetail{})
	if ownerID != nil {
		sizeQuery = sizeQuery.
			Joins("JOIN nodes ON nodes.id = file_details.node_id").
			Where("nodes.created_by = ?", *ownerID)
	}
	if err := sizeQuery.
		Select("COALESCE(SUM(size_bytes), 0) AS total").
		Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("storage service: sum file sizes: %w", err)
	}
	stats.TotalBytes = total.Total
	stats.TotalFormatted = FormatBytes(stats.TotalBytes)

	return stats, nil
}

// UsageForUser returns the byte total of files created by the user, trashed
// files included.
func (s *StorageService) UsageForUser(ctx context.Context, userID uint64) (int64, error) {
	ctx = ensureContext(ctx)

	var total struct {
		Total int64
	}
	if err := s.db.WithContext(ctx).Model(&models.FileDetail{}).
		Joins("JOIN nodes ON nodes.id = file_details.node_id").
		Where("nodes.created_by = ?", userID).
		Select("COALESCE(SUM(file_details.size_bytes), 0) AS total").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("storage service: sum user file sizes: %w", err)
	}
	return total.Total, nil
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with a binary unit. Values only step up to
// the next unit once they exceed 1024, so exactly 1024 stays "1024 B".
func FormatBytes(size int64) string {
	value := float64(size)
	unit := 0
	for value > 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + byteUnits[unit]
}
