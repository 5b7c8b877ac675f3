package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
)

// recordActivity appends an audit row on the supplied handle. Mutations call
// this inside their own transaction: a failed activity insert fails the whole
// operation, logging is part of the audit contract rather than best-effort.
func recordActivity(tx *gorm.DB, nodeID uint64, userID *uint64, action models.ActivityAction, meta map[string]any) error {
	var payload datatypes.JSON
	if meta != nil {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("activity: marshal meta: %w", err)
		}
		payload = datatypes.JSON(encoded)
	}

	activity := models.Activity{
		NodeID: nodeID,
		UserID: userID,
		Action: action,
		Meta:   payload,
	}
	if err := tx.Create(&activity).Error; err != nil {
		return fmt.Errorf("activity: record %s: %w", action, err)
	}
	return nil
}

// ActivityFilters narrows activity queries.
type ActivityFilters struct {
	NodeID uint64
	UserID *uint64
	Action models.ActivityAction
	Since  *time.Time
}

// ActivityListOptions controls pagination and filtering for activity queries.
type ActivityListOptions struct {
	Page     int
	PageSize int
	Filters  ActivityFilters
}

// ActivityService reads and prunes the append-only activity log. Writing
// happens through recordActivity inside the mutating transactions.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService constructs an ActivityService.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{db: db}, nil
}

// ListForNode returns a node's activity feed, newest first.
func (s *ActivityService) ListForNode(ctx context.Context, nodeID uint64, limit int) ([]models.Activity, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var activities []models.Activity
	if err := s.db.WithContext(ctx).
		Where("node_id = ?", nodeID).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("activity service: list for node: %w", err)
	}
	return activities, nil
}

// List returns paginated activities ordered by creation time descending.
func (s *ActivityService) List(ctx context.Context, opts ActivityListOptions) ([]models.Activity, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Activity{})
	if opts.Filters.NodeID != 0 {
		query = query.Where("node_id = ?", opts.Filters.NodeID)
	}
	if opts.Filters.UserID != nil {
		query = query.Where("user_id = ?", *opts.Filters.UserID)
	}
	if opts.Filters.Action != "" {
		query = query.Where("action = ?", opts.Filters.Action)
	}
	if opts.Filters.Since != nil {
		query = query.Where("created_at >= ?", *opts.Filters.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("activity service: count: %w", err)
	}

	var activities []models.Activity
	if err := query.
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&activities).Error; err != nil {
		return nil, 0, fmt.Errorf("activity service: list: %w", err)
	}

	return activities, total, nil
}

// CleanupOlderThan removes activity rows older than the retention window in days.
func (s *ActivityService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("activity service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Activity{})
	if result.Error != nil {
		return 0, fmt.Errorf("activity service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}
