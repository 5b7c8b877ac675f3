package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
	apperrors "github.com/siimut/drive/pkg/errors"
)

// TagService manages the flat tag vocabulary and its node assignments.
type TagService struct {
	db *gorm.DB
}

// NewTagService constructs a tag service.
func NewTagService(db *gorm.DB) (*TagService, error) {
	if db == nil {
		return nil, errors.New("tag service: db is required")
	}
	return &TagService{db: db}, nil
}

// Create inserts a tag. Tag names are globally unique.
func (s *TagService) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("tag name is required")
	}

	tag := models.Tag{Name: name}
	if color = strings.TrimSpace(color); color != "" {
		tag.Color = &color
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("tag service: create tag: %w", err)
	}
	return &tag, nil
}

// List returns all tags ordered by name.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	ctx = ensureContext(ctx)

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("tag service: list tags: %w", err)
	}
	return tags, nil
}

// Delete removes a tag and all its node assignments.
func (s *TagService) Delete(ctx context.Context, id uint64) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("tag service: load tag %d: %w", id, err)
		}

		if err := tx.Where("tag_id = ?", id).Delete(&models.NodeTag{}).Error; err != nil {
			return fmt.Errorf("tag service: delete tag assignments: %w", err)
		}
		if err := tx.Delete(&tag).Error; err != nil {
			return fmt.Errorf("tag service: delete tag: %w", err)
		}
		return nil
	})
}

// Attach assigns a tag to a node. Attaching an already assigned tag is a no-op.
func (s *TagService) Attach(ctx context.Context, nodeID, tagID uint64) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureExists(tx, nodeID, tagID); err != nil {
			return err
		}

		assignment := models.NodeTag{NodeID: nodeID, TagID: tagID}
		if err := tx.Create(&assignment).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil
			}
			return fmt.Errorf("tag service: attach tag %d to node %d: %w", tagID, nodeID, err)
		}
		return nil
	})
}

// Detach removes a tag assignment from a node.
func (s *TagService) Detach(ctx context.Context, nodeID, tagID uint64) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("node_id = ? AND tag_id = ?", nodeID, tagID).
		Delete(&models.NodeTag{})
	if result.Error != nil {
		return fmt.Errorf("tag service: detach tag %d from node %d: %w", tagID, nodeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *TagService) ensureExists(tx *gorm.DB, nodeID, tagID uint64) error {
	var node models.Node
	if err := tx.Select("id").First(&node, "id = ?", nodeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("node not found")
		}
		return fmt.Errorf("tag service: load node %d: %w", nodeID, err)
	}

	var tag models.Tag
	if err := tx.Select("id").First(&tag, "id = ?", tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("tag not found")
		}
		return fmt.Errorf("tag service: load tag %d: %w", tagID, err)
	}
	return nil
}
