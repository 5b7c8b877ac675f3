package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
	apperrors "github.com/siimut/drive/pkg/errors"
)

// FavoriteService maintains per-user favorite marks on nodes.
type FavoriteService struct {
	db *gorm.DB
}

// NewFavoriteService constructs a favorite service.
func NewFavoriteService(db *gorm.DB) (*FavoriteService, error) {
	if db == nil {
		return nil, errors.New("favorite service: db is required")
	}
	return &FavoriteService{db: db}, nil
}

// Toggle flips the favorite mark for a user on a node and returns the new
// state. Both directions log an activity.
func (s *FavoriteService) Toggle(ctx context.Context, userID, nodeID uint64) (favorited bool, err error) {
	ctx = ensureContext(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var node models.Node
		if txErr := tx.First(&node, "id = ?", nodeID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("favorite service: load node %d: %w", nodeID, txErr)
		}

		var existing models.Favorite
		txErr := tx.Where("user_id = ? AND node_id = ?", userID, nodeID).First(&existing).Error
		switch {
		case txErr == nil:
			if txErr := tx.Delete(&existing).Error; txErr != nil {
				return fmt.Errorf("favorite service: remove favorite: %w", txErr)
			}
			favorited = false
			return recordActivity(tx, nodeID, &userID, models.ActionUnfavorite, nil)

		case errors.Is(txErr, gorm.ErrRecordNotFound):
			favorite := models.Favorite{UserID: userID, NodeID: nodeID}
			if txErr := tx.Create(&favorite).Error; txErr != nil {
				if isUniqueConstraintError(txErr) {
					return apperrors.ErrConflict
				}
				return fmt.Errorf("favorite service: add favorite: %w", txErr)
			}
			favorited = true
			return recordActivity(tx, nodeID, &userID, models.ActionFavorite, nil)

		default:
			return fmt.Errorf("favorite service: lookup favorite: %w", txErr)
		}
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// IsFavorite reports whether the user has favorited the node.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, nodeID uint64) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND node_id = ?", userID, nodeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("favorite service: check favorite: %w", err)
	}
	return count > 0, nil
}
