package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
)

// AutoMigrate creates or updates the database schema for all drive models.
// Order matters: nodes before their satellites and weak referents.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Node{},
		&models.FolderDetail{},
		&models.FileDetail{},
		&models.NodePath{},
		&models.Tag{},
		&models.NodeTag{},
		&models.Favorite{},
		&models.Activity{},
	)
}
