package models

import "time"

// FolderDetail carries folder-only attributes, 1:1 with a Node of kind folder.
// It is created in the same transaction as its Node and removed when the Node
// is permanently deleted.
type FolderDetail struct {
	NodeID         uint64    `gorm:"primaryKey" json:"node_id"`
	CoverReference *string   `gorm:"size:512" json:"cover_reference"`
	Color          *string   `gorm:"size:24" json:"color"`
	Icon           *string   `gorm:"size:64" json:"icon"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Node *Node `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the satellite table name explicit.
func (FolderDetail) TableName() string { return "folder_details" }
