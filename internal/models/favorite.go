package models

import "time"

// Favorite bookmarks a node for a user. One row per (user, node) pair.
// Rows cascade away with their node; the user id is an external reference
// with no foreign key of its own.
type Favorite struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uq_user_node" json:"user_id"`
	NodeID    uint64    `gorm:"not null;uniqueIndex:uq_user_node;index" json:"node_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:-" json:"-"`
	Node *Node `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE" json:"-"`
}
