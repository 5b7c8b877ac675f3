package models

import "time"

// Tag is a named label that can be attached to any number of nodes.
type Tag struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Color     *string   `gorm:"size:24" json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Nodes []Node `gorm:"many2many:node_tags;" json:"-"`
}

// NodeTag is the node<->tag join row. The composite primary key prevents
// duplicate pairs.
type NodeTag struct {
	NodeID uint64 `gorm:"primaryKey" json:"node_id"`
	TagID  uint64 `gorm:"primaryKey" json:"tag_id"`

	Node *Node `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE" json:"-"`
	Tag  *Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName matches the many2many table used by Node.Tags.
func (NodeTag) TableName() string { return "node_tags" }
