package models

// NodePath is the closure-table row set: one row per (ancestor, descendant)
// pair including self at depth 0. It is maintained transactionally alongside
// the string path and drives subtree queries without LIKE scans.
type NodePath struct {
	AncestorID   uint64 `gorm:"primaryKey;autoIncrement:false" json:"ancestor_id"`
	DescendantID uint64 `gorm:"primaryKey;autoIncrement:false;index:idx_desc_depth" json:"descendant_id"`
	Depth        int    `gorm:"not null;index:idx_desc_depth" json:"depth"`

	Ancestor   *Node `gorm:"foreignKey:AncestorID;constraint:OnDelete:CASCADE" json:"-"`
	Descendant *Node `gorm:"foreignKey:DescendantID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the closure table name explicit.
func (NodePath) TableName() string { return "node_paths" }
