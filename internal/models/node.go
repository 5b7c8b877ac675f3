package models

import (
	"strconv"
	"strings"
	"time"
)

// NodeKind discriminates folders from files. It is immutable after creation.
type NodeKind string

const (
	NodeKindFolder NodeKind = "folder"
	NodeKindFile   NodeKind = "file"
)

// Node is a single entry in the drive hierarchy. Folders and files share the
// same table; kind-specific attributes live in FolderDetail / FileDetail.
//
// Path is the materialized ancestor chain, e.g. "/1/5/18/" for a node whose
// ancestors are 1 -> 5 -> 18. Root nodes have path "/". Depth always equals
// the number of path segments. Both are computed by the node store on create
// and on reparent, never by save-time hooks.
type Node struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      NodeKind   `gorm:"type:varchar(16);not null;index" json:"kind"`
	Name      string     `gorm:"size:255;not null;uniqueIndex:uq_parent_name_trash" json:"name"`
	Slug      string     `gorm:"size:255;index" json:"slug"`
	ParentID  *uint64    `gorm:"index;uniqueIndex:uq_parent_name_trash" json:"parent_id"`
	Path      string     `gorm:"size:2048;not null;index" json:"path"`
	Depth     int        `gorm:"not null;default:0;index" json:"depth"`
	Position  int        `gorm:"not null;default:0" json:"position"`
	IsTrashed bool       `gorm:"not null;default:false;index;uniqueIndex:uq_parent_name_trash" json:"is_trashed"`
	TrashedAt *time.Time `json:"trashed_at"`
	// Actor ids come from the external user directory and are stored as
	// plain references; no foreign key binds them to the local users table.
	CreatedBy *uint64    `gorm:"index" json:"created_by"`
	UpdatedBy *uint64    `json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Parent  *Node         `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Folder  *FolderDetail `gorm:"foreignKey:NodeID" json:"folder,omitempty"`
	File    *FileDetail   `gorm:"foreignKey:NodeID" json:"file,omitempty"`
	Creator *User         `gorm:"foreignKey:CreatedBy;constraint:-" json:"creator,omitempty"`
	Updater *User         `gorm:"foreignKey:UpdatedBy;constraint:-" json:"-"`
	Tags    []Tag         `gorm:"many2many:node_tags;" json:"tags,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Kind == NodeKindFolder
}

// IsFile reports whether the node is a file.
func (n *Node) IsFile() bool {
	return n.Kind == NodeKindFile
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// SubtreePrefix returns the path prefix shared by every descendant of the
// node, e.g. "/1/5/" for node 5 under root node 1.
func (n *Node) SubtreePrefix() string {
	return n.Path + strconv.FormatUint(n.ID, 10) + "/"
}

// PathIDs parses the materialized path into its ordered ancestor ids,
// root first. A root node yields an empty slice.
func (n *Node) PathIDs() ([]uint64, error) {
	trimmed := strings.Trim(n.Path, "/")
	if trimmed == "" {
		return nil, nil
	}

	segments := strings.Split(trimmed, "/")
	ids := make([]uint64, 0, len(segments))
	for _, segment := range segments {
		id, err := strconv.ParseUint(segment, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
