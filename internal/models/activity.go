package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityAction enumerates the auditable drive actions.
type ActivityAction string

const (
	ActionCreate     ActivityAction = "create"
	ActionRename     ActivityAction = "rename"
	ActionMove       ActivityAction = "move"
	ActionCopy       ActivityAction = "copy"
	ActionDelete     ActivityAction = "delete" // soft delete (trash)
	ActionRestore    ActivityAction = "restore"
	ActionUpload     ActivityAction = "upload"
	ActionDownload   ActivityAction = "download"
	ActionFavorite   ActivityAction = "favorite"
	ActionUnfavorite ActivityAction = "unfavorite"
)

// Activity is an append-only audit row for a node. Rows are never updated;
// they only disappear when their node is permanently deleted.
type Activity struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	NodeID    uint64         `gorm:"not null;index" json:"node_id"`
	UserID    *uint64        `gorm:"index" json:"user_id"`
	Action    ActivityAction `gorm:"type:varchar(16);not null;index:idx_action_created" json:"action"`
	Meta      datatypes.JSON `json:"meta"`
	CreatedAt time.Time      `gorm:"index:idx_action_created" json:"created_at"`

	Node *Node `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:-" json:"user,omitempty"`
}

// Description returns a human readable label for the action.
func (a *Activity) Description() string {
	switch a.Action {
	case ActionCreate:
		return "Created"
	case ActionRename:
		return "Renamed"
	case ActionMove:
		return "Moved"
	case ActionCopy:
		return "Copied"
	case ActionDelete:
		return "Deleted"
	case ActionRestore:
		return "Restored"
	case ActionUpload:
		return "Uploaded"
	case ActionDownload:
		return "Downloaded"
	case ActionFavorite:
		return "Favorited"
	case ActionUnfavorite:
		return "Unfavorited"
	default:
		return string(a.Action)
	}
}
