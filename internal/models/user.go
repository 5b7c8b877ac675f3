package models

import "time"

// User is the local projection of the admin shell's user directory. The drive
// core treats user ids as opaque references; authentication and role
// management live outside this service.
type User struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"size:128;not null;uniqueIndex" json:"username"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	Email       string    `gorm:"size:255;index" json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
