package models

import "time"

const (
	RoleAdministrator = "administrator"
	RoleUser          = "user"
)

// Role gates what a user sees: administrators read every scan and label
// record, users only their own.
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}

// DefaultRoles are seeded on startup and after a sanitize reseed.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdministrator, Description: "full access to all scans and labels"},
		{Name: RoleUser, Description: "scans and confirms own labels"},
	}
}
