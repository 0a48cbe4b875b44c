// Package models contains database model definitions.
package models

import "time"

// Organization represents a tenant. Every identity, member, suggestion and
// audit entry is scoped to exactly one organization.
type Organization struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"unique;size:255;not null"`
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
