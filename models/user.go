// Package models contains the database entities for the valentine service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered creator account
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID         uuid.UUID  `json:"uuid" gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid"`
	FirstName    string     `json:"first_name" gorm:"size:100;not null"`
	LastName     string     `json:"last_name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:255;not null;uniqueIndex:uk_users_email"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	IsActive     *bool      `json:"is_active" gorm:"default:true;index:idx_users_is_active"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"`
	LastLoginAt  *time.Time `json:"last_login_at" gorm:"index:idx_users_last_login"`

	// Relations
	Sessions   []UserSession `json:"sessions,omitempty" gorm:"foreignKey:UserID"`
	Valentines []Valentine   `json:"valentines,omitempty" gorm:"foreignKey:CreatorID"`
	AuditLogs  []AuditLog    `json:"audit_logs,omitempty" gorm:"foreignKey:UserID"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName returns the user's full name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID          *uint      `json:"id"`
	UUID        *uuid.UUID `json:"uuid"`
	Email       *string    `json:"email"`
	IsActive    *bool      `json:"is_active"`
	CreatedAt   *time.Time `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}
