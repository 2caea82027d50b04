// Package models contains the database entities for the valentine service.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Valentine page status values
const (
	ValentineStatusPending  = "pending"
	ValentineStatusAccepted = "accepted"
	ValentineStatusRejected = "rejected"
)

// DefaultQuestion is used when the creator does not supply one
const DefaultQuestion = "Will You Be My Valentine?"

// Valentine represents a shareable valentine page reachable under its custom URL
type Valentine struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_valentines_uuid" json:"uuid"`
	CreatorID   uint           `gorm:"not null;index:idx_valentines_creator_id" json:"creator_id"`
	Creator     User           `gorm:"foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	CustomURL   string         `gorm:"size:64;not null;uniqueIndex:uk_valentines_custom_url" json:"custom_url"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	From        *string        `gorm:"size:100" json:"from,omitempty"`
	Message     *string        `gorm:"type:text" json:"message,omitempty"`
	PhoneNumber *string        `gorm:"size:20" json:"phone_number,omitempty"`
	Question    string         `gorm:"size:255;not null" json:"question"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
	Status      string         `gorm:"size:20;not null;default:'pending';index:idx_valentines_status" json:"status"`
	Views       int64          `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time      `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_valentines_created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	Responses []ValentineResponse `gorm:"foreignKey:ValentineID" json:"responses,omitempty"`
}

func (Valentine) TableName() string {
	return "valentines"
}

// Answered reports whether the page has received at least one response
func (v *Valentine) Answered() bool {
	return v.Status != ValentineStatusPending
}

// ValentineFilter represents filter criteria for valentine queries
type ValentineFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CreatorID     *uint
	CustomURL     *string
	Name          *string
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
