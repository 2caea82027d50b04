// Package models contains the database entities for the valentine service.
package models

import (
	"time"
)

// ValentineResponse is one answer submitted on a valentine page. Visitors may
// answer more than once; every answer is kept.
type ValentineResponse struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ValentineID uint      `gorm:"not null;index:idx_valentine_responses_valentine_id" json:"valentine_id"`
	Valentine   Valentine `gorm:"foreignKey:ValentineID;references:ID" json:"valentine,omitempty"`
	Response    string    `gorm:"size:20;not null" json:"response"`
	RespondedAt time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_valentine_responses_responded_at" json:"responded_at"`
}

func (ValentineResponse) TableName() string {
	return "valentine_responses"
}

// ValentineResponseFilter represents filter criteria for response queries
type ValentineResponseFilter struct {
	ID              *uint
	ValentineID     *uint
	Response        *string
	RespondedAfter  *time.Time
	RespondedBefore *time.Time
}
