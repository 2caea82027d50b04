// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CreateValentineRequest represents the request payload for creating a valentine page
type CreateValentineRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100" example:"Sarah"`
	From        *string  `json:"from,omitempty" validate:"omitempty,max=100" example:"John"`
	Message     *string  `json:"message,omitempty" validate:"omitempty,max=2000" example:"Roses are red..."`
	PhoneNumber *string  `json:"phone_number,omitempty" validate:"omitempty,max=20" example:"+15551234567"`
	Question    *string  `json:"question,omitempty" validate:"omitempty,max=255" example:"Will You Be My Valentine?"`
	CustomURL   *string  `json:"custom_url,omitempty" validate:"omitempty,max=64" example:"sarah-and-john"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=3,dive,url" example:"https://cdn.example.com/img/abc.jpg"`
}

// ValentineDTO represents a valentine page as seen by its creator
type ValentineDTO struct {
	UUID        string   `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CustomURL   string   `json:"custom_url" example:"sarah-and-john"`
	Name        string   `json:"name" example:"Sarah"`
	From        *string  `json:"from,omitempty" example:"John"`
	Message     *string  `json:"message,omitempty" example:"Roses are red..."`
	PhoneNumber *string  `json:"phone_number,omitempty" example:"+15551234567"`
	Question    string   `json:"question" example:"Will You Be My Valentine?"`
	Images      []string `json:"images" example:"https://cdn.example.com/img/abc.jpg"`
	Status      string   `json:"status" example:"pending"`
	Views       int64    `json:"views" example:"42"`
	CreatedAt   string   `json:"created_at" example:"2026-01-15T10:30:00Z"`
	UpdatedAt   string   `json:"updated_at" example:"2026-02-14T09:00:00Z"`
}

// PublicValentineDTO represents a valentine page as seen by a visitor.
// The creator and the phone number are never exposed here.
type PublicValentineDTO struct {
	CustomURL string   `json:"custom_url" example:"sarah-and-john"`
	Name      string   `json:"name" example:"Sarah"`
	From      *string  `json:"from,omitempty" example:"John"`
	Message   *string  `json:"message,omitempty" example:"Roses are red..."`
	Question  string   `json:"question" example:"Will You Be My Valentine?"`
	Images    []string `json:"images" example:"https://cdn.example.com/img/abc.jpg"`
	Status    string   `json:"status" example:"pending"`
	Views     int64    `json:"views" example:"42"`
}

// SubmitResponseRequest represents a visitor's answer to the valentine question
type SubmitResponseRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted rejected" example:"accepted"`
}

// ValentineResponseDTO represents one stored answer
type ValentineResponseDTO struct {
	Response    string `json:"response" example:"accepted"`
	RespondedAt string `json:"responded_at" example:"2026-02-14T12:00:00Z"`
}

// DashboardStatsDTO aggregates a creator's numbers for the dashboard
type DashboardStatsDTO struct {
	Total      int64 `json:"total" example:"5"`
	TotalViews int64 `json:"total_views" example:"230"`
	Accepted   int64 `json:"accepted" example:"3"`
	Rejected   int64 `json:"rejected" example:"1"`
}

// ListValentinesResponse is the creator dashboard payload
type ListValentinesResponse struct {
	Valentines []ValentineDTO    `json:"valentines"`
	Stats      DashboardStatsDTO `json:"stats"`
}

// Common error codes for valentine operations
const (
	ErrorValentineNotFound       = "VALENTINE_NOT_FOUND"
	ErrorSlugTaken               = "CUSTOM_URL_TAKEN"
	ErrorSlugGenerationExhausted = "CUSTOM_URL_GENERATION_EXHAUSTED"
	ErrorInvalidResponse         = "INVALID_RESPONSE"
)
