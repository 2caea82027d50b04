// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToUserDTO converts a user model to UserDTO for authentication responses
func ToUserDTO(user models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func ToUserSessionDTO(session models.UserSession) dto.UserSessionDTO {
	return dto.UserSessionDTO{
		SessionToken: session.SessionToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(time.Until(session.ExpiresAt).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToValentineDTO converts a valentine model to its owner-facing DTO
func ToValentineDTO(v models.Valentine) dto.ValentineDTO {
	return dto.ValentineDTO{
		UUID:        v.UUID.String(),
		CustomURL:   v.CustomURL,
		Name:        v.Name,
		From:        v.From,
		Message:     v.Message,
		PhoneNumber: v.PhoneNumber,
		Question:    v.Question,
		Images:      []string(v.Images),
		Status:      v.Status,
		Views:       v.Views,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   v.UpdatedAt.Format(time.RFC3339),
	}
}

// ToPublicValentineDTO converts a valentine model to the visitor-facing DTO.
// Creator identity and the phone number are not exposed.
func ToPublicValentineDTO(v models.Valentine) dto.PublicValentineDTO {
	return dto.PublicValentineDTO{
		CustomURL: v.CustomURL,
		Name:      v.Name,
		From:      v.From,
		Message:   v.Message,
		Question:  v.Question,
		Images:    []string(v.Images),
		Status:    v.Status,
		Views:     v.Views,
	}
}

// ToValentineResponseDTO converts a stored answer to its DTO
func ToValentineResponseDTO(r models.ValentineResponse) dto.ValentineResponseDTO {
	return dto.ValentineResponseDTO{
		Response:    r.Response,
		RespondedAt: r.RespondedAt.Format(time.RFC3339),
	}
}
