// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the request payload for account creation
type SignupRequest struct {
	FirstName       string `json:"first_name" validate:"required,min=1,max=100,alpha_space" example:"Sarah"`
	LastName        string `json:"last_name" validate:"required,min=1,max=100,alpha_space" example:"Connor"`
	Email           string `json:"email" validate:"required,email,max=255" example:"sarah@example.com"`
	Password        string `json:"password" validate:"required,min=8,max=100,password_strength" example:"SecurePass123!"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password" example:"SecurePass123!"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"sarah@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// RefreshTokenRequest represents the request payload for refreshing an access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// UserDTO represents user information returned in auth responses
type UserDTO struct {
	ID        uint   `json:"id" example:"123"`
	UUID      string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email     string `json:"email" example:"sarah@example.com"`
	FirstName string `json:"first_name" example:"Sarah"`
	LastName  string `json:"last_name" example:"Connor"`
	IsActive  *bool  `json:"is_active" example:"true"`
	CreatedAt string `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// UserSessionDTO represents the issued session tokens
type UserSessionDTO struct {
	SessionToken string  `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken *string `json:"refresh_token,omitempty" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn    int     `json:"expires_in" example:"86400"`
	TokenType    string  `json:"token_type" example:"Bearer"`
	CreatedAt    string  `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// AuthResponse bundles the user and session returned by signup and login
type AuthResponse struct {
	User    UserDTO        `json:"user"`
	Session UserSessionDTO `json:"session"`
}

// Common error codes for auth operations
const (
	ErrorUserNotFound       = "USER_NOT_FOUND"
	ErrorIncorrectPassword  = "INCORRECT_PASSWORD"
	ErrorAccountInactive    = "ACCOUNT_INACTIVE"
	ErrorEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
)

// MaskPhoneNumber masks the middle digits of a phone number for security
func MaskPhoneNumber(phone string) string {
	if len(phone) < 8 {
		return phone
	}

	// For numbers like +989123456789, show +9891234*****
	if len(phone) >= 10 {
		return phone[:7] + "*****"
	}

	// For shorter numbers, mask the middle part
	start := len(phone) / 3
	end := len(phone) - start
	masked := phone[:start] + "*****" + phone[end:]
	return masked
}
