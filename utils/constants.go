package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Context keys for request-scoped observability values
const (
	RequestIDKey  = "X-Request-ID"
	UserAgentKey  = "user_agent"
	IPAddressKey  = "ip_address"
	EndpointKey   = "endpoint"
	TimeoutKey    = "timeout"
	CancelFuncKey = "cancel_func"
)

// Valentine page constants
const (
	// MaxCustomURLLength is the maximum length of a visitor-facing page slug
	MaxCustomURLLength = 64

	// MaxValentineImages is the maximum number of images attached to a page
	MaxValentineImages = 3

	// MaxMessageLength is the maximum length of the personal message
	MaxMessageLength = 2000

	// MaxImageUploadBytes is the maximum accepted upload size (5 MB)
	MaxImageUploadBytes = 5 * 1024 * 1024

	// MaxImageDimension is the longest edge kept when downscaling uploads
	MaxImageDimension = 2048
)
