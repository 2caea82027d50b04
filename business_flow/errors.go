// Package businessflow contains the core business logic and use cases for the valentine service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Valentine-related errors
	ErrValentineNotFound       = errors.New("valentine not found")
	ErrValentineAccessDenied   = errors.New("valentine access denied")
	ErrSlugTaken               = errors.New("custom URL is already taken")
	ErrSlugGenerationExhausted = errors.New("could not generate a unique custom URL")
	ErrNameRequired            = errors.New("recipient name is required")
	ErrMessageTooLong          = errors.New("message is too long")
	ErrTooManyImages           = errors.New("too many images attached")
	ErrInvalidResponseKind     = errors.New("response must be accepted or rejected")

	// Upload-related errors
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrImageTooLarge        = errors.New("image exceeds the maximum upload size")

	// Cache errors
	ErrCacheNotAvailable = errors.New("cache not available")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsValentineNotFound(err error) bool {
	return errors.Is(err, ErrValentineNotFound)
}

func IsValentineAccessDenied(err error) bool {
	return errors.Is(err, ErrValentineAccessDenied)
}

func IsSlugTaken(err error) bool {
	return errors.Is(err, ErrSlugTaken)
}

func IsSlugGenerationExhausted(err error) bool {
	return errors.Is(err, ErrSlugGenerationExhausted)
}

func IsNameRequired(err error) bool {
	return errors.Is(err, ErrNameRequired)
}

func IsMessageTooLong(err error) bool {
	return errors.Is(err, ErrMessageTooLong)
}

func IsTooManyImages(err error) bool {
	return errors.Is(err, ErrTooManyImages)
}

func IsInvalidResponseKind(err error) bool {
	return errors.Is(err, ErrInvalidResponseKind)
}

func IsUnsupportedImageType(err error) bool {
	return errors.Is(err, ErrUnsupportedImageType)
}

func IsImageTooLarge(err error) bool {
	return errors.Is(err, ErrImageTooLarge)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
