// Package testing provides test utilities and database setup for testing the valentine service
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user with a known password ("TestPass123!")
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", mrand.Intn(900000000)+100000000)

	user := &models.User{
		UUID:         uuid.New(),
		FirstName:    "John",
		LastName:     "Doe",
		Email:        fmt.Sprintf("john.doe.%s@example.com", randomDigits),
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	err = tf.DB.DB.Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestValentine creates a valentine page owned by the given user
func (tf *TestFixtures) CreateTestValentine(creatorID uint, customURL string) (*models.Valentine, error) {
	message := "Roses are red"
	from := "Your secret admirer"

	valentine := &models.Valentine{
		UUID:      uuid.New(),
		CreatorID: creatorID,
		CustomURL: customURL,
		Name:      "Jane",
		From:      &from,
		Message:   &message,
		Question:  models.DefaultQuestion,
		Status:    models.ValentineStatusPending,
	}

	err := tf.DB.DB.Create(valentine).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test valentine: %w", err)
	}

	return valentine, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates a test user session
func (tf *TestFixtures) CreateTestSession(userID uint) (*models.UserSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.UserSession{
		CorrelationID: uuid.New(),
		UserID:        userID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = tf.DB.DB.Create(session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(userID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	err := tf.DB.DB.Create(audit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateMultipleTestUsers creates several users with unique emails
func (tf *TestFixtures) CreateMultipleTestUsers(count int) ([]*models.User, error) {
	var users []*models.User
	for i := 0; i < count; i++ {
		user, err := tf.CreateTestUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}
