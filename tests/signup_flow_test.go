package tests

import (
	"context"
	"testing"
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/services"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	testingutil "github.com/bemyval/valentine-api/testing"
	"github.com/bemyval/valentine-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()
	tokenService, err := services.NewTokenService(
		1*time.Hour,
		24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-that-is-long-enough-123",
	)
	require.NoError(t, err)
	return tokenService
}

func TestSignup(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		userRepo := repository.NewUserRepository(testDB.DB)
		sessionRepo := repository.NewUserSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newTestTokenService(t)

		signupFlow := businessflow.NewSignupFlow(
			userRepo,
			sessionRepo,
			auditRepo,
			tokenService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulSignup", func(t *testing.T) {
			req := &dto.SignupRequest{
				FirstName:       "Sarah",
				LastName:        "Connor",
				Email:           "sarah.connor@example.com",
				Password:        "SecurePass123!",
				ConfirmPassword: "SecurePass123!",
			}

			result, err := signupFlow.Signup(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, "sarah.connor@example.com", result.User.Email)
			assert.Equal(t, "Sarah", result.User.FirstName)
			assert.NotEmpty(t, result.User.UUID)
			assert.NotEmpty(t, result.Session.SessionToken)
			require.NotNil(t, result.Session.RefreshToken)
			assert.NotEmpty(t, *result.Session.RefreshToken)
			assert.Equal(t, "Bearer", result.Session.TokenType)

			// Verify user was persisted with a hashed password
			user, err := userRepo.ByEmail(context.Background(), "sarah.connor@example.com")
			require.NoError(t, err)
			require.NotNil(t, user)
			assert.True(t, utils.IsTrue(user.IsActive))
			assert.NotEqual(t, "SecurePass123!", user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("SecurePass123!")))

			// Verify a session exists
			sessions, err := sessionRepo.ByFilter(context.Background(), models.UserSessionFilter{
				UserID: &user.ID,
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, sessions, 1)
			assert.True(t, sessions[0].Valid())
			assert.WithinDuration(t, utils.UTCNowAdd(utils.SessionTimeout), sessions[0].ExpiresAt, time.Minute)

			// Verify audit log was created
			auditLogs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				UserID: &user.ID,
				Action: utils.ToPtr(models.AuditActionSignupCompleted),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, auditLogs, 1)
			assert.True(t, utils.IsTrue(auditLogs[0].Success))
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			req := &dto.SignupRequest{
				FirstName:       "Sarah",
				LastName:        "Connor",
				Email:           "sarah.connor@example.com",
				Password:        "SecurePass123!",
				ConfirmPassword: "SecurePass123!",
			}

			_, err := signupFlow.Signup(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("IssuedTokenIsValid", func(t *testing.T) {
			req := &dto.SignupRequest{
				FirstName:       "Kyle",
				LastName:        "Reese",
				Email:           "kyle.reese@example.com",
				Password:        "SecurePass123!",
				ConfirmPassword: "SecurePass123!",
			}

			result, err := signupFlow.Signup(context.Background(), req, metadata)
			require.NoError(t, err)

			claims, err := tokenService.ValidateToken(result.Session.SessionToken)
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, claims.UserID)
			assert.Equal(t, "access", claims.TokenType)
		})

		return nil
	})
	require.NoError(t, err)
}
