// Package tests contains integration tests for the valentine service flows
package tests

import (
	"context"
	"testing"

	"github.com/bemyval/valentine-api/app/dto"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	testingutil "github.com/bemyval/valentine-api/testing"
	"github.com/bemyval/valentine-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		userRepo := repository.NewUserRepository(testDB.DB)
		sessionRepo := repository.NewUserSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newTestTokenService(t)

		loginFlow := businessflow.NewLoginFlow(
			userRepo,
			sessionRepo,
			auditRepo,
			tokenService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("SuccessfulLogin", func(t *testing.T) {
			req := &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123!",
			}

			result, err := loginFlow.Login(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, user.Email, result.User.Email)
			assert.NotEmpty(t, result.Session.SessionToken)

			// Last login must be recorded
			refreshed, err := userRepo.ByID(context.Background(), user.ID)
			require.NoError(t, err)
			assert.NotNil(t, refreshed.LastLoginAt)

			// Audit log must record the success
			logs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				UserID: &user.ID,
				Action: utils.ToPtr(models.AuditActionLoginSuccessful),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			req := &dto.LoginRequest{
				Email:    user.Email,
				Password: "WrongPass123!",
			}

			_, err := loginFlow.Login(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))

			logs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				UserID: &user.ID,
				Action: utils.ToPtr(models.AuditActionLoginFailed),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		t.Run("UnknownEmail", func(t *testing.T) {
			req := &dto.LoginRequest{
				Email:    "nobody@example.com",
				Password: "TestPass123!",
			}

			_, err := loginFlow.Login(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("InactiveAccount", func(t *testing.T) {
			inactive, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(&models.User{}).
				Where("id = ?", inactive.ID).
				Update("is_active", false).Error)

			req := &dto.LoginRequest{
				Email:    inactive.Email,
				Password: "TestPass123!",
			}

			_, err = loginFlow.Login(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRefreshTokenFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		userRepo := repository.NewUserRepository(testDB.DB)
		sessionRepo := repository.NewUserSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newTestTokenService(t)

		loginFlow := businessflow.NewLoginFlow(
			userRepo,
			sessionRepo,
			auditRepo,
			tokenService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		login, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
			Email:    user.Email,
			Password: "TestPass123!",
		}, metadata)
		require.NoError(t, err)
		require.NotNil(t, login.Session.RefreshToken)

		t.Run("SuccessfulRefresh", func(t *testing.T) {
			result, err := loginFlow.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
				RefreshToken: *login.Session.RefreshToken,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, user.Email, result.User.Email)
			assert.NotEqual(t, login.Session.SessionToken, result.Session.SessionToken)
		})

		t.Run("UsedRefreshTokenRejected", func(t *testing.T) {
			// The old session was retired by the first refresh
			_, err := loginFlow.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
				RefreshToken: *login.Session.RefreshToken,
			}, metadata)
			require.Error(t, err)
		})

		t.Run("GarbageTokenRejected", func(t *testing.T) {
			_, err := loginFlow.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
				RefreshToken: "not-a-real-token",
			}, metadata)
			require.Error(t, err)
		})

		t.Run("EmptyTokenRejected", func(t *testing.T) {
			_, err := loginFlow.RefreshToken(context.Background(), &dto.RefreshTokenRequest{}, metadata)
			require.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
