// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/utils"
	"github.com/stretchr/testify/assert"
)

func TestUserModel(t *testing.T) {
	t.Run("TableName", func(t *testing.T) {
		assert.Equal(t, "users", models.User{}.TableName())
	})

	t.Run("FullName", func(t *testing.T) {
		user := &models.User{FirstName: "Sarah", LastName: "Connor"}
		assert.Equal(t, "Sarah Connor", user.FullName())
	})
}

func TestUserSessionModel(t *testing.T) {
	t.Run("TableName", func(t *testing.T) {
		assert.Equal(t, "user_sessions", models.UserSession{}.TableName())
	})

	t.Run("Expired", func(t *testing.T) {
		live := &models.UserSession{ExpiresAt: time.Now().Add(time.Hour)}
		assert.False(t, live.Expired())

		stale := &models.UserSession{ExpiresAt: time.Now().Add(-time.Hour)}
		assert.True(t, stale.Expired())
	})

	t.Run("Valid", func(t *testing.T) {
		session := &models.UserSession{
			IsActive:  utils.ToPtr(true),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		assert.True(t, session.Valid())

		session.IsActive = utils.ToPtr(false)
		assert.False(t, session.Valid())

		session.IsActive = utils.ToPtr(true)
		session.ExpiresAt = time.Now().Add(-time.Minute)
		assert.False(t, session.Valid())
	})
}

func TestValentineModel(t *testing.T) {
	t.Run("TableName", func(t *testing.T) {
		assert.Equal(t, "valentines", models.Valentine{}.TableName())
	})

	t.Run("StatusConstants", func(t *testing.T) {
		assert.Equal(t, "pending", models.ValentineStatusPending)
		assert.Equal(t, "accepted", models.ValentineStatusAccepted)
		assert.Equal(t, "rejected", models.ValentineStatusRejected)
	})

	t.Run("DefaultQuestion", func(t *testing.T) {
		assert.Equal(t, "Will You Be My Valentine?", models.DefaultQuestion)
	})

	t.Run("Answered", func(t *testing.T) {
		v := &models.Valentine{Status: models.ValentineStatusPending}
		assert.False(t, v.Answered())

		v.Status = models.ValentineStatusAccepted
		assert.True(t, v.Answered())

		v.Status = models.ValentineStatusRejected
		assert.True(t, v.Answered())
	})
}

func TestValentineResponseModel(t *testing.T) {
	t.Run("TableName", func(t *testing.T) {
		assert.Equal(t, "valentine_responses", models.ValentineResponse{}.TableName())
	})
}

func TestAuditLogModel(t *testing.T) {
	t.Run("TableName", func(t *testing.T) {
		assert.Equal(t, "audit_log", models.AuditLog{}.TableName())
	})

	t.Run("IsFailed", func(t *testing.T) {
		entry := &models.AuditLog{Success: utils.ToPtr(false)}
		assert.True(t, entry.IsFailed())

		entry.Success = utils.ToPtr(true)
		assert.False(t, entry.IsFailed())

		entry.Success = nil
		assert.False(t, entry.IsFailed())
	})

	t.Run("IsSecurityEvent", func(t *testing.T) {
		entry := &models.AuditLog{Action: models.AuditActionLoginFailed}
		assert.True(t, entry.IsSecurityEvent())

		entry.Action = models.AuditActionValentineCreated
		assert.False(t, entry.IsSecurityEvent())
	})
}
