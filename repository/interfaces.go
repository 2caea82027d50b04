// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/bemyval/valentine-api/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for user accounts
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUUID(ctx context.Context, uuid string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint) error
}

// UserSessionRepository defines operations for user sessions
type UserSessionRepository interface {
	Repository[models.UserSession, models.UserSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.UserSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.UserSession, error)
	ListActiveSessionsByUser(ctx context.Context, userID uint) ([]*models.UserSession, error)
	ExpireSession(ctx context.Context, sessionID uint) error
	ExpireAllUserSessions(ctx context.Context, userID uint) error
	CleanupExpiredSessions(ctx context.Context) error
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.UserSession, error)
}

// ValentineStats aggregates a creator's dashboard numbers
type ValentineStats struct {
	Total      int64 `json:"total"`
	TotalViews int64 `json:"total_views"`
	Accepted   int64 `json:"accepted"`
	Rejected   int64 `json:"rejected"`
}

// ValentineRepository defines operations for valentine pages
type ValentineRepository interface {
	Repository[models.Valentine, models.ValentineFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Valentine, error)
	ByCustomURL(ctx context.Context, customURL string) (*models.Valentine, error)
	ExistsByCustomURL(ctx context.Context, customURL string) (bool, error)
	ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]*models.Valentine, error)
	IncrementViews(ctx context.Context, id uint) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	DeleteByUUIDAndCreator(ctx context.Context, uuid string, creatorID uint) (*models.Valentine, error)
	StatsByCreator(ctx context.Context, creatorID uint) (*ValentineStats, error)
}

// ValentineResponseRepository defines operations for submitted answers
type ValentineResponseRepository interface {
	Repository[models.ValentineResponse, models.ValentineResponseFilter]
	ListByValentine(ctx context.Context, valentineID uint, limit, offset int) ([]*models.ValentineResponse, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
