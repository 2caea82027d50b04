// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/services"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	"github.com/bemyval/valentine-api/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginFlow handles user authentication operations
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.UserSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	userRepo repository.UserRepository,
	sessionRepo repository.UserSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Login authenticates a user with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	// Validate business rules
	if err := lf.validateLoginRequest(ctx, request); err != nil {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", err)
	}

	var user *models.User

	// Start transaction for login process
	resp, err := lf.WithAuthTransaction(ctx, func(ctx context.Context) (*dto.AuthResponse, error) {
		var err error
		user, err = lf.FindUserByEmail(ctx, request.Email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		// Check if account is active
		if !utils.IsTrue(user.IsActive) {
			return nil, ErrAccountInactive
		}

		// Verify password
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		// Create new session
		session, err := lf.CreateSession(ctx, user.ID, metadata)
		if err != nil {
			return nil, err
		}

		if err := lf.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
			return nil, err
		}

		return &dto.AuthResponse{
			User:    ToUserDTO(*user),
			Session: ToUserSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = lf.LogLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	} else {
		msg := fmt.Sprintf("User logged in successfully: %d", resp.User.ID)
		_ = lf.LogLoginAttempt(ctx, user, models.AuditActionLoginSuccessful, msg, true, nil, metadata)
	}

	return resp, nil
}

// RefreshToken exchanges a valid refresh token for a fresh session
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if request.RefreshToken == "" {
		return nil, NewBusinessError("REFRESH_VALIDATION_FAILED", "Refresh token is required", ErrUserNotFound)
	}

	var user *models.User

	resp, err := lf.WithAuthTransaction(ctx, func(ctx context.Context) (*dto.AuthResponse, error) {
		session, err := lf.sessionRepo.ByRefreshToken(ctx, request.RefreshToken)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrUserNotFound
		}

		user, err = lf.userRepo.ByID(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		if !utils.IsTrue(user.IsActive) {
			return nil, ErrAccountInactive
		}

		// Retire the old session and issue a new one
		if err := lf.sessionRepo.ExpireSession(ctx, session.ID); err != nil {
			return nil, err
		}

		newSession, err := lf.CreateSession(ctx, user.ID, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.AuthResponse{
			User:    ToUserDTO(*user),
			Session: ToUserSessionDTO(*newSession),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Token refresh failed: %s", err.Error())
		_ = lf.LogLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}

	return resp, nil
}

// Private helper methods

func (lf *LoginFlowImpl) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)

	filter := models.UserFilter{
		Email: &email,
	}
	users, err := lf.userRepo.ByFilter(ctx, filter, "id DESC", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		// Return the most recent record (latest ID)
		return users[0], nil
	}

	return nil, nil
}

func (lf *LoginFlowImpl) CreateSession(ctx context.Context, userID uint, metadata *ClientMetadata) (*models.UserSession, error) {
	// Generate tokens
	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(userID)
	if err != nil {
		return nil, err
	}

	// Calculate expiry time using constant
	expiresAt := utils.UTCNowAdd(utils.SessionTimeout)

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	// Create session record
	session := &models.UserSession{
		UserID:        userID,
		CorrelationID: uuid.New(),
		SessionToken:  accessToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     expiresAt,
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = lf.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (lf *LoginFlowImpl) LogLoginAttempt(ctx context.Context, user *models.User, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var userID *uint
	if user != nil {
		userID = &user.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return lf.auditRepo.Save(ctx, audit)
}

func (lf *LoginFlowImpl) WithAuthTransaction(ctx context.Context, fn func(context.Context) (*dto.AuthResponse, error)) (*dto.AuthResponse, error) {
	var result *dto.AuthResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (lf *LoginFlowImpl) validateLoginRequest(ctx context.Context, request *dto.LoginRequest) error {
	// Validate email is not empty
	if request.Email == "" {
		return ErrUserNotFound
	}

	// Validate password is not empty
	if request.Password == "" {
		return ErrIncorrectPassword
	}

	return nil
}
