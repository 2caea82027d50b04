package businessflow

import (
	"context"
	"fmt"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	"github.com/bemyval/valentine-api/utils"
	"gorm.io/gorm"
)

// VisitFlow resolves a valentine page by its custom URL and tracks visitor
// activity. Public flows, no authentication required.
type VisitFlow interface {
	Visit(ctx context.Context, customURL string) (*dto.PublicValentineDTO, error)
	SubmitResponse(ctx context.Context, customURL string, req *dto.SubmitResponseRequest, metadata *ClientMetadata) (*dto.PublicValentineDTO, error)
}

type VisitFlowImpl struct {
	valentineRepo repository.ValentineRepository
	responseRepo  repository.ValentineResponseRepository
	auditRepo     repository.AuditLogRepository
	db            *gorm.DB
}

func NewVisitFlow(
	valentineRepo repository.ValentineRepository,
	responseRepo repository.ValentineResponseRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) VisitFlow {
	return &VisitFlowImpl{
		valentineRepo: valentineRepo,
		responseRepo:  responseRepo,
		auditRepo:     auditRepo,
		db:            db,
	}
}

// Visit returns the page and counts the view. The increment is a single
// atomic UPDATE so concurrent visits never lose counts.
func (f *VisitFlowImpl) Visit(ctx context.Context, customURL string) (*dto.PublicValentineDTO, error) {
	row, err := f.valentineRepo.ByCustomURL(ctx, customURL)
	if err != nil {
		return nil, NewBusinessError("VALENTINE_LOOKUP_FAILED", "Failed to lookup valentine", err)
	}
	if row == nil {
		return nil, ErrValentineNotFound
	}

	if err := f.valentineRepo.IncrementViews(ctx, row.ID); err != nil {
		return nil, NewBusinessError("VALENTINE_TRACK_FAILED", "Failed to track valentine view", err)
	}
	row.Views++

	out := ToPublicValentineDTO(*row)
	return &out, nil
}

// SubmitResponse appends the answer and moves the page status in one
// transaction. Visitors may answer as often as they like; the status always
// reflects the latest answer.
func (f *VisitFlowImpl) SubmitResponse(ctx context.Context, customURL string, req *dto.SubmitResponseRequest, metadata *ClientMetadata) (*dto.PublicValentineDTO, error) {
	if req.Response != models.ValentineStatusAccepted && req.Response != models.ValentineStatusRejected {
		return nil, NewBusinessError("INVALID_RESPONSE", "Response must be accepted or rejected", ErrInvalidResponseKind)
	}

	var row *models.Valentine

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		row, err = f.valentineRepo.ByCustomURL(txCtx, customURL)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrValentineNotFound
		}

		response := &models.ValentineResponse{
			ValentineID: row.ID,
			Response:    req.Response,
			RespondedAt: utils.UTCNow(),
		}
		if err := f.responseRepo.Save(txCtx, response); err != nil {
			return err
		}

		if err := f.valentineRepo.UpdateStatus(txCtx, row.ID, req.Response); err != nil {
			return err
		}
		row.Status = req.Response

		return nil
	})

	if err != nil {
		if IsValentineNotFound(err) {
			return nil, err
		}
		errMsg := fmt.Sprintf("Response submission failed: %s", err.Error())
		_ = f.createAuditLog(ctx, row, models.AuditActionValentineResponseSubmitted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("RESPONSE_SUBMIT_FAILED", "Response submission failed", err)
	}

	msg := fmt.Sprintf("Response %q submitted for valentine %s", req.Response, row.UUID)
	_ = f.createAuditLog(ctx, row, models.AuditActionValentineResponseSubmitted, msg, true, nil, metadata)

	out := ToPublicValentineDTO(*row)
	return &out, nil
}

func (f *VisitFlowImpl) createAuditLog(ctx context.Context, row *models.Valentine, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	var userID *uint
	if row != nil {
		userID = &row.CreatorID
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
		ErrorMessage: errorMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return f.auditRepo.Save(ctx, audit)
}
