// Package businessflow contains the core business logic and use cases for valentine pages
package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/services"
	"github.com/bemyval/valentine-api/config"
	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/repository"
	"github.com/bemyval/valentine-api/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// maxSlugAttempts bounds the generated-slug retry loop. User-supplied slugs
// are never retried.
const maxSlugAttempts = 5

// ValentineFlow provides the creator-facing use cases for valentine pages
type ValentineFlow interface {
	CreateValentine(ctx context.Context, userID uint, req *dto.CreateValentineRequest, metadata *ClientMetadata) (*dto.ValentineDTO, error)
	ListValentines(ctx context.Context, userID uint, page, pageSize int) (*dto.ListValentinesResponse, error)
	DeleteValentine(ctx context.Context, userID uint, valentineUUID string, metadata *ClientMetadata) error
	ExportValentines(ctx context.Context, userID uint) (string, []byte, error)
}

// ValentineFlowImpl implements the valentine business flow
type ValentineFlowImpl struct {
	valentineRepo repository.ValentineRepository
	responseRepo  repository.ValentineResponseRepository
	auditRepo     repository.AuditLogRepository
	mediaStore    services.MediaStore
	rc            *redis.Client
	cacheConfig   *config.CacheConfig
	db            *gorm.DB
}

// NewValentineFlow creates a new valentine flow instance
func NewValentineFlow(
	valentineRepo repository.ValentineRepository,
	responseRepo repository.ValentineResponseRepository,
	auditRepo repository.AuditLogRepository,
	mediaStore services.MediaStore,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) ValentineFlow {
	return &ValentineFlowImpl{
		valentineRepo: valentineRepo,
		responseRepo:  responseRepo,
		auditRepo:     auditRepo,
		mediaStore:    mediaStore,
		rc:            rc,
		cacheConfig:   cacheConfig,
		db:            db,
	}
}

func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

func statsCacheKey(userID uint) string {
	return "valentine_stats:" + strconv.FormatUint(uint64(userID), 10)
}

// CreateValentine resolves the custom URL and persists the page
func (s *ValentineFlowImpl) CreateValentine(ctx context.Context, userID uint, req *dto.CreateValentineRequest, metadata *ClientMetadata) (*dto.ValentineDTO, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, NewBusinessError("VALENTINE_VALIDATION_FAILED", "Valentine validation failed", err)
	}

	userSupplied := req.CustomURL != nil && SanitizeCustomURL(*req.CustomURL) != ""

	var valentine *models.Valentine
	var err error
	if userSupplied {
		valentine, err = s.createWithUserSlug(ctx, userID, req, SanitizeCustomURL(*req.CustomURL))
	} else {
		valentine, err = s.createWithGeneratedSlug(ctx, userID, req)
	}

	if err != nil {
		errMsg := fmt.Sprintf("Valentine creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &userID, models.AuditActionValentineCreated, errMsg, false, &errMsg, metadata)

		var be *BusinessError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, NewBusinessError("VALENTINE_CREATE_FAILED", "Valentine creation failed", err)
	}

	msg := fmt.Sprintf("Valentine created successfully: %s (%s)", valentine.UUID, valentine.CustomURL)
	_ = s.createAuditLog(ctx, &userID, models.AuditActionValentineCreated, msg, true, nil, metadata)

	s.invalidateStatsCache(ctx, userID)

	out := ToValentineDTO(*valentine)
	return &out, nil
}

// createWithUserSlug inserts with the sanitized slug exactly once. A duplicate
// key from the database means the slug is taken; the caller gets the conflict,
// never a silently altered URL.
func (s *ValentineFlowImpl) createWithUserSlug(ctx context.Context, userID uint, req *dto.CreateValentineRequest, slug string) (*models.Valentine, error) {
	taken, err := s.valentineRepo.ExistsByCustomURL(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewBusinessError("CUSTOM_URL_TAKEN", "Custom URL is already taken", ErrSlugTaken)
	}

	valentine := s.buildValentine(userID, req, slug)
	if err := s.saveValentine(ctx, valentine); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewBusinessError("CUSTOM_URL_TAKEN", "Custom URL is already taken", ErrSlugTaken)
		}
		return nil, err
	}

	return valentine, nil
}

// createWithGeneratedSlug retries with fresh random suffixes up to
// maxSlugAttempts. The unique index stays the final authority; an insert
// losing a race just triggers the next attempt.
func (s *ValentineFlowImpl) createWithGeneratedSlug(ctx context.Context, userID uint, req *dto.CreateValentineRequest) (*models.Valentine, error) {
	lockSlugGen()
	defer unlockSlugGen()

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug, err := GenerateCustomURL(req.Name)
		if err != nil {
			return nil, err
		}

		taken, err := s.valentineRepo.ExistsByCustomURL(ctx, slug)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		valentine := s.buildValentine(userID, req, slug)
		err = s.saveValentine(ctx, valentine)
		if err == nil {
			return valentine, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}

	return nil, NewBusinessError("CUSTOM_URL_GENERATION_EXHAUSTED", "Could not generate a unique custom URL", ErrSlugGenerationExhausted)
}

func (s *ValentineFlowImpl) buildValentine(userID uint, req *dto.CreateValentineRequest, slug string) *models.Valentine {
	question := models.DefaultQuestion
	if req.Question != nil && *req.Question != "" {
		question = *req.Question
	}

	return &models.Valentine{
		UUID:        uuid.New(),
		CreatorID:   userID,
		CustomURL:   slug,
		Name:        req.Name,
		From:        req.From,
		Message:     req.Message,
		PhoneNumber: req.PhoneNumber,
		Question:    question,
		Images:      req.Images,
		Status:      models.ValentineStatusPending,
	}
}

func (s *ValentineFlowImpl) saveValentine(ctx context.Context, valentine *models.Valentine) error {
	return repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.valentineRepo.Save(txCtx, valentine)
	})
}

// ListValentines returns the creator's pages plus dashboard stats. Stats are
// served from redis when fresh; the view counter may lag by up to the cache
// TTL.
func (s *ValentineFlowImpl) ListValentines(ctx context.Context, userID uint, page, pageSize int) (*dto.ListValentinesResponse, error) {
	if page < 1 {
		return nil, NewBusinessError("VALENTINE_LIST_VALIDATION_FAILED", "Invalid page", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("VALENTINE_LIST_VALIDATION_FAILED", "Invalid page size", ErrInvalidPageSize)
	}

	offset := (page - 1) * pageSize
	rows, err := s.valentineRepo.ListByCreator(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("VALENTINE_LIST_FAILED", "Failed to list valentines", err)
	}

	stats, err := s.loadStats(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("VALENTINE_STATS_FAILED", "Failed to load valentine stats", err)
	}

	out := &dto.ListValentinesResponse{
		Valentines: make([]dto.ValentineDTO, 0, len(rows)),
		Stats: dto.DashboardStatsDTO{
			Total:      stats.Total,
			TotalViews: stats.TotalViews,
			Accepted:   stats.Accepted,
			Rejected:   stats.Rejected,
		},
	}
	for _, v := range rows {
		out.Valentines = append(out.Valentines, ToValentineDTO(*v))
	}

	return out, nil
}

func (s *ValentineFlowImpl) loadStats(ctx context.Context, userID uint) (*repository.ValentineStats, error) {
	cacheKey := redisKey(*s.cacheConfig, statsCacheKey(userID))

	if s.rc != nil {
		if bs, err := s.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached repository.ValentineStats
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	stats, err := s.valentineRepo.StatsByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.rc != nil {
		if bs, err := json.Marshal(stats); err == nil {
			_ = s.rc.Set(ctx, cacheKey, bs, s.cacheConfig.DefaultTTL).Err()
		}
	}

	return stats, nil
}

func (s *ValentineFlowImpl) invalidateStatsCache(ctx context.Context, userID uint) {
	if s.rc == nil {
		return
	}
	_ = s.rc.Del(ctx, redisKey(*s.cacheConfig, statsCacheKey(userID))).Err()
}

// DeleteValentine removes the page only when the caller owns it. A missing
// page and someone else's page are indistinguishable to the caller.
func (s *ValentineFlowImpl) DeleteValentine(ctx context.Context, userID uint, valentineUUID string, metadata *ClientMetadata) error {
	if _, err := uuid.Parse(valentineUUID); err != nil {
		return NewBusinessError("VALENTINE_NOT_FOUND", "Valentine not found", ErrValentineNotFound)
	}

	deleted, err := s.valentineRepo.DeleteByUUIDAndCreator(ctx, valentineUUID, userID)
	if err != nil {
		errMsg := fmt.Sprintf("Valentine deletion failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &userID, models.AuditActionValentineDeleted, errMsg, false, &errMsg, metadata)

		return NewBusinessError("VALENTINE_DELETE_FAILED", "Valentine deletion failed", err)
	}
	if deleted == nil {
		return NewBusinessError("VALENTINE_NOT_FOUND", "Valentine not found", ErrValentineNotFound)
	}

	s.deleteStoredImages(ctx, deleted.Images)

	msg := fmt.Sprintf("Valentine deleted successfully: %s", valentineUUID)
	_ = s.createAuditLog(ctx, &userID, models.AuditActionValentineDeleted, msg, true, nil, metadata)

	s.invalidateStatsCache(ctx, userID)

	return nil
}

// deleteStoredImages releases the page's hosted images. Cleanup is best
// effort; the page itself is already gone.
func (s *ValentineFlowImpl) deleteStoredImages(ctx context.Context, urls []string) {
	if s.mediaStore == nil {
		return
	}
	for _, u := range urls {
		key := mediaObjectKey(u)
		if key == "" {
			continue
		}
		if err := s.mediaStore.Delete(ctx, key); err != nil {
			log.Printf("Failed to delete stored image %s: %v", key, err)
		}
	}
}

// mediaObjectKey extracts the object storage key from a hosted image URL.
// URLs that were not produced by the upload flow yield an empty key.
func mediaObjectKey(url string) string {
	idx := strings.Index(url, "/valentines/")
	if idx < 0 {
		return ""
	}
	return url[idx+1:]
}

// ExportValentines builds an XLSX workbook with the creator's pages and their
// responses, one sheet each.
func (s *ValentineFlowImpl) ExportValentines(ctx context.Context, userID uint) (string, []byte, error) {
	rows, err := s.valentineRepo.ListByCreator(ctx, userID, 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("VALENTINE_EXPORT_FAILED", "Failed to fetch valentines for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	pagesSheet := "Valentines"
	xl.SetSheetName(xl.GetSheetName(0), pagesSheet)

	header := []string{"uuid", "custom_url", "name", "from", "message", "phone_number", "question", "status", "views", "created_at"}
	_ = xl.SetSheetRow(pagesSheet, "A1", &header)

	for ri, v := range rows {
		from := ""
		if v.From != nil {
			from = *v.From
		}
		message := ""
		if v.Message != nil {
			message = *v.Message
		}
		phone := ""
		if v.PhoneNumber != nil {
			phone = *v.PhoneNumber
		}
		record := []string{
			v.UUID.String(),
			v.CustomURL,
			v.Name,
			from,
			message,
			phone,
			v.Question,
			v.Status,
			strconv.FormatInt(v.Views, 10),
			v.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(pagesSheet, cellRef, &record)
	}

	responsesSheet := "Responses"
	_, _ = xl.NewSheet(responsesSheet)
	respHeader := []string{"custom_url", "response", "responded_at"}
	_ = xl.SetSheetRow(responsesSheet, "A1", &respHeader)

	ri := 0
	for _, v := range rows {
		responses, err := s.responseRepo.ListByValentine(ctx, v.ID, 0, 0)
		if err != nil {
			return "", nil, NewBusinessError("VALENTINE_EXPORT_FAILED", "Failed to fetch responses for export", err)
		}
		for _, r := range responses {
			record := []string{
				v.CustomURL,
				r.Response,
				r.RespondedAt.UTC().Format(time.RFC3339),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(responsesSheet, cellRef, &record)
			ri++
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := "valentines_export.xlsx"
	return filename, buf.Bytes(), nil
}

// Private helper methods

func (s *ValentineFlowImpl) validateCreateRequest(req *dto.CreateValentineRequest) error {
	if req.Name == "" {
		return ErrNameRequired
	}
	if req.Message != nil && len(*req.Message) > utils.MaxMessageLength {
		return ErrMessageTooLong
	}
	if len(req.Images) > utils.MaxValentineImages {
		return ErrTooManyImages
	}
	return nil
}

func (s *ValentineFlowImpl) createAuditLog(ctx context.Context, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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

	return s.auditRepo.Save(ctx, audit)
}
