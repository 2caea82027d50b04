// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/bemyval/valentine-api/models"
	"gorm.io/gorm"
)

// ValentineResponseRepositoryImpl implements ValentineResponseRepository
type ValentineResponseRepositoryImpl struct {
	*BaseRepository[models.ValentineResponse, models.ValentineResponseFilter]
}

func NewValentineResponseRepository(db *gorm.DB) ValentineResponseRepository {
	return &ValentineResponseRepositoryImpl{BaseRepository: NewBaseRepository[models.ValentineResponse, models.ValentineResponseFilter](db)}
}

func (r *ValentineResponseRepositoryImpl) applyFilter(db *gorm.DB, f models.ValentineResponseFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ValentineID != nil {
		db = db.Where("valentine_id = ?", *f.ValentineID)
	}
	if f.Response != nil {
		db = db.Where("response = ?", *f.Response)
	}
	if f.RespondedAfter != nil {
		db = db.Where("responded_at >= ?", *f.RespondedAfter)
	}
	if f.RespondedBefore != nil {
		db = db.Where("responded_at < ?", *f.RespondedBefore)
	}
	return db
}

func (r *ValentineResponseRepositoryImpl) ByFilter(ctx context.Context, filter models.ValentineResponseFilter, orderBy string, limit, offset int) ([]*models.ValentineResponse, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ValentineResponse{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ValentineResponse
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ValentineResponseRepositoryImpl) Count(ctx context.Context, filter models.ValentineResponseFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ValentineResponse{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ValentineResponseRepositoryImpl) Exists(ctx context.Context, filter models.ValentineResponseFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ListByValentine returns the page's answers in submission order. The id
// tiebreak keeps answers with identical timestamps in insert order.
func (r *ValentineResponseRepositoryImpl) ListByValentine(ctx context.Context, valentineID uint, limit, offset int) ([]*models.ValentineResponse, error) {
	filter := models.ValentineResponseFilter{ValentineID: &valentineID}
	return r.ByFilter(ctx, filter, "responded_at ASC, id ASC", limit, offset)
}
