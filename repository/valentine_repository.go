// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bemyval/valentine-api/models"
	"github.com/bemyval/valentine-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ValentineRepositoryImpl implements ValentineRepository
type ValentineRepositoryImpl struct {
	*BaseRepository[models.Valentine, models.ValentineFilter]
}

func NewValentineRepository(db *gorm.DB) ValentineRepository {
	return &ValentineRepositoryImpl{BaseRepository: NewBaseRepository[models.Valentine, models.ValentineFilter](db)}
}

func (r *ValentineRepositoryImpl) applyFilter(db *gorm.DB, f models.ValentineFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CreatorID != nil {
		db = db.Where("creator_id = ?", *f.CreatorID)
	}
	if f.CustomURL != nil {
		db = db.Where("custom_url = ?", *f.CustomURL)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ValentineRepositoryImpl) ByFilter(ctx context.Context, filter models.ValentineFilter, orderBy string, limit, offset int) ([]*models.Valentine, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Valentine{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Valentine
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ValentineRepositoryImpl) Count(ctx context.Context, filter models.ValentineFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Valentine{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ValentineRepositoryImpl) Exists(ctx context.Context, filter models.ValentineFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ValentineRepositoryImpl) ByUUID(ctx context.Context, uid string) (*models.Valentine, error) {
	db := r.getDB(ctx)
	var rows []*models.Valentine
	if err := db.Model(&models.Valentine{}).Where("uuid = ?", uid).Order("id DESC").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ValentineRepositoryImpl) ByCustomURL(ctx context.Context, customURL string) (*models.Valentine, error) {
	filter := models.ValentineFilter{CustomURL: &customURL}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ValentineRepositoryImpl) ExistsByCustomURL(ctx context.Context, customURL string) (bool, error) {
	return r.Exists(ctx, models.ValentineFilter{CustomURL: &customURL})
}

func (r *ValentineRepositoryImpl) ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]*models.Valentine, error) {
	filter := models.ValentineFilter{CreatorID: &creatorID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// IncrementViews bumps the view counter with a single atomic UPDATE
func (r *ValentineRepositoryImpl) IncrementViews(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	res := db.Model(&models.Valentine{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		err = fmt.Errorf("failed to increment views: %w", res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = errors.New("valentine not found for view increment")
		return err
	}

	return nil
}

func (r *ValentineRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Valentine{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update valentine status: %w", err)
	}

	return nil
}

// DeleteByUUIDAndCreator removes the page only when the creator matches and
// returns the deleted row so callers can release attached resources. A nil
// result does not distinguish a missing page from one owned by someone else.
func (r *ValentineRepositoryImpl) DeleteByUUIDAndCreator(ctx context.Context, uid string, creatorID uint) (*models.Valentine, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return nil, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	var deleted []models.Valentine
	res := db.Clauses(clause.Returning{}).
		Where("uuid = ? AND creator_id = ?", uid, creatorID).
		Delete(&deleted)
	if res.Error != nil {
		err = fmt.Errorf("failed to delete valentine: %w", res.Error)
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, nil
	}

	return &deleted[0], nil
}

// StatsByCreator aggregates the creator's dashboard numbers in one query
func (r *ValentineRepositoryImpl) StatsByCreator(ctx context.Context, creatorID uint) (*ValentineStats, error) {
	db := r.getDB(ctx)

	var stats ValentineStats
	err := db.Model(&models.Valentine{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(views), 0) AS total_views, "+
			"COUNT(*) FILTER (WHERE status = ?) AS accepted, "+
			"COUNT(*) FILTER (WHERE status = ?) AS rejected",
			models.ValentineStatusAccepted, models.ValentineStatusRejected).
		Where("creator_id = ?", creatorID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate valentine stats: %w", err)
	}

	return &stats, nil
}
