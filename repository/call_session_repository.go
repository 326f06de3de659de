package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/occsec/secure-dialer/models"
	"gorm.io/gorm"
)

// CallSessionRepositoryImpl implements CallSessionRepository
type CallSessionRepositoryImpl struct {
	*BaseRepository[models.CallSession, models.CallSessionFilter]
}

func NewCallSessionRepository(db *gorm.DB) CallSessionRepository {
	return &CallSessionRepositoryImpl{BaseRepository: NewBaseRepository[models.CallSession, models.CallSessionFilter](db)}
}

func (r *CallSessionRepositoryImpl) ByUUID(ctx context.Context, uid string) (*models.CallSession, error) {
	db := r.getDB(ctx)
	var row models.CallSession
	if err := db.Where("uuid = ?", uid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find call session by uuid: %w", err)
	}
	return &row, nil
}

// ListByUser returns the user's sessions, newest first.
func (r *CallSessionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*models.CallSession, error) {
	filter := models.CallSessionFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

// ListAll returns sessions across all owners, newest first. Admin use only.
func (r *CallSessionRepositoryImpl) ListAll(ctx context.Context, limit, offset int) ([]*models.CallSession, error) {
	return r.ByFilter(ctx, models.CallSessionFilter{}, "created_at DESC", limit, offset)
}

func (r *CallSessionRepositoryImpl) applyFilter(db *gorm.DB, f models.CallSessionFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *CallSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.CallSessionFilter, orderBy string, limit, offset int) ([]*models.CallSession, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CallSession{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.CallSession
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CallSessionRepositoryImpl) Count(ctx context.Context, filter models.CallSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CallSession{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CallSessionRepositoryImpl) Exists(ctx context.Context, filter models.CallSessionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
