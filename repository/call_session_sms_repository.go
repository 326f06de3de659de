package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/occsec/secure-dialer/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CallSessionSMSRepositoryImpl implements CallSessionSMSRepository
type CallSessionSMSRepositoryImpl struct {
	*BaseRepository[models.CallSessionSMS, models.CallSessionSMSFilter]
}

func NewCallSessionSMSRepository(db *gorm.DB) CallSessionSMSRepository {
	return &CallSessionSMSRepositoryImpl{BaseRepository: NewBaseRepository[models.CallSessionSMS, models.CallSessionSMSFilter](db)}
}

func (r *CallSessionSMSRepositoryImpl) BySessionID(ctx context.Context, sessionID uint) (*models.CallSessionSMS, error) {
	db := r.getDB(ctx)
	var row models.CallSessionSMS
	if err := db.Where("call_session_id = ?", sessionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session sms content: %w", err)
	}
	return &row, nil
}

// Upsert inserts or replaces the session's SMS content, keyed by
// call_session_id. Keeps the at-most-one-record-per-session invariant at the
// storage layer.
func (r *CallSessionSMSRepositoryImpl) Upsert(ctx context.Context, sessionID uint, content string) error {
	db := r.getDB(ctx)

	row := models.CallSessionSMS{
		CallSessionID: sessionID,
		SMSContent:    content,
		UpdatedAt:     time.Now().UTC(),
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "call_session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sms_content", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert session sms content: %w", err)
	}
	return nil
}

func (r *CallSessionSMSRepositoryImpl) applyFilter(db *gorm.DB, f models.CallSessionSMSFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CallSessionID != nil {
		db = db.Where("call_session_id = ?", *f.CallSessionID)
	}
	return db
}

func (r *CallSessionSMSRepositoryImpl) ByFilter(ctx context.Context, filter models.CallSessionSMSFilter, orderBy string, limit, offset int) ([]*models.CallSessionSMS, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CallSessionSMS{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.CallSessionSMS
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CallSessionSMSRepositoryImpl) Count(ctx context.Context, filter models.CallSessionSMSFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CallSessionSMS{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CallSessionSMSRepositoryImpl) Exists(ctx context.Context, filter models.CallSessionSMSFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
