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

// TelephonySettingsRepositoryImpl implements TelephonySettingsRepository
type TelephonySettingsRepositoryImpl struct {
	*BaseRepository[models.TelephonySettings, models.TelephonySettingsFilter]
}

func NewTelephonySettingsRepository(db *gorm.DB) TelephonySettingsRepository {
	return &TelephonySettingsRepositoryImpl{BaseRepository: NewBaseRepository[models.TelephonySettings, models.TelephonySettingsFilter](db)}
}

func (r *TelephonySettingsRepositoryImpl) ByUserID(ctx context.Context, userID string) (*models.TelephonySettings, error) {
	db := r.getDB(ctx)
	var row models.TelephonySettings
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find telephony settings: %w", err)
	}
	return &row, nil
}

func (r *TelephonySettingsRepositoryImpl) Upsert(ctx context.Context, userID, callerNumber string) error {
	db := r.getDB(ctx)

	row := models.TelephonySettings{
		UserID:       userID,
		CallerNumber: callerNumber,
		UpdatedAt:    time.Now().UTC(),
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"caller_number", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert telephony settings: %w", err)
	}
	return nil
}

func (r *TelephonySettingsRepositoryImpl) applyFilter(db *gorm.DB, f models.TelephonySettingsFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	return db
}

func (r *TelephonySettingsRepositoryImpl) ByFilter(ctx context.Context, filter models.TelephonySettingsFilter, orderBy string, limit, offset int) ([]*models.TelephonySettings, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TelephonySettings{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.TelephonySettings
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TelephonySettingsRepositoryImpl) Count(ctx context.Context, filter models.TelephonySettingsFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TelephonySettings{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TelephonySettingsRepositoryImpl) Exists(ctx context.Context, filter models.TelephonySettingsFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
