package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/occsec/secure-dialer/models"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements ContactRepository
type ContactRepositoryImpl struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db)}
}

func (r *ContactRepositoryImpl) ByUUID(ctx context.Context, uid string) (*models.Contact, error) {
	db := r.getDB(ctx)
	var row models.Contact
	if err := db.Where("uuid = ?", uid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find contact by uuid: %w", err)
	}
	return &row, nil
}

func (r *ContactRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*models.Contact, error) {
	filter := models.ContactFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at ASC, id ASC", 0, 0)
}

func (r *ContactRepositoryImpl) ListBySession(ctx context.Context, sessionID uint) ([]*models.Contact, error) {
	filter := models.ContactFilter{CallSessionID: &sessionID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// UpdateFields applies a partial non-status update and returns the stored row.
func (r *ContactRepositoryImpl) UpdateFields(ctx context.Context, contactID uint, fields map[string]any) (*models.Contact, error) {
	if _, ok := fields["status"]; ok {
		return nil, fmt.Errorf("status must be written through UpdateStatus")
	}

	db := r.getDB(ctx)
	fields["updated_at"] = time.Now().UTC()

	res := db.Model(&models.Contact{}).Where("id = ?", contactID).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update contact %d: %w", contactID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.ByID(ctx, contactID)
}

// UpdateStatus records a dispatch outcome. The status / status_updated_at
// pair is written in one UPDATE so a reader can never observe one without
// the other.
func (r *ContactRepositoryImpl) UpdateStatus(ctx context.Context, contactID uint, status models.CallStatus, at time.Time, lastCalled *time.Time) (*models.Contact, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid call status %q", status)
	}

	fields := map[string]any{
		"status":            status,
		"status_updated_at": at,
		"call_initiated":    true,
		"updated_at":        time.Now().UTC(),
	}
	if lastCalled != nil {
		fields["last_called"] = *lastCalled
	}

	db := r.getDB(ctx)
	res := db.Model(&models.Contact{}).Where("id = ?", contactID).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update contact %d status: %w", contactID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.ByID(ctx, contactID)
}

func (r *ContactRepositoryImpl) applyFilter(db *gorm.DB, f models.ContactFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.Attending != nil {
		db = db.Where("attending = ?", *f.Attending)
	}
	if f.CallSessionID != nil {
		db = db.Where("call_session_id = ?", *f.CallSessionID)
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

func (r *ContactRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Contact{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Contact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContactRepositoryImpl) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Contact{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContactRepositoryImpl) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
