package auditlog

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	GetByFilter(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int64, error)
	GetByID(ctx context.Context, id uint) (*AuditLog, error)
	CountByRefID(ctx context.Context, refID string, excludeActions ...string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts a new audit log entry
func (r *repository) Create(ctx context.Context, log *AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByFilter retrieves audit logs with filtering and pagination
func (r *repository) GetByFilter(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int64, error) {
	var logs []AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&AuditLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.RefID != "" {
		query = query.Where("ref_id = ?", filter.RefID)
	}
	if filter.Action != "" {
		query = query.Where("action ILIKE ?", "%"+filter.Action+"%")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// GetByID retrieves a specific audit log by ID
func (r *repository) GetByID(ctx context.Context, id uint) (*AuditLog, error) {
	var log AuditLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// CountByRefID counts trail entries referencing an entity id, skipping
// the listed action codes. The feed store's delete guard ignores the
// entries an item writes about its own lifecycle, so creating an item
// does not make it undeletable.
func (r *repository) CountByRefID(ctx context.Context, refID string, excludeActions ...string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&AuditLog{}).
		Where("ref_id = ?", refID)
	if len(excludeActions) > 0 {
		query = query.Where("action NOT IN ?", excludeActions)
	}
	err := query.Count(&count).Error
	return count, err
}
