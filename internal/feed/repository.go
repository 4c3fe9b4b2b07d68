package feed

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	Put(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, filter ListFilter) ([]Item, int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	SoftDelete(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int64, error)

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
	CountUnreadNotifications(ctx context.Context, userID uint) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, item *Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Put upserts by id. Writing back an unchanged read is a no-op as far as
// the stored fields go.
func (r *repository) Put(ctx context.Context, item *Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := r.db.WithContext(ctx).
		First(&item, "id = ? AND deleted = ?", id, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, int64, error) {
	var items []Item
	var total int64

	query := r.db.WithContext(ctx).Model(&Item{}).Where("deleted = ?", false)

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(body) LIKE ?", pattern, pattern)
	}
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
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

	// Insertion order keeps the feed stable under filtering
	err := query.Order("created_at ASC, id ASC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *repository) MarkRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&Item{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&Item{}).
		Where("read = ? AND deleted = ?", false, false).
		Update("read", true).Error
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&Item{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Item{}).
		Where("read = ? AND deleted = ?", false, false).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateNotification(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]Notification, int64, error) {
	var notifications []Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	err := query.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *repository) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountUnreadNotifications(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
