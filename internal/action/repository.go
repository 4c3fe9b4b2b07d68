package action

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, a *Action) error
	GetByID(ctx context.Context, id string) (*Action, error)
	Save(ctx context.Context, a *Action) error
	List(ctx context.Context, filter ListFilter) ([]Action, int64, error)
	AddDecision(ctx context.Context, d *DecisionRecord) error
	HasDecisionBy(ctx context.Context, actionID string, actorID uint) (bool, error)
	CountDecisions(ctx context.Context, actionID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Action) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Action, error) {
	var a Action
	err := r.db.WithContext(ctx).
		Preload("Decisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Save stamps the resolution guarded by the version the action was read
// at. The open -> resolved flip happens at most once: a concurrent
// resolver that lost the race sees zero rows updated.
func (r *repository) Save(ctx context.Context, a *Action) error {
	readVersion := a.Version
	a.Version = readVersion + 1

	res := r.db.WithContext(ctx).
		Model(&Action{}).
		Where("id = ? AND version = ?", a.ID, readVersion).
		Select("status", "outcome", "resolved_at", "version", "updated_at").
		Updates(a)
	if res.Error != nil {
		a.Version = readVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		a.Version = readVersion

		// Distinguish a missing row from a concurrent resolution
		var count int64
		if err := r.db.WithContext(ctx).Model(&Action{}).
			Where("id = ?", a.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUnknownAction
		}
		return ErrAlreadyDecided
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Action, int64, error) {
	var actions []Action
	var total int64

	query := r.db.WithContext(ctx).Model(&Action{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	err := query.Order("created_at ASC, id ASC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Preload("Decisions").
		Find(&actions).Error
	if err != nil {
		return nil, 0, err
	}

	return actions, total, nil
}

func (r *repository) AddDecision(ctx context.Context, d *DecisionRecord) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) HasDecisionBy(ctx context.Context, actionID string, actorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DecisionRecord{}).
		Where("action_id = ? AND actor_id = ?", actionID, actorID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CountDecisions(ctx context.Context, actionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DecisionRecord{}).
		Where("action_id = ?", actionID).
		Count(&count).Error
	return count, err
}
