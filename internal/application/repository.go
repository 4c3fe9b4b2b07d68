package application

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is the persistence port for applications. Save enforces
// optimistic concurrency against the stored version counter.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	Save(ctx context.Context, app *Application) error
	List(ctx context.Context, filter ListFilter) ([]Application, int64, error)
	AddDirector(ctx context.Context, d *Director) error
	GetDirector(ctx context.Context, applicationID string, directorID uint) (*Director, error)
	SaveDirector(ctx context.Context, d *Director) error
	RemoveDirector(ctx context.Context, applicationID string, directorID uint) error
	CountByStage(ctx context.Context) (map[Stage]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, app *Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Application, error) {
	var app Application
	err := r.db.WithContext(ctx).
		Preload("Directors").
		First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Save writes the record back guarded by the version it was read at.
// The version counter advances by one on success; a mismatch means a
// concurrent writer got there first.
func (r *repository) Save(ctx context.Context, app *Application) error {
	readVersion := app.Version
	app.Version = readVersion + 1

	res := r.db.WithContext(ctx).
		Model(&Application{}).
		Where("id = ? AND version = ?", app.ID, readVersion).
		Select("*").
		Omit("id", "created_at", "Directors").
		Updates(app)
	if res.Error != nil {
		app.Version = readVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		app.Version = readVersion

		// Distinguish a missing row from a stale read
		var count int64
		if err := r.db.WithContext(ctx).Model(&Application{}).
			Where("id = ?", app.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConcurrencyConflict
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Application, int64, error) {
	var apps []Application
	var total int64

	query := r.db.WithContext(ctx).Model(&Application{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.StakeholderType != "" {
		query = query.Where("stakeholder_type = ?", filter.StakeholderType)
	}
	if filter.ApplicationType != "" {
		query = query.Where("application_type = ?", filter.ApplicationType)
	}
	if filter.CreatedBy != 0 {
		query = query.Where("created_by = ?", filter.CreatedBy)
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

	// Insertion order keeps listings deterministic
	err := query.Order("created_at ASC, id ASC").
		Limit(filter.Limit).
		Offset(offset).
		Preload("Directors").
		Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *repository) AddDirector(ctx context.Context, d *Director) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) GetDirector(ctx context.Context, applicationID string, directorID uint) (*Director, error) {
	var d Director
	err := r.db.WithContext(ctx).
		First(&d, "id = ? AND application_id = ?", directorID, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) SaveDirector(ctx context.Context, d *Director) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *repository) RemoveDirector(ctx context.Context, applicationID string, directorID uint) error {
	res := r.db.WithContext(ctx).
		Delete(&Director{}, "id = ? AND application_id = ?", directorID, applicationID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStage powers the CEO dashboard summary.
func (r *repository) CountByStage(ctx context.Context) (map[Stage]int64, error) {
	type row struct {
		Stage Stage
		Count int64
	}
	var rows []row

	err := r.db.WithContext(ctx).Model(&Application{}).
		Select("stage, COUNT(*) as count").
		Where("status = ?", StatusSubmitted).
		Group("stage").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[Stage]int64, len(rows))
	for _, r := range rows {
		counts[r.Stage] = r.Count
	}
	return counts, nil
}
