package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mwangik8/sugar-board-backend/internal/action"
	"github.com/mwangik8/sugar-board-backend/internal/application"
	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
	"github.com/mwangik8/sugar-board-backend/internal/feed"
)

// Repository assembles register rows straight from the stores. Reporting
// reads across every domain table, so it takes the raw handle rather than
// going through the per-domain repositories.
type Repository interface {
	ApplicationRegister(ctx context.Context) ([]ApplicationRegisterRow, error)
	DecisionRegister(ctx context.Context) ([]DecisionRegisterRow, error)
	AuditRegister(ctx context.Context) ([]AuditRegisterRow, error)
	Summary(ctx context.Context) (*DashboardSummary, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ApplicationRegister(ctx context.Context) ([]ApplicationRegisterRow, error) {
	var apps []application.Application
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	rows := make([]ApplicationRegisterRow, 0, len(apps))
	for _, app := range apps {
		stage := ""
		if app.Stage != nil {
			stage = string(*app.Stage)
		}
		rows = append(rows, ApplicationRegisterRow{
			ID:              app.ID,
			CompanyName:     app.CompanyName,
			StakeholderType: string(app.StakeholderType),
			ApplicationType: string(app.ApplicationType),
			Category:        string(app.Category),
			Status:          string(app.Status),
			Stage:           stage,
			InvestmentTotal: app.Investment.Total,
			SubmittedAt:     app.SubmittedAt,
			DecidedAt:       app.DecidedAt,
		})
	}
	return rows, nil
}

func (r *repository) DecisionRegister(ctx context.Context) ([]DecisionRegisterRow, error) {
	var rows []DecisionRegisterRow
	err := r.db.WithContext(ctx).
		Table("board_action_decisions AS d").
		Select(`d.action_id, a.title AS action_title, a.kind,
			d.actor_id, d.actor_name, d.outcome, d.comment,
			d.created_at AS decided_at`).
		Joins("JOIN board_actions a ON a.id = d.action_id").
		Order("d.created_at ASC, d.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) AuditRegister(ctx context.Context) ([]AuditRegisterRow, error) {
	var logs []auditlog.AuditLog
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	rows := make([]AuditRegisterRow, 0, len(logs))
	for _, l := range logs {
		refID := ""
		if l.RefID != nil {
			refID = *l.RefID
		}
		rows = append(rows, AuditRegisterRow{
			ID:        l.ID,
			UserID:    l.UserID,
			RefID:     refID,
			Action:    l.Action,
			Status:    l.Status,
			IPAddress: l.IPAddress,
			Timestamp: l.CreatedAt,
		})
	}
	return rows, nil
}

func (r *repository) Summary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{
		ApplicationsByStatus:      map[string]int64{},
		ApplicationsByStakeholder: map[string]map[string]int64{},
		PendingByStage:            map[string]int64{},
		AlertsByPriority:          map[string]int64{},
	}

	if err := r.db.WithContext(ctx).Model(&application.Application{}).
		Count(&summary.TotalApplications).Error; err != nil {
		return nil, err
	}

	type statusRow struct {
		Status string
		Count  int64
	}
	var byStatus []statusRow
	err := r.db.WithContext(ctx).Model(&application.Application{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		summary.ApplicationsByStatus[row.Status] = row.Count
	}

	type stakeholderRow struct {
		StakeholderType string
		Status          string
		Count           int64
	}
	var byStakeholder []stakeholderRow
	err = r.db.WithContext(ctx).Model(&application.Application{}).
		Select("stakeholder_type, status, COUNT(*) as count").
		Group("stakeholder_type, status").
		Find(&byStakeholder).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStakeholder {
		if summary.ApplicationsByStakeholder[row.StakeholderType] == nil {
			summary.ApplicationsByStakeholder[row.StakeholderType] = map[string]int64{}
		}
		summary.ApplicationsByStakeholder[row.StakeholderType][row.Status] = row.Count
	}

	type stageRow struct {
		Stage string
		Count int64
	}
	var byStage []stageRow
	err = r.db.WithContext(ctx).Model(&application.Application{}).
		Select("stage, COUNT(*) as count").
		Where("status = ?", application.StatusSubmitted).
		Group("stage").
		Find(&byStage).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStage {
		summary.PendingByStage[row.Stage] = row.Count
	}

	if err := r.db.WithContext(ctx).Model(&action.Action{}).
		Where("status = ?", action.StatusOpen).
		Count(&summary.OpenActions).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&feed.Item{}).
		Where("read = ? AND deleted = ?", false, false).
		Count(&summary.UnreadFeedItems).Error; err != nil {
		return nil, err
	}

	type priorityRow struct {
		Priority string
		Count    int64
	}
	var byPriority []priorityRow
	err = r.db.WithContext(ctx).Model(&feed.Item{}).
		Select("priority, COUNT(*) as count").
		Where("kind = ? AND deleted = ?", feed.KindAlert, false).
		Group("priority").
		Find(&byPriority).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byPriority {
		summary.AlertsByPriority[row.Priority] = row.Count
	}

	if err := r.db.WithContext(ctx).Model(&feed.Item{}).
		Where("kind = ? AND deleted = ? AND created_at >= ?", feed.KindMeeting, false, time.Now().AddDate(0, 0, -7)).
		Count(&summary.MeetingsThisWeek).Error; err != nil {
		return nil, err
	}

	return summary, nil
}
