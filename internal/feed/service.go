package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
)

var (
	ErrNotFound        = errors.New("feed item not found")
	ErrInvalidKind     = errors.New("unknown feed item kind")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	ErrHasAuditTrail   = errors.New("item has an audit trail and cannot be removed")
)

// Broadcaster fans a stored item out to live subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, item *Item)
}

// DecisionCounter reports recorded decisions for a board action. Items
// linked to a decided action are protected from deletion.
type DecisionCounter interface {
	CountDecisions(ctx context.Context, actionID string) (int64, error)
}

type Service struct {
	Repo         Repository
	Trail        auditlog.Repository
	AuditService auditlog.Service
	Decisions    DecisionCounter
	Stream       Broadcaster
}

func NewService(r Repository, trail auditlog.Repository, as auditlog.Service, decisions DecisionCounter, stream Broadcaster) *Service {
	return &Service{
		Repo:         r,
		Trail:        trail,
		AuditService: as,
		Decisions:    decisions,
		Stream:       stream,
	}
}

var validKinds = map[Kind]bool{
	KindAlert:    true,
	KindActivity: true,
	KindMeeting:  true,
	KindInsight:  true,
}

type CreateItemInput struct {
	Kind     Kind                   `json:"kind" binding:"required"`
	Title    string                 `json:"title" binding:"required"`
	Body     string                 `json:"body"`
	Category string                 `json:"category"`
	Priority string                 `json:"priority"`
	Details  map[string]interface{} `json:"details"`
	ActionID *string                `json:"action_id"`
}

// CreateItem posts a feed item (meeting notice, insight, manual alert).
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput, userID uint, ip string) (*Item, error) {
	if !validKinds[in.Kind] {
		return nil, ErrInvalidKind
	}

	priority := PriorityMedium
	if in.Priority != "" {
		p, ok := ParsePriority(in.Priority)
		if !ok {
			return nil, ErrInvalidPriority
		}
		priority = p
	}

	item := &Item{
		ID:        uuid.NewString(),
		Kind:      in.Kind,
		Title:     strings.TrimSpace(in.Title),
		Body:      strings.TrimSpace(in.Body),
		Category:  strings.TrimSpace(in.Category),
		Priority:  priority,
		Details:   in.Details,
		Source:    "manual",
		ActionID:  in.ActionID,
		CreatedBy: &userID,
	}

	if err := s.Repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.audit(ctx, &userID, &item.ID, "FEED_ITEM_CREATED", map[string]interface{}{
		"kind":     item.Kind,
		"title":    item.Title,
		"priority": item.Priority,
	}, ip, "success")

	s.broadcast(ctx, item)
	return item, nil
}

// Publish turns a workflow event into an activity item. It backs the
// other services' event hooks and never fails the caller; a feed that
// misses an entry is preferable to a blocked workflow.
func (s *Service) Publish(ctx context.Context, event string, payload map[string]interface{}) {
	item := &Item{
		ID:       uuid.NewString(),
		Kind:     KindActivity,
		Title:    activityTitle(event, payload),
		Category: event,
		Priority: PriorityMedium,
		Details:  payload,
		Source:   "workflow",
	}
	if event == "application.rejected" {
		item.Priority = PriorityHigh
	}
	if actionID, ok := payload["action_id"].(string); ok {
		item.ActionID = &actionID
	}

	if err := s.Repo.Create(ctx, item); err != nil {
		log.Printf("⚠️ Failed to record feed activity for %s: %v", event, err)
		return
	}

	// Events aimed at a specific account also land in that user's inbox
	if userID, ok := payload["notify_user_id"].(uint); ok && userID != 0 {
		n := &Notification{
			UserID: userID,
			Title:  item.Title,
			ItemID: &item.ID,
		}
		if err := s.Repo.CreateNotification(ctx, n); err != nil {
			log.Printf("⚠️ Failed to notify user %d for %s: %v", userID, event, err)
		}
	}

	s.broadcast(ctx, item)
}

func activityTitle(event string, payload map[string]interface{}) string {
	company, _ := payload["company_name"].(string)
	title, _ := payload["title"].(string)

	switch event {
	case "application.submitted":
		return fmt.Sprintf("New application submitted by %s", company)
	case "application.stage_advanced":
		return fmt.Sprintf("Application from %s moved to %v", company, payload["to_stage"])
	case "application.approved":
		return fmt.Sprintf("Application from %s approved", company)
	case "application.rejected":
		return fmt.Sprintf("Application from %s rejected", company)
	case "action.resolved":
		return fmt.Sprintf("Board action resolved: %s", title)
	default:
		return event
	}
}

// UpstreamAlert is the payload shape pushed by the market monitoring
// stream. Priority arrives in that system's uppercase vocabulary.
type UpstreamAlert struct {
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Category string                 `json:"category"`
	Priority string                 `json:"priority"`
	Details  map[string]interface{} `json:"details"`
}

// Ingest stores an upstream alert, normalizing the priority vocabulary.
// Unparseable priorities degrade to medium rather than dropping the alert.
func (s *Service) Ingest(ctx context.Context, alert UpstreamAlert) (*Item, error) {
	priority, ok := ParsePriority(alert.Priority)
	if !ok {
		log.Printf("⚠️ Upstream alert with unknown priority %q, defaulting to medium", alert.Priority)
		priority = PriorityMedium
	}

	item := &Item{
		ID:       uuid.NewString(),
		Kind:     KindAlert,
		Title:    strings.TrimSpace(alert.Title),
		Body:     strings.TrimSpace(alert.Body),
		Category: strings.TrimSpace(alert.Category),
		Priority: priority,
		Details:  alert.Details,
		Source:   "upstream",
	}

	if err := s.Repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.broadcast(ctx, item)
	return item, nil
}

// Put upserts a full item record. The id must be set; kind and priority
// must already be canonical.
func (s *Service) Put(ctx context.Context, item *Item, userID uint, ip string) error {
	if strings.TrimSpace(item.ID) == "" {
		return ErrNotFound
	}
	if !validKinds[item.Kind] {
		return ErrInvalidKind
	}
	if _, ok := ParsePriority(string(item.Priority)); !ok {
		return ErrInvalidPriority
	}

	if err := s.Repo.Put(ctx, item); err != nil {
		return err
	}

	s.audit(ctx, &userID, &item.ID, "FEED_ITEM_PUT", map[string]interface{}{
		"kind":  item.Kind,
		"title": item.Title,
	}, ip, "success")

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, int64, error) {
	return s.Repo.List(ctx, filter)
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.Repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.Repo.MarkAllRead(ctx)
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.Repo.CountUnread(ctx)
}

func (s *Service) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]Notification, int64, error) {
	return s.Repo.ListNotifications(ctx, userID, unreadOnly, page, limit)
}

func (s *Service) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	return s.Repo.MarkNotificationRead(ctx, id, userID)
}

func (s *Service) UnreadNotificationCount(ctx context.Context, userID uint) (int64, error) {
	return s.Repo.CountUnreadNotifications(ctx, userID)
}

// Entries an item writes about itself. The delete guard skips these;
// only trail references from elsewhere pin an item.
var lifecycleActions = []string{
	"FEED_ITEM_CREATED", "FEED_ITEM_PUT", "FEED_ITEM_DELETE_BLOCKED",
}

// Delete soft-removes a feed item. An item referenced by the audit trail
// beyond its own lifecycle, or linked to a board action with recorded
// decisions, stays: history referenced elsewhere must remain resolvable.
func (s *Service) Delete(ctx context.Context, id string, userID uint, ip string) error {
	item, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if s.Trail != nil {
		count, err := s.Trail.CountByRefID(ctx, id, lifecycleActions...)
		if err != nil {
			return err
		}
		if count > 0 {
			s.audit(ctx, &userID, &id, "FEED_ITEM_DELETE_BLOCKED", map[string]interface{}{
				"trail_entries": count,
			}, ip, "failure")
			return ErrHasAuditTrail
		}
	}

	if item.ActionID != nil && s.Decisions != nil {
		count, err := s.Decisions.CountDecisions(ctx, *item.ActionID)
		if err != nil {
			return err
		}
		if count > 0 {
			s.audit(ctx, &userID, &id, "FEED_ITEM_DELETE_BLOCKED", map[string]interface{}{
				"action_id": *item.ActionID,
				"decisions": count,
			}, ip, "failure")
			return ErrHasAuditTrail
		}
	}

	if err := s.Repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, &userID, &id, "FEED_ITEM_DELETED", map[string]interface{}{
		"kind":  item.Kind,
		"title": item.Title,
	}, ip, "success")

	return nil
}

func (s *Service) audit(ctx context.Context, userID *uint, refID *string, action string, details map[string]interface{}, ip, status string) {
	if s.AuditService == nil {
		return
	}
	if err := s.AuditService.LogAction(ctx, userID, refID, action, details, ip, status); err != nil {
		log.Printf("❌ Audit log error: %v", err)
	}
}

func (s *Service) broadcast(ctx context.Context, item *Item) {
	if s.Stream == nil {
		return
	}
	s.Stream.Broadcast(ctx, item)
}
