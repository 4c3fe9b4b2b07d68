package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
)

type mockRepository struct {
	CreateFn      func(ctx context.Context, item *Item) error
	PutFn         func(ctx context.Context, item *Item) error
	GetByIDFn     func(ctx context.Context, id string) (*Item, error)
	ListFn        func(ctx context.Context, filter ListFilter) ([]Item, int64, error)
	MarkReadFn    func(ctx context.Context, id string) error
	MarkAllReadFn func(ctx context.Context) error
	SoftDeleteFn  func(ctx context.Context, id string) error
	CountUnreadFn func(ctx context.Context) (int64, error)

	CreateNotificationFn       func(ctx context.Context, n *Notification) error
	ListNotificationsFn        func(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]Notification, int64, error)
	MarkNotificationReadFn     func(ctx context.Context, id, userID uint) error
	CountUnreadNotificationsFn func(ctx context.Context, userID uint) (int64, error)
}

func (m *mockRepository) Create(ctx context.Context, item *Item) error { return m.CreateFn(ctx, item) }
func (m *mockRepository) Put(ctx context.Context, item *Item) error    { return m.PutFn(ctx, item) }
func (m *mockRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Item, int64, error) {
	return m.ListFn(ctx, filter)
}
func (m *mockRepository) MarkRead(ctx context.Context, id string) error { return m.MarkReadFn(ctx, id) }
func (m *mockRepository) MarkAllRead(ctx context.Context) error         { return m.MarkAllReadFn(ctx) }
func (m *mockRepository) SoftDelete(ctx context.Context, id string) error {
	return m.SoftDeleteFn(ctx, id)
}
func (m *mockRepository) CountUnread(ctx context.Context) (int64, error) {
	return m.CountUnreadFn(ctx)
}
func (m *mockRepository) CreateNotification(ctx context.Context, n *Notification) error {
	if m.CreateNotificationFn == nil {
		return nil
	}
	return m.CreateNotificationFn(ctx, n)
}
func (m *mockRepository) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]Notification, int64, error) {
	return m.ListNotificationsFn(ctx, userID, unreadOnly, page, limit)
}
func (m *mockRepository) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	return m.MarkNotificationReadFn(ctx, id, userID)
}
func (m *mockRepository) CountUnreadNotifications(ctx context.Context, userID uint) (int64, error) {
	return m.CountUnreadNotificationsFn(ctx, userID)
}

type mockTrail struct {
	auditlog.Repository
	count int64
}

func (m *mockTrail) CountByRefID(_ context.Context, _ string, _ ...string) (int64, error) {
	return m.count, nil
}

type mockDecisions struct {
	count int64
}

func (m *mockDecisions) CountDecisions(_ context.Context, _ string) (int64, error) {
	return m.count, nil
}

func storingRepo(stored **Item) *mockRepository {
	return &mockRepository{
		CreateFn: func(_ context.Context, item *Item) error {
			*stored = item
			return nil
		},
	}
}

func TestCreateItemRejectsUnknownKind(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil, nil, nil)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{
		Kind:  Kind("rumor"),
		Title: "Unfounded",
	}, 1, "127.0.0.1")
	if !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestCreateItemNormalizesPriority(t *testing.T) {
	var stored *Item
	svc := NewService(storingRepo(&stored), nil, nil, nil, nil)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Kind:     KindMeeting,
		Title:    "Full board sitting, 14 October",
		Priority: "HIGH",
	}, 1, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.Priority != PriorityHigh {
		t.Errorf("priority = %s, want high", item.Priority)
	}
	if stored == nil || stored.Priority != PriorityHigh {
		t.Error("stored item should carry the canonical priority")
	}
}

func TestCreateItemRejectsBadPriority(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil, nil, nil)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{
		Kind:     KindAlert,
		Title:    "Cane shortage",
		Priority: "urgent",
	}, 1, "127.0.0.1")
	if !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestCreateItemDefaultsToMedium(t *testing.T) {
	var stored *Item
	svc := NewService(storingRepo(&stored), nil, nil, nil, nil)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Kind:  KindInsight,
		Title: "Q3 production up 12%",
	}, 1, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Priority != PriorityMedium {
		t.Errorf("priority = %s, want medium default", item.Priority)
	}
}

func TestIngestNormalizesUpstreamVocabulary(t *testing.T) {
	var stored *Item
	svc := NewService(storingRepo(&stored), nil, nil, nil, nil)

	item, err := svc.Ingest(context.Background(), UpstreamAlert{
		Title:    "Sugar import surge at Mombasa port",
		Category: "imports",
		Priority: "HIGH",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.Priority != PriorityHigh {
		t.Errorf("priority = %s, want high", item.Priority)
	}
	if item.Kind != KindAlert {
		t.Errorf("kind = %s, want alert", item.Kind)
	}
	if item.Source != "upstream" {
		t.Errorf("source = %s, want upstream", item.Source)
	}
}

func TestIngestUnknownPriorityDegradesToMedium(t *testing.T) {
	var stored *Item
	svc := NewService(storingRepo(&stored), nil, nil, nil, nil)

	item, err := svc.Ingest(context.Background(), UpstreamAlert{
		Title:    "Price anomaly",
		Priority: "CRITICAL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Priority != PriorityMedium {
		t.Errorf("priority = %s, want medium fallback", item.Priority)
	}
}

func TestPublishBuildsActivityItem(t *testing.T) {
	var stored *Item
	svc := NewService(storingRepo(&stored), nil, nil, nil, nil)

	svc.Publish(context.Background(), "application.rejected", map[string]interface{}{
		"application_id": "app-1",
		"company_name":   "Sony Sugar",
	})

	if stored == nil {
		t.Fatal("publish should store an activity item")
	}
	if stored.Kind != KindActivity || stored.Source != "workflow" {
		t.Errorf("item kind/source = %s/%s", stored.Kind, stored.Source)
	}
	if stored.Priority != PriorityHigh {
		t.Errorf("rejection events carry high priority, got %s", stored.Priority)
	}
}

func TestPublishNotifiesTargetUser(t *testing.T) {
	var stored *Item
	repo := storingRepo(&stored)

	var notified *Notification
	repo.CreateNotificationFn = func(_ context.Context, n *Notification) error {
		notified = n
		return nil
	}

	svc := NewService(repo, nil, nil, nil, nil)
	svc.Publish(context.Background(), "application.approved", map[string]interface{}{
		"application_id": "app-1",
		"company_name":   "Sony Sugar",
		"notify_user_id": uint(7),
	})

	if notified == nil {
		t.Fatal("expected a notification for the applicant")
	}
	if notified.UserID != 7 {
		t.Errorf("notification user = %d, want 7", notified.UserID)
	}
	if notified.ItemID == nil || *notified.ItemID != stored.ID {
		t.Error("notification should reference the feed item")
	}
}

func TestDeleteBlockedByAuditTrail(t *testing.T) {
	repo := &mockRepository{
		GetByIDFn: func(_ context.Context, id string) (*Item, error) {
			return &Item{ID: id, Kind: KindMeeting, Title: "AGM notice"}, nil
		},
	}
	svc := NewService(repo, &mockTrail{count: 3}, nil, nil, nil)

	err := svc.Delete(context.Background(), "item-1", 1, "127.0.0.1")
	if !errors.Is(err, ErrHasAuditTrail) {
		t.Fatalf("expected ErrHasAuditTrail, got %v", err)
	}
}

func TestDeleteBlockedByRecordedDecisions(t *testing.T) {
	actionID := "act-1"
	repo := &mockRepository{
		GetByIDFn: func(_ context.Context, id string) (*Item, error) {
			return &Item{ID: id, Kind: KindActivity, ActionID: &actionID}, nil
		},
	}
	svc := NewService(repo, &mockTrail{count: 0}, nil, &mockDecisions{count: 2}, nil)

	err := svc.Delete(context.Background(), "item-1", 1, "127.0.0.1")
	if !errors.Is(err, ErrHasAuditTrail) {
		t.Fatalf("expected ErrHasAuditTrail, got %v", err)
	}
}

func TestDeleteUnreferencedItem(t *testing.T) {
	deleted := false
	repo := &mockRepository{
		GetByIDFn: func(_ context.Context, id string) (*Item, error) {
			return &Item{ID: id, Kind: KindInsight, Title: "Stale insight"}, nil
		},
		SoftDeleteFn: func(_ context.Context, _ string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo, &mockTrail{count: 0}, nil, &mockDecisions{count: 0}, nil)

	if err := svc.Delete(context.Background(), "item-1", 1, "127.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("unreferenced item should be soft-deleted")
	}
}

// The creation audit entry alone must not pin an item: an undecided item
// is deletable even with the real trail recording every mutation.
func TestDeleteSucceedsDespiteOwnLifecycleTrail(t *testing.T) {
	db := setupTestDB(t)
	trail := auditlog.NewRepository(db)
	svc := NewService(NewRepository(db), trail, auditlog.NewService(trail), nil, nil)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{Kind: KindMeeting, Title: "Stakeholder forum, Kisumu"}, 1, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := trail.CountByRefID(ctx, item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count == 0 {
		t.Fatal("creation should leave a trail entry")
	}

	if err := svc.Delete(ctx, item.ID, 1, "10.0.0.1"); err != nil {
		t.Fatalf("undecided item must be deletable: %v", err)
	}
	if _, err := svc.Get(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted item should be gone, got %v", err)
	}
}

func TestDeleteBlockedByForeignTrailEntries(t *testing.T) {
	db := setupTestDB(t)
	trail := auditlog.NewRepository(db)
	svc := NewService(NewRepository(db), trail, auditlog.NewService(trail), nil, nil)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{Kind: KindAlert, Title: "Import surge at Mombasa", Priority: "high"}, 1, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A workflow action referenced this item from outside its own lifecycle
	userID := uint(4)
	if err := trail.Create(ctx, &auditlog.AuditLog{
		UserID:  &userID,
		RefID:   &item.ID,
		Action:  "APPLICATION_REVIEW_CLAIMED",
		Details: "{}",
		Status:  "success",
	}); err != nil {
		t.Fatalf("failed to seed trail entry: %v", err)
	}

	if err := svc.Delete(ctx, item.ID, 1, "10.0.0.1"); !errors.Is(err, ErrHasAuditTrail) {
		t.Fatalf("expected ErrHasAuditTrail, got %v", err)
	}
}
