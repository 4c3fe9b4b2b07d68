package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&Item{}, &Notification{}, &auditlog.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedItems(t *testing.T, repo Repository) {
	t.Helper()

	items := []*Item{
		{ID: "item-1", Kind: KindAlert, Title: "Sugar import surge at Mombasa port", Category: "imports", Priority: PriorityHigh},
		{ID: "item-2", Kind: KindMeeting, Title: "Full board sitting, 14 October", Category: "governance", Priority: PriorityMedium},
		{ID: "item-3", Kind: KindAlert, Title: "Cane poaching reported in Kakamega", Category: "field", Priority: PriorityHigh},
		{ID: "item-4", Kind: KindInsight, Title: "Q3 PRODUCTION up 12%", Category: "production", Priority: PriorityLow},
	}
	for _, item := range items {
		if err := repo.Create(context.Background(), item); err != nil {
			t.Fatalf("failed to seed %s: %v", item.ID, err)
		}
	}
}

func TestRepositoryListInsertionOrder(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedItems(t, repo)

	items, total, err := repo.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	for i, want := range []string{"item-1", "item-2", "item-3", "item-4"} {
		if items[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestRepositoryListFilters(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedItems(t, repo)
	ctx := context.Background()

	alerts, _, err := repo.List(ctx, ListFilter{Kind: KindAlert})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 2 {
		t.Errorf("kind filter: got %d, want 2", len(alerts))
	}

	high, _, err := repo.List(ctx, ListFilter{Priority: PriorityHigh})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(high) != 2 {
		t.Errorf("priority filter: got %d, want 2", len(high))
	}

	highAlertsInImports, _, err := repo.List(ctx, ListFilter{Kind: KindAlert, Priority: PriorityHigh, Category: "imports"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(highAlertsInImports) != 1 || highAlertsInImports[0].ID != "item-1" {
		t.Errorf("combined filters: expected only item-1")
	}
}

func TestRepositorySearchIsCaseInsensitive(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedItems(t, repo)

	got, _, err := repo.List(context.Background(), ListFilter{Search: "production"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "item-4" {
		t.Fatalf("search should match regardless of casing, got %d items", len(got))
	}

	got, _, err = repo.List(context.Background(), ListFilter{Search: "MOMBASA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "item-1" {
		t.Fatalf("uppercase search should still match, got %d items", len(got))
	}
}

func TestRepositorySoftDeleteHidesItem(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedItems(t, repo)
	ctx := context.Background()

	if err := repo.SoftDelete(ctx, "item-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.GetByID(ctx, "item-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted item should be gone from reads, got %v", err)
	}

	_, total, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("total after delete = %d, want 3", total)
	}

	if err := repo.SoftDelete(ctx, "item-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryReadTracking(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedItems(t, repo)
	ctx := context.Background()

	unread, err := repo.CountUnread(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread != 4 {
		t.Errorf("unread = %d, want 4", unread)
	}

	if err := repo.MarkRead(ctx, "item-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unread, _ = repo.CountUnread(ctx)
	if unread != 3 {
		t.Errorf("unread after one read = %d, want 3", unread)
	}

	onlyUnread, _, err := repo.List(ctx, ListFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(onlyUnread) != 3 {
		t.Errorf("unread filter: got %d, want 3", len(onlyUnread))
	}

	if err := repo.MarkAllRead(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unread, _ = repo.CountUnread(ctx)
	if unread != 0 {
		t.Errorf("unread after mark-all = %d, want 0", unread)
	}

	if err := repo.MarkRead(ctx, "no-such-item"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryPutRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedItems(t, repo)
	ctx := context.Background()

	before, err := repo.GetByID(ctx, "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Writing back an unchanged read must not drift any field
	if err := repo.Put(ctx, before); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := repo.GetByID(ctx, "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Title != before.Title || after.Priority != before.Priority ||
		after.Kind != before.Kind || after.Category != before.Category ||
		after.Read != before.Read {
		t.Errorf("round trip drifted: before %+v, after %+v", before, after)
	}

	// Put also updates in place
	after.Title = "Sugar import surge cleared"
	if err := repo.Put(ctx, after); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := repo.GetByID(ctx, "item-1")
	if got.Title != "Sugar import surge cleared" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestRepositoryPagination(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		item := &Item{ID: fmt.Sprintf("item-%d", i), Kind: KindInsight, Title: fmt.Sprintf("Insight %d", i), Priority: PriorityLow}
		if err := repo.Create(ctx, item); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	page, total, err := repo.List(ctx, ListFilter{Page: 3, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(page) != 1 || page[0].ID != "item-7" {
		t.Errorf("page 3 should hold only item-7, got %v", page)
	}
}

func TestRepositoryNotificationsPerUser(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for _, n := range []*Notification{
		{UserID: 1, Title: "Application advanced to review"},
		{UserID: 1, Title: "Application approved"},
		{UserID: 2, Title: "Application rejected"},
	} {
		if err := repo.CreateNotification(ctx, n); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	mine, total, err := repo.ListNotifications(ctx, 1, false, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("user 1 should see 2 notifications, got %d", total)
	}

	if err := repo.MarkNotificationRead(ctx, mine[0].ID, 1); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	unread, err := repo.CountUnreadNotifications(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	// A user cannot touch someone else's notification
	if err := repo.MarkNotificationRead(ctx, mine[1].ID, 2); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for foreign notification, got %v", err)
	}
}
