package action

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&Action{}, &DecisionRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedAction(t *testing.T, repo Repository) *Action {
	t.Helper()

	a := &Action{
		ID:      "act-1",
		Kind:    KindApproval,
		Title:   "Ratify Mumias receivership exit plan",
		Status:  StatusOpen,
		Version: 1,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to seed action: %v", err)
	}
	return a
}

func TestRepositorySaveGuardedByVersion(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	seedAction(t, repo)

	first, err := repo.GetByID(ctx, "act-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := repo.GetByID(ctx, "act-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first.Status = StatusResolved
	first.Outcome = OutcomeApprove
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first resolver should win: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version = %d, want 2 after save", first.Version)
	}

	second.Status = StatusResolved
	second.Outcome = OutcomeReject
	if err := repo.Save(ctx, second); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("stale resolver: expected ErrAlreadyDecided, got %v", err)
	}

	// The stored outcome is the winner's
	stored, err := repo.GetByID(ctx, "act-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Outcome != OutcomeApprove {
		t.Errorf("outcome = %s, want approve", stored.Outcome)
	}
}

func TestRepositorySaveOnMissingAction(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	ghost := &Action{ID: "ghost", Status: StatusResolved, Version: 1}
	if err := repo.Save(context.Background(), ghost); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRepositoryRejectsDuplicateDecisionPerActor(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	seedAction(t, repo)

	if err := repo.AddDecision(ctx, &DecisionRecord{ActionID: "act-1", ActorID: 3, ActorName: "Board Chair", Outcome: OutcomeApprove}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.AddDecision(ctx, &DecisionRecord{ActionID: "act-1", ActorID: 3, ActorName: "Board Chair", Outcome: OutcomeReject}); err == nil {
		t.Fatal("second decision by the same actor must violate the unique index")
	}

	count, err := repo.CountDecisions(ctx, "act-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("decisions = %d, want 1", count)
	}
}
