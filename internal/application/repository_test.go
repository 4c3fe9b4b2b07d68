package application

import (
	"context"
	"errors"
	"fmt"
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

	if err := db.AutoMigrate(&Application{}, &Director{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func seedApplication(t *testing.T, repo Repository, id string) *Application {
	t.Helper()

	app := &Application{
		ID:              id,
		StakeholderType: StakeholderMiller,
		ApplicationType: TypeRegistration,
		Category:        CategoryMill,
		CompanyName:     "Chemelil Sugar Company",
		Email:           "records@chemelil.co.ke",
		Phone:           "+254722000003",
		Status:          StatusDraft,
		Version:         1,
		Documents:       map[string]interface{}{},
		CreatedBy:       7,
	}
	if err := repo.Create(context.Background(), app); err != nil {
		t.Fatalf("failed to seed application: %v", err)
	}
	return app
}

func TestRepositoryGetByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedApplication(t, repo, "app-1")

	got, err := repo.GetByID(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CompanyName != "Chemelil Sugar Company" {
		t.Errorf("company name = %q", got.CompanyName)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositorySaveOptimisticConcurrency(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedApplication(t, repo, "app-1")

	first, err := repo.GetByID(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := repo.GetByID(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first.CompanyName = "Chemelil Sugar Company (Receivership)"
	if err := repo.Save(context.Background(), first); err != nil {
		t.Fatalf("first save should succeed: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after save = %d, want 2", first.Version)
	}

	second.County = "Kisumu"
	if err := repo.Save(context.Background(), second); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("stale save: expected ErrConcurrencyConflict, got %v", err)
	}
	if second.Version != 1 {
		t.Errorf("failed save must not advance the local version, got %d", second.Version)
	}
}

func TestRepositorySaveMissingRow(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	ghost := &Application{ID: "ghost", Version: 1, Status: StatusDraft}
	if err := repo.Save(context.Background(), ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryListFiltersAndOrder(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		seedApplication(t, repo, fmt.Sprintf("app-%d", i))
	}

	// Move app-2 into the pipeline
	app2, _ := repo.GetByID(ctx, "app-2")
	stage := StageReview
	app2.Status = StatusSubmitted
	app2.Stage = &stage
	if err := repo.Save(ctx, app2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, total, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 applications, got %d (total %d)", len(all), total)
	}
	for i, want := range []string{"app-1", "app-2", "app-3"} {
		if all[i].ID != want {
			t.Errorf("position %d: got %s, want %s (insertion order)", i, all[i].ID, want)
		}
	}

	submitted, total, err := repo.List(ctx, ListFilter{Status: StatusSubmitted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(submitted) != 1 || submitted[0].ID != "app-2" {
		t.Fatalf("status filter: expected only app-2, got %d rows", len(submitted))
	}

	atReview, _, err := repo.List(ctx, ListFilter{Stage: StageReview})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(atReview) != 1 || atReview[0].ID != "app-2" {
		t.Fatalf("stage filter: expected only app-2")
	}
}

func TestRepositoryListPagination(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		seedApplication(t, repo, fmt.Sprintf("app-%d", i))
	}

	page2, total, err := repo.List(ctx, ListFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page2) != 2 || page2[0].ID != "app-3" {
		t.Errorf("page 2 should start at app-3, got %v", page2)
	}
}

func TestRepositoryDirectors(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	seedApplication(t, repo, "app-1")

	d := &Director{ApplicationID: "app-1", FullName: "Peter Otieno", Nationality: "Kenyan"}
	if err := repo.AddDirector(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetDirector(ctx, "app-1", d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.IDCopyRef = "https://docs.board.go.ke/d/1"
	if err := repo.SaveDirector(ctx, got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	app, err := repo.GetByID(ctx, "app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(app.Directors) != 1 || app.Directors[0].IDCopyRef == "" {
		t.Fatal("director should be preloaded with the saved document ref")
	}

	if err := repo.RemoveDirector(ctx, "app-1", d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.RemoveDirector(ctx, "app-1", d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double remove: expected ErrNotFound, got %v", err)
	}

	// A director on another application is out of reach
	if _, err := repo.GetDirector(ctx, "other-app", 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryCountByStage(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	stages := []Stage{StageReview, StageReview, StageApproval}
	for i, s := range stages {
		app := seedApplication(t, repo, fmt.Sprintf("app-%d", i+1))
		stage := s
		app.Status = StatusSubmitted
		app.Stage = &stage
		if err := repo.Save(ctx, app); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	seedApplication(t, repo, "app-draft") // drafts are not counted

	counts, err := repo.CountByStage(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[StageReview] != 2 {
		t.Errorf("review count = %d, want 2", counts[StageReview])
	}
	if counts[StageApproval] != 1 {
		t.Errorf("approval count = %d, want 1", counts[StageApproval])
	}
}
