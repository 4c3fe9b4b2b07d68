package application

import (
	"context"
	"errors"
	"testing"
)

type mockRepository struct {
	CreateFn         func(ctx context.Context, app *Application) error
	GetByIDFn        func(ctx context.Context, id string) (*Application, error)
	SaveFn           func(ctx context.Context, app *Application) error
	ListFn           func(ctx context.Context, filter ListFilter) ([]Application, int64, error)
	AddDirectorFn    func(ctx context.Context, d *Director) error
	GetDirectorFn    func(ctx context.Context, applicationID string, directorID uint) (*Director, error)
	SaveDirectorFn   func(ctx context.Context, d *Director) error
	RemoveDirectorFn func(ctx context.Context, applicationID string, directorID uint) error
	CountByStageFn   func(ctx context.Context) (map[Stage]int64, error)
}

func (m *mockRepository) Create(ctx context.Context, app *Application) error {
	return m.CreateFn(ctx, app)
}
func (m *mockRepository) GetByID(ctx context.Context, id string) (*Application, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockRepository) Save(ctx context.Context, app *Application) error {
	return m.SaveFn(ctx, app)
}
func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Application, int64, error) {
	return m.ListFn(ctx, filter)
}
func (m *mockRepository) AddDirector(ctx context.Context, d *Director) error {
	return m.AddDirectorFn(ctx, d)
}
func (m *mockRepository) GetDirector(ctx context.Context, applicationID string, directorID uint) (*Director, error) {
	return m.GetDirectorFn(ctx, applicationID, directorID)
}
func (m *mockRepository) SaveDirector(ctx context.Context, d *Director) error {
	return m.SaveDirectorFn(ctx, d)
}
func (m *mockRepository) RemoveDirector(ctx context.Context, applicationID string, directorID uint) error {
	return m.RemoveDirectorFn(ctx, applicationID, directorID)
}
func (m *mockRepository) CountByStage(ctx context.Context) (map[Stage]int64, error) {
	return m.CountByStageFn(ctx)
}

// memoryRepo backs the workflow tests with a single in-memory record so a
// scenario can be driven end to end through the service.
func memoryRepo(app *Application) *mockRepository {
	return &mockRepository{
		CreateFn: func(_ context.Context, a *Application) error {
			*app = *a
			return nil
		},
		GetByIDFn: func(_ context.Context, id string) (*Application, error) {
			if app.ID == "" || app.ID != id {
				return nil, ErrNotFound
			}
			copied := *app
			return &copied, nil
		},
		SaveFn: func(_ context.Context, a *Application) error {
			a.Version++
			*app = *a
			return nil
		},
	}
}

type mockLocker struct {
	AcquireFn func(ctx context.Context, applicationID string, reviewerID uint) (bool, error)
	ReleaseFn func(ctx context.Context, applicationID string, reviewerID uint) error
	HolderFn  func(ctx context.Context, applicationID string) (uint, error)
}

func (m *mockLocker) Acquire(ctx context.Context, applicationID string, reviewerID uint) (bool, error) {
	return m.AcquireFn(ctx, applicationID, reviewerID)
}
func (m *mockLocker) Release(ctx context.Context, applicationID string, reviewerID uint) error {
	if m.ReleaseFn == nil {
		return nil
	}
	return m.ReleaseFn(ctx, applicationID, reviewerID)
}
func (m *mockLocker) Holder(ctx context.Context, applicationID string) (uint, error) {
	if m.HolderFn == nil {
		return 0, nil
	}
	return m.HolderFn(ctx, applicationID)
}

func millerDraft() *Application {
	return &Application{
		ID:                  "app-1",
		StakeholderType:     StakeholderMiller,
		ApplicationType:     TypeRegistration,
		Category:            CategoryMill,
		CompanyName:         "Nzoia Sugar Mills Ltd",
		Email:               "info@nzoiasugar.co.ke",
		Phone:               "+254700000001",
		CrushingCapacityTCD: 3000,
		Status:              StatusDraft,
		Version:             1,
		CreatedBy:           7,
	}
}

func TestCreateDraftRejectsInvalidCategory(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil, nil)

	_, err := svc.CreateDraft(context.Background(), CreateDraftInput{
		StakeholderType: StakeholderImporter,
		ApplicationType: TypeLicense,
		Category:        CategoryMill,
	}, 7, "127.0.0.1")

	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestCreateDraftMillerRegistration(t *testing.T) {
	stored := &Application{}
	svc := NewService(memoryRepo(stored), nil, nil, nil)

	app, err := svc.CreateDraft(context.Background(), CreateDraftInput{
		StakeholderType: StakeholderMiller,
		ApplicationType: TypeRegistration,
		Category:        CategoryJaggery,
		CompanyName:     "Kabras Jaggery Works",
		Email:           "ops@kabrasjaggery.co.ke",
		Phone:           "+254711000002",
	}, 7, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if app.ID == "" {
		t.Error("draft should receive an id on creation")
	}
	if app.Status != StatusDraft {
		t.Errorf("new application should be draft, got %s", app.Status)
	}
	if app.Stage != nil {
		t.Error("draft should carry no stage")
	}
	if app.Version != 1 {
		t.Errorf("new draft version = %d, want 1", app.Version)
	}
}

func TestUpdateDraftRecomputesInvestmentTotal(t *testing.T) {
	app := millerDraft()
	svc := NewService(memoryRepo(app), nil, nil, nil)

	pre, land, plant := 50.0, 800.0, 1500.0
	vehicles, furniture, working, others := 100.0, 75.0, 350.0, 225.0

	updated, err := svc.UpdateDraft(context.Background(), "app-1", DraftPatch{
		PreExpenses:       &pre,
		LandBuildings:     &land,
		PlantEquipment:    &plant,
		Vehicles:          &vehicles,
		FurnitureFittings: &furniture,
		WorkingCapital:    &working,
		Others:            &others,
	}, 7, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Investment.Total != 3100 {
		t.Errorf("investment total = %.2f, want 3100.00", updated.Investment.Total)
	}
}

func TestUpdateDraftAfterSubmitIsImmutable(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageSubmission
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	name := "Renamed Ltd"
	_, err := svc.UpdateDraft(context.Background(), "app-1", DraftPatch{CompanyName: &name}, 7, "127.0.0.1")
	if !errors.Is(err, ErrImmutableState) {
		t.Fatalf("expected ErrImmutableState, got %v", err)
	}
}

func TestSubmitRequiresDeclarations(t *testing.T) {
	app := millerDraft()
	app.DeclarationAccuracy = true
	app.DeclarationCompliance = true
	// inspection consent left unchecked

	svc := NewService(memoryRepo(app), nil, nil, nil)

	_, err := svc.Submit(context.Background(), "app-1", 7, "127.0.0.1")
	if !errors.Is(err, ErrDeclarationIncomplete) {
		t.Fatalf("expected ErrDeclarationIncomplete, got %v", err)
	}
	if app.Status != StatusDraft {
		t.Errorf("failed submit must leave the draft untouched, status = %s", app.Status)
	}
}

func TestSubmitPermitRequiresTerms(t *testing.T) {
	app := millerDraft()
	app.ApplicationType = TypePermit
	app.Category = ""
	app.DeclarationAccuracy = true
	app.DeclarationCompliance = true
	app.DeclarationInspection = true
	// terms not agreed

	svc := NewService(memoryRepo(app), nil, nil, nil)

	_, err := svc.Submit(context.Background(), "app-1", 7, "127.0.0.1")
	if !errors.Is(err, ErrDeclarationIncomplete) {
		t.Fatalf("expected ErrDeclarationIncomplete for permit without terms, got %v", err)
	}
}

func TestSubmitRequiresFieldsByType(t *testing.T) {
	app := millerDraft()
	app.CrushingCapacityTCD = 0
	app.DeclarationAccuracy = true
	app.DeclarationCompliance = true
	app.DeclarationInspection = true

	svc := NewService(memoryRepo(app), nil, nil, nil)

	_, err := svc.Submit(context.Background(), "app-1", 7, "127.0.0.1")
	if !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("registration without crushing capacity: expected ErrMissingRequiredFields, got %v", err)
	}
}

func TestSubmitMovesToSubmissionStage(t *testing.T) {
	app := millerDraft()
	app.DeclarationAccuracy = true
	app.DeclarationCompliance = true
	app.DeclarationInspection = true

	svc := NewService(memoryRepo(app), nil, nil, nil)

	submitted, err := svc.Submit(context.Background(), "app-1", 7, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if submitted.Status != StatusSubmitted {
		t.Errorf("status = %s, want submitted", submitted.Status)
	}
	if submitted.Stage == nil || *submitted.Stage != StageSubmission {
		t.Error("submitted application should sit at the submission stage")
	}
	if submitted.SubmittedAt == nil {
		t.Error("submission timestamp should be set")
	}

	// A second submit must fail: the record is frozen
	if _, err := svc.Submit(context.Background(), "app-1", 7, "127.0.0.1"); !errors.Is(err, ErrImmutableState) {
		t.Fatalf("resubmit: expected ErrImmutableState, got %v", err)
	}
}

func TestAdvanceStageRejectsSkips(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageSubmission
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	if _, err := svc.AdvanceStage(context.Background(), "app-1", StageInspection, 3, "127.0.0.1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skipping review: expected ErrInvalidTransition, got %v", err)
	}

	advanced, err := svc.AdvanceStage(context.Background(), "app-1", StageReview, 3, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error advancing to review: %v", err)
	}
	if advanced.Stage == nil || *advanced.Stage != StageReview {
		t.Error("application should now sit at review")
	}
	if advanced.ReviewedBy == nil || *advanced.ReviewedBy != 3 {
		t.Error("advancing should record the reviewer")
	}
}

func TestAdvanceStageBlockedByForeignLock(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageReview
	app.Stage = &stage

	locks := &mockLocker{
		HolderFn: func(_ context.Context, _ string) (uint, error) { return 99, nil },
	}
	svc := NewService(memoryRepo(app), nil, nil, locks)

	if _, err := svc.AdvanceStage(context.Background(), "app-1", StageInspection, 3, "127.0.0.1"); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
}

func TestClaimReviewContention(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageReview
	app.Stage = &stage

	locks := &mockLocker{
		AcquireFn: func(_ context.Context, _ string, reviewerID uint) (bool, error) {
			return reviewerID == 3, nil
		},
	}
	svc := NewService(memoryRepo(app), nil, nil, locks)

	if err := svc.ClaimReview(context.Background(), "app-1", 3, "127.0.0.1"); err != nil {
		t.Fatalf("first claim should succeed: %v", err)
	}
	if err := svc.ClaimReview(context.Background(), "app-1", 4, "127.0.0.1"); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("contended claim: expected ErrLockHeld, got %v", err)
	}
}

func TestDecideApproveOnlyAtApproval(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageEvaluation
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	if _, err := svc.Decide(context.Background(), "app-1", "approve", "", 3, "127.0.0.1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approving at evaluation: expected ErrInvalidTransition, got %v", err)
	}
}

func TestDecideApproveFromApproval(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageApproval
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	decided, err := svc.Decide(context.Background(), "app-1", "approve", "", 3, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decided.Status != StatusApproved {
		t.Errorf("status = %s, want approved", decided.Status)
	}
	if decided.Stage == nil || *decided.Stage != StageIssuance {
		t.Error("approval should land the application at issuance")
	}
	if decided.DecidedAt == nil {
		t.Error("decision timestamp should be set")
	}
}

func TestDecideRejectFromApproval(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageApproval
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	decided, err := svc.Decide(context.Background(), "app-1", "reject", "Incomplete environmental impact assessment", 3, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decided.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", decided.Status)
	}
	if decided.RejectionReason == "" {
		t.Error("rejection reason should be recorded")
	}
}

func TestDecideRejectBlockedAtSubmission(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageSubmission
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	if _, err := svc.Decide(context.Background(), "app-1", "reject", "too early", 3, "127.0.0.1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("rejecting at submission: expected ErrInvalidTransition, got %v", err)
	}
}

func TestDecideTwiceIsImmutable(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageApproval
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	if _, err := svc.Decide(context.Background(), "app-1", "approve", "", 3, "127.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Decide(context.Background(), "app-1", "reject", "changed our minds", 3, "127.0.0.1"); !errors.Is(err, ErrImmutableState) {
		t.Fatalf("second decision: expected ErrImmutableState, got %v", err)
	}
}

func TestAttachDocumentReplacesSlot(t *testing.T) {
	app := millerDraft()
	app.Documents = map[string]interface{}{}

	svc := NewService(memoryRepo(app), nil, nil, nil)

	first := FileRef{FileName: "incorporation-v1.pdf", FileURL: "https://docs.board.go.ke/a/1"}
	if _, err := svc.AttachDocument(context.Background(), "app-1", "certificate_of_incorporation", first, 7, "127.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := FileRef{FileName: "incorporation-v2.pdf", FileURL: "https://docs.board.go.ke/a/2"}
	updated, err := svc.AttachDocument(context.Background(), "app-1", "certificate_of_incorporation", second, 7, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot, ok := updated.Documents["certificate_of_incorporation"].(map[string]interface{})
	if !ok {
		t.Fatal("slot should hold a file reference")
	}
	if slot["file_name"] != "incorporation-v2.pdf" {
		t.Errorf("slot file = %v, want the replacement", slot["file_name"])
	}
}

func TestAttachDocumentUnknownSlot(t *testing.T) {
	app := millerDraft()
	svc := NewService(memoryRepo(app), nil, nil, nil)

	_, err := svc.AttachDocument(context.Background(), "app-1", "tax_returns_2019", FileRef{}, 7, "127.0.0.1")
	if !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestDirectorsFrozenAfterSubmission(t *testing.T) {
	app := millerDraft()
	app.Status = StatusSubmitted
	stage := StageSubmission
	app.Stage = &stage

	svc := NewService(memoryRepo(app), nil, nil, nil)

	if _, err := svc.AddDirector(context.Background(), "app-1", DirectorInput{FullName: "Jane Wanjiku"}, 7, "127.0.0.1"); !errors.Is(err, ErrImmutableState) {
		t.Fatalf("adding director after submission: expected ErrImmutableState, got %v", err)
	}
	if err := svc.RemoveDirector(context.Background(), "app-1", 1, 7, "127.0.0.1"); !errors.Is(err, ErrImmutableState) {
		t.Fatalf("removing director after submission: expected ErrImmutableState, got %v", err)
	}
}

func TestGetUnknownApplication(t *testing.T) {
	svc := NewService(memoryRepo(&Application{}), nil, nil, nil)

	if _, err := svc.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
