package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwangik8/sugar-board-backend/internal/auditlog"
)

var (
	ErrNotFound              = errors.New("application not found")
	ErrImmutableState        = errors.New("application is no longer editable")
	ErrInvalidTransition     = errors.New("invalid stage transition")
	ErrDeclarationIncomplete = errors.New("all declarations must be accepted before submission")
	ErrMissingRequiredFields = errors.New("required fields are missing for this application type")
	ErrInvalidCategory       = errors.New("category is not allowed for this stakeholder and application type")
	ErrConcurrencyConflict   = errors.New("application was modified concurrently, re-read and retry")
	ErrLockHeld              = errors.New("another reviewer currently holds this application")
	ErrUnknownSlot           = errors.New("unknown document slot")
)

// Locker is the advisory review lock: one reviewer per application at a
// time, released on stage advance or explicitly.
type Locker interface {
	Acquire(ctx context.Context, applicationID string, reviewerID uint) (bool, error)
	Release(ctx context.Context, applicationID string, reviewerID uint) error
	Holder(ctx context.Context, applicationID string) (uint, error)
}

// FeedPublisher pushes workflow events onto the notification feed.
type FeedPublisher interface {
	Publish(ctx context.Context, event string, payload map[string]interface{})
}

type Service struct {
	Repo         Repository
	AuditService auditlog.Service
	Feed         FeedPublisher
	Locks        Locker
}

func NewService(r Repository, as auditlog.Service, feed FeedPublisher, locks Locker) *Service {
	return &Service{
		Repo:         r,
		AuditService: as,
		Feed:         feed,
		Locks:        locks,
	}
}

// allowedCategories maps stakeholder/application-type pairs to the
// categories an applicant may choose. Pairs absent from the map take no
// category at all.
var allowedCategories = map[StakeholderType]map[ApplicationType][]Category{
	StakeholderMiller: {
		TypeRegistration: {CategoryMill, CategoryJaggery},
	},
}

func categoryAllowed(st StakeholderType, at ApplicationType, cat Category) bool {
	cats, ok := allowedCategories[st][at]
	if !ok {
		return cat == ""
	}
	for _, c := range cats {
		if c == cat {
			return true
		}
	}
	return false
}

// companyDocumentSlots are the recognised company-level upload slots.
var companyDocumentSlots = map[string]bool{
	"certificate_of_incorporation": true,
	"kra_pin_certificate":          true,
	"cr12":                         true,
	"business_plan":                true,
	"feasibility_study":            true,
	"land_ownership_documents":     true,
	"environmental_impact_license": true,
}

// directorDocumentSlots are the three required per-director slots.
var directorDocumentSlots = map[string]bool{
	"id_copy":      true,
	"pin_cert":     true,
	"conduct_cert": true,
}

// ========== DRAFTING ==========

type CreateDraftInput struct {
	StakeholderType StakeholderType `json:"stakeholder_type" binding:"required"`
	ApplicationType ApplicationType `json:"application_type" binding:"required"`
	Category        Category        `json:"category"`
	CompanyName     string          `json:"company_name"`
	PostalAddress   string          `json:"postal_address"`
	County          string          `json:"county"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
}

// CreateDraft opens a new draft application for a stakeholder account.
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput, userID uint, ip string) (*Application, error) {
	if !categoryAllowed(in.StakeholderType, in.ApplicationType, in.Category) {
		s.audit(ctx, &userID, nil, "APPLICATION_DRAFT_CREATE_FAILED", map[string]interface{}{
			"stakeholder_type": in.StakeholderType,
			"application_type": in.ApplicationType,
			"category":         in.Category,
			"reason":           "invalid category",
		}, ip, "failure")
		return nil, ErrInvalidCategory
	}

	app := &Application{
		ID:              uuid.NewString(),
		StakeholderType: in.StakeholderType,
		ApplicationType: in.ApplicationType,
		Category:        in.Category,
		CompanyName:     strings.TrimSpace(in.CompanyName),
		PostalAddress:   strings.TrimSpace(in.PostalAddress),
		County:          strings.TrimSpace(in.County),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Status:          StatusDraft,
		Version:         1,
		Documents:       map[string]interface{}{},
		CreatedBy:       userID,
	}

	if err := s.Repo.Create(ctx, app); err != nil {
		s.audit(ctx, &userID, nil, "APPLICATION_DRAFT_CREATE_FAILED", map[string]interface{}{
			"company_name": app.CompanyName,
			"error":        err.Error(),
		}, ip, "failure")
		return nil, err
	}

	log.Printf("📝 Draft application created: %s (%s/%s)", app.ID, app.StakeholderType, app.ApplicationType)

	s.audit(ctx, &userID, &app.ID, "APPLICATION_DRAFT_CREATED", map[string]interface{}{
		"stakeholder_type": app.StakeholderType,
		"application_type": app.ApplicationType,
		"category":         app.Category,
		"company_name":     app.CompanyName,
	}, ip, "success")

	return app, nil
}

// UpdateDraft applies a patch to a draft. The investment total is
// recomputed from the line items after every apply; it can never be set
// directly.
func (s *Service) UpdateDraft(ctx context.Context, id string, patch DraftPatch, userID uint, ip string) (*Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status != StatusDraft {
		s.audit(ctx, &userID, &id, "APPLICATION_DRAFT_UPDATE_FAILED", map[string]interface{}{
			"status": app.Status,
			"reason": "not editable after submission",
		}, ip, "failure")
		return nil, ErrImmutableState
	}

	applyPatch(app, patch)
	app.Investment.Total = app.Investment.Sum()

	if err := s.Repo.Save(ctx, app); err != nil {
		s.audit(ctx, &userID, &id, "APPLICATION_DRAFT_UPDATE_FAILED", map[string]interface{}{
			"error": err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, &userID, &id, "APPLICATION_DRAFT_UPDATED", map[string]interface{}{
		"investment_total": app.Investment.Total,
	}, ip, "success")

	return app, nil
}

func applyPatch(app *Application, p DraftPatch) {
	if p.CompanyName != nil {
		app.CompanyName = strings.TrimSpace(*p.CompanyName)
	}
	if p.PostalAddress != nil {
		app.PostalAddress = strings.TrimSpace(*p.PostalAddress)
	}
	if p.County != nil {
		app.County = strings.TrimSpace(*p.County)
	}
	if p.Email != nil {
		app.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		app.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.CrushingCapacityTCD != nil {
		app.CrushingCapacityTCD = *p.CrushingCapacityTCD
	}
	if p.AnnualCapacityTonnes != nil {
		app.AnnualCapacityTonnes = *p.AnnualCapacityTonnes
	}

	if p.PreExpenses != nil {
		app.Investment.PreExpenses = *p.PreExpenses
	}
	if p.LandBuildings != nil {
		app.Investment.LandBuildings = *p.LandBuildings
	}
	if p.PlantEquipment != nil {
		app.Investment.PlantEquipment = *p.PlantEquipment
	}
	if p.Vehicles != nil {
		app.Investment.Vehicles = *p.Vehicles
	}
	if p.FurnitureFittings != nil {
		app.Investment.FurnitureFittings = *p.FurnitureFittings
	}
	if p.WorkingCapital != nil {
		app.Investment.WorkingCapital = *p.WorkingCapital
	}
	if p.Others != nil {
		app.Investment.Others = *p.Others
	}

	if p.DeclarationAccuracy != nil {
		app.DeclarationAccuracy = *p.DeclarationAccuracy
	}
	if p.DeclarationCompliance != nil {
		app.DeclarationCompliance = *p.DeclarationCompliance
	}
	if p.DeclarationInspection != nil {
		app.DeclarationInspection = *p.DeclarationInspection
	}
	if p.AgreeTerms != nil {
		app.AgreeTerms = *p.AgreeTerms
	}
}

// ========== DOCUMENTS & DIRECTORS ==========

// AttachDocument records a file reference against a company document
// slot. Attaching to an occupied slot replaces the previous reference.
// Only drafts can be changed; submission freezes the record.
func (s *Service) AttachDocument(ctx context.Context, id, slot string, ref FileRef, userID uint, ip string) (*Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusDraft {
		s.audit(ctx, &userID, &id, "APPLICATION_DOCUMENT_ATTACH_FAILED", map[string]interface{}{
			"slot":   slot,
			"reason": "not editable after submission",
		}, ip, "failure")
		return nil, ErrImmutableState
	}
	if !companyDocumentSlots[slot] {
		return nil, ErrUnknownSlot
	}

	if app.Documents == nil {
		app.Documents = map[string]interface{}{}
	}
	app.Documents[slot] = map[string]interface{}{
		"file_name":    ref.FileName,
		"file_url":     ref.FileURL,
		"file_size":    ref.FileSize,
		"content_type": ref.ContentType,
		"uploaded_at":  ref.UploadedAt.Format(time.RFC3339),
	}

	if err := s.Repo.Save(ctx, app); err != nil {
		return nil, err
	}

	s.audit(ctx, &userID, &id, "APPLICATION_DOCUMENT_ATTACHED", map[string]interface{}{
		"slot":      slot,
		"file_name": ref.FileName,
	}, ip, "success")

	return app, nil
}

type DirectorInput struct {
	FullName    string `json:"full_name" binding:"required"`
	Nationality string `json:"nationality"`
}

// AddDirector appends a director sub-record to a draft.
func (s *Service) AddDirector(ctx context.Context, id string, in DirectorInput, userID uint, ip string) (*Director, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusDraft {
		return nil, ErrImmutableState
	}

	d := &Director{
		ApplicationID: id,
		FullName:      strings.TrimSpace(in.FullName),
		Nationality:   strings.TrimSpace(in.Nationality),
	}
	if err := s.Repo.AddDirector(ctx, d); err != nil {
		return nil, err
	}

	s.audit(ctx, &userID, &id, "APPLICATION_DIRECTOR_ADDED", map[string]interface{}{
		"director_name": d.FullName,
	}, ip, "success")

	return d, nil
}

// AttachDirectorDocument fills one of the three required director slots.
// Directors are fixed at submission, so this follows the same draft-only
// rule as company documents.
func (s *Service) AttachDirectorDocument(ctx context.Context, id string, directorID uint, slot string, ref FileRef, userID uint, ip string) error {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if app.Status != StatusDraft {
		return ErrImmutableState
	}
	if !directorDocumentSlots[slot] {
		return ErrUnknownSlot
	}

	d, err := s.Repo.GetDirector(ctx, id, directorID)
	if err != nil {
		return err
	}

	switch slot {
	case "id_copy":
		d.IDCopyRef = ref.FileURL
	case "pin_cert":
		d.PINCertRef = ref.FileURL
	case "conduct_cert":
		d.ConductCertRef = ref.FileURL
	}

	if err := s.Repo.SaveDirector(ctx, d); err != nil {
		return err
	}

	s.audit(ctx, &userID, &id, "APPLICATION_DIRECTOR_DOCUMENT_ATTACHED", map[string]interface{}{
		"director_id": directorID,
		"slot":        slot,
	}, ip, "success")

	return nil
}

// RemoveDirector deletes a director from a draft.
func (s *Service) RemoveDirector(ctx context.Context, id string, directorID uint, userID uint, ip string) error {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if app.Status != StatusDraft {
		return ErrImmutableState
	}

	if err := s.Repo.RemoveDirector(ctx, id, directorID); err != nil {
		return err
	}

	s.audit(ctx, &userID, &id, "APPLICATION_DIRECTOR_REMOVED", map[string]interface{}{
		"director_id": directorID,
	}, ip, "success")

	return nil
}

// ========== SUBMISSION ==========

// Submit freezes a draft and enters it into the review pipeline at the
// submission stage. Validation runs before any mutation; a failed submit
// leaves the draft untouched.
func (s *Service) Submit(ctx context.Context, id string, userID uint, ip string) (*Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status != StatusDraft {
		s.audit(ctx, &userID, &id, "APPLICATION_SUBMIT_FAILED", map[string]interface{}{
			"status": app.Status,
			"reason": "already submitted",
		}, ip, "failure")
		return nil, ErrImmutableState
	}

	if !declarationsComplete(app) {
		s.audit(ctx, &userID, &id, "APPLICATION_SUBMIT_FAILED", map[string]interface{}{
			"reason": "declarations incomplete",
		}, ip, "failure")
		return nil, ErrDeclarationIncomplete
	}

	if missing := missingRequiredFields(app); len(missing) > 0 {
		s.audit(ctx, &userID, &id, "APPLICATION_SUBMIT_FAILED", map[string]interface{}{
			"reason":         "missing required fields",
			"missing_fields": missing,
		}, ip, "failure")
		return nil, ErrMissingRequiredFields
	}

	now := time.Now()
	stage := StageSubmission
	app.Status = StatusSubmitted
	app.Stage = &stage
	app.SubmittedAt = &now

	if err := s.Repo.Save(ctx, app); err != nil {
		s.audit(ctx, &userID, &id, "APPLICATION_SUBMIT_FAILED", map[string]interface{}{
			"error": err.Error(),
		}, ip, "failure")
		return nil, err
	}

	log.Printf("✅ Application submitted: %s (%s)", app.ID, app.CompanyName)

	s.audit(ctx, &userID, &id, "APPLICATION_SUBMITTED", map[string]interface{}{
		"stakeholder_type": app.StakeholderType,
		"application_type": app.ApplicationType,
		"company_name":     app.CompanyName,
	}, ip, "success")

	s.publish(ctx, "application.submitted", map[string]interface{}{
		"application_id":   app.ID,
		"company_name":     app.CompanyName,
		"application_type": app.ApplicationType,
		"stage":            StageSubmission,
	})

	return app, nil
}

func declarationsComplete(app *Application) bool {
	if !app.DeclarationAccuracy || !app.DeclarationCompliance || !app.DeclarationInspection {
		return false
	}
	if app.ApplicationType == TypePermit && !app.AgreeTerms {
		return false
	}
	return true
}

func missingRequiredFields(app *Application) []string {
	var missing []string

	if strings.TrimSpace(app.CompanyName) == "" {
		missing = append(missing, "company_name")
	}
	if strings.TrimSpace(app.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(app.Phone) == "" {
		missing = append(missing, "phone")
	}

	switch app.ApplicationType {
	case TypeRegistration:
		if app.Category == "" {
			missing = append(missing, "category")
		}
		if app.CrushingCapacityTCD <= 0 {
			missing = append(missing, "crushing_capacity_tcd")
		}
	case TypeLicense:
		if strings.TrimSpace(app.County) == "" {
			missing = append(missing, "county")
		}
	case TypeLetterOfIntent:
		if app.Investment.Total <= 0 {
			missing = append(missing, "investment")
		}
	}

	return missing
}

// ========== REVIEW PIPELINE ==========

// ClaimReview takes the advisory review lock for a reviewer.
func (s *Service) ClaimReview(ctx context.Context, id string, reviewerID uint, ip string) error {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if app.Status != StatusSubmitted {
		return ErrInvalidTransition
	}

	if s.Locks != nil {
		ok, err := s.Locks.Acquire(ctx, id, reviewerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLockHeld
		}
	}

	s.audit(ctx, &reviewerID, &id, "APPLICATION_REVIEW_CLAIMED", nil, ip, "success")
	return nil
}

// ReleaseReview gives the advisory lock back without advancing.
func (s *Service) ReleaseReview(ctx context.Context, id string, reviewerID uint, ip string) error {
	if s.Locks != nil {
		if err := s.Locks.Release(ctx, id, reviewerID); err != nil {
			return err
		}
	}
	s.audit(ctx, &reviewerID, &id, "APPLICATION_REVIEW_RELEASED", nil, ip, "success")
	return nil
}

// AdvanceStage moves a submitted application to the immediate successor
// stage. Skipping and going backwards are both rejected; this is the only
// mutation permitted between submission and decision.
func (s *Service) AdvanceStage(ctx context.Context, id string, next Stage, reviewerID uint, ip string) (*Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status != StatusSubmitted || app.Stage == nil {
		s.audit(ctx, &reviewerID, &id, "APPLICATION_STAGE_ADVANCE_FAILED", map[string]interface{}{
			"status": app.Status,
			"reason": "not in review pipeline",
		}, ip, "failure")
		return nil, ErrInvalidTransition
	}

	if s.Locks != nil {
		holder, err := s.Locks.Holder(ctx, id)
		if err != nil {
			return nil, err
		}
		if holder != 0 && holder != reviewerID {
			return nil, ErrLockHeld
		}
	}

	current := *app.Stage
	if !CanAdvance(current, next) {
		s.audit(ctx, &reviewerID, &id, "APPLICATION_STAGE_ADVANCE_FAILED", map[string]interface{}{
			"current_stage":   current,
			"requested_stage": next,
			"reason":          "not the immediate successor",
		}, ip, "failure")
		return nil, ErrInvalidTransition
	}

	app.Stage = &next
	app.ReviewedBy = &reviewerID

	if err := s.Repo.Save(ctx, app); err != nil {
		s.audit(ctx, &reviewerID, &id, "APPLICATION_STAGE_ADVANCE_FAILED", map[string]interface{}{
			"error": err.Error(),
		}, ip, "failure")
		return nil, err
	}

	// The lock is released on stage advance
	if s.Locks != nil {
		if err := s.Locks.Release(ctx, id, reviewerID); err != nil {
			log.Printf("⚠️ Failed to release review lock for %s: %v", id, err)
		}
	}

	s.audit(ctx, &reviewerID, &id, "APPLICATION_STAGE_ADVANCED", map[string]interface{}{
		"from_stage": current,
		"to_stage":   next,
	}, ip, "success")

	s.publish(ctx, "application.stage_advanced", map[string]interface{}{
		"application_id": app.ID,
		"company_name":   app.CompanyName,
		"from_stage":     current,
		"to_stage":       next,
		"notify_user_id": app.CreatedBy,
	})

	return app, nil
}

// Decide records the board's terminal decision. Approval is only legal at
// the approval stage and passes through issuance to the approved state;
// rejection is open from review onwards.
func (s *Service) Decide(ctx context.Context, id, outcome, reason string, reviewerID uint, ip string) (*Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status == StatusApproved || app.Status == StatusRejected {
		s.audit(ctx, &reviewerID, &id, "APPLICATION_DECISION_FAILED", map[string]interface{}{
			"status": app.Status,
			"reason": "already decided",
		}, ip, "failure")
		return nil, ErrImmutableState
	}
	if app.Status != StatusSubmitted || app.Stage == nil {
		return nil, ErrInvalidTransition
	}

	now := time.Now()

	switch outcome {
	case "approve":
		if *app.Stage != StageApproval {
			s.audit(ctx, &reviewerID, &id, "APPLICATION_DECISION_FAILED", map[string]interface{}{
				"stage":  *app.Stage,
				"reason": "approval only legal at the approval stage",
			}, ip, "failure")
			return nil, ErrInvalidTransition
		}
		// Approve passes through issuance straight to the terminal state
		stage := StageIssuance
		app.Stage = &stage
		app.Status = StatusApproved
		app.DecidedAt = &now

	case "reject":
		if !CanReject(*app.Stage) {
			s.audit(ctx, &reviewerID, &id, "APPLICATION_DECISION_FAILED", map[string]interface{}{
				"stage":  *app.Stage,
				"reason": "rejection requires review stage or later",
			}, ip, "failure")
			return nil, ErrInvalidTransition
		}
		app.Status = StatusRejected
		app.RejectionReason = strings.TrimSpace(reason)
		app.DecidedAt = &now

	default:
		return nil, ErrInvalidTransition
	}

	app.ReviewedBy = &reviewerID

	if err := s.Repo.Save(ctx, app); err != nil {
		s.audit(ctx, &reviewerID, &id, "APPLICATION_DECISION_FAILED", map[string]interface{}{
			"error": err.Error(),
		}, ip, "failure")
		return nil, err
	}

	if s.Locks != nil {
		if err := s.Locks.Release(ctx, id, reviewerID); err != nil {
			log.Printf("⚠️ Failed to release review lock for %s: %v", id, err)
		}
	}

	action := "APPLICATION_APPROVED"
	event := "application.approved"
	if app.Status == StatusRejected {
		action = "APPLICATION_REJECTED"
		event = "application.rejected"
	}

	log.Printf("⚖️ Application %s: %s (%s)", outcome, app.ID, app.CompanyName)

	s.audit(ctx, &reviewerID, &id, action, map[string]interface{}{
		"company_name":     app.CompanyName,
		"rejection_reason": app.RejectionReason,
	}, ip, "success")

	s.publish(ctx, event, map[string]interface{}{
		"application_id": app.ID,
		"company_name":   app.CompanyName,
		"outcome":        outcome,
		"notify_user_id": app.CreatedBy,
	})

	return app, nil
}

// ========== READS ==========

func (s *Service) Get(ctx context.Context, id string) (*Application, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Application, int64, error) {
	return s.Repo.List(ctx, filter)
}

// GetProgress derives the stage tracker rows for the status page.
func (s *Service) GetProgress(ctx context.Context, id string) ([]StageProgress, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return Progress(app), nil
}

// PendingByStage powers the dashboard pipeline card.
func (s *Service) PendingByStage(ctx context.Context) (map[Stage]int64, error) {
	return s.Repo.CountByStage(ctx)
}

// ========== HELPERS ==========

func (s *Service) audit(ctx context.Context, userID *uint, refID *string, action string, details map[string]interface{}, ip, status string) {
	if s.AuditService == nil {
		return
	}
	if err := s.AuditService.LogAction(ctx, userID, refID, action, details, ip, status); err != nil {
		log.Printf("❌ Audit log error: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, event string, payload map[string]interface{}) {
	if s.Feed == nil {
		return
	}
	s.Feed.Publish(ctx, event, payload)
}
