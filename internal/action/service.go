package action

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
	ErrUnknownAction  = errors.New("action not found")
	ErrAlreadyDecided = errors.New("a decision has already been recorded")
	ErrInvalidOutcome = errors.New("outcome is not valid for this action kind")
	ErrInvalidQuorum  = errors.New("vote actions require a positive quorum")
)

// FeedPublisher pushes resolution events onto the notification feed.
type FeedPublisher interface {
	Publish(ctx context.Context, event string, payload map[string]interface{})
}

type Service struct {
	Repo         Repository
	AuditService auditlog.Service
	Feed         FeedPublisher
}

func NewService(r Repository, as auditlog.Service, feed FeedPublisher) *Service {
	return &Service{Repo: r, AuditService: as, Feed: feed}
}

var outcomesByKind = map[Kind]map[string]bool{
	KindApproval: {OutcomeApprove: true, OutcomeReject: true, OutcomeDefer: true},
	KindVote:     {OutcomeVoteYes: true, OutcomeVoteNo: true},
}

type CreateActionInput struct {
	Kind          Kind    `json:"kind" binding:"required,oneof=approval vote"`
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	ApplicationID *string `json:"application_id"`
	Priority      string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	Category      string  `json:"category"`
	VotesRequired int     `json:"votes_required"`
}

// CreateAction opens a board action for decision.
func (s *Service) CreateAction(ctx context.Context, in CreateActionInput, userID uint, ip string) (*Action, error) {
	if in.Kind == KindVote && in.VotesRequired <= 0 {
		return nil, ErrInvalidQuorum
	}

	a := &Action{
		ID:            uuid.NewString(),
		Kind:          in.Kind,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		ApplicationID: in.ApplicationID,
		Priority:      in.Priority,
		Category:      strings.TrimSpace(in.Category),
		VotesRequired: in.VotesRequired,
		Status:        StatusOpen,
		Version:       1,
		CreatedBy:     userID,
	}
	if a.Kind == KindApproval {
		a.VotesRequired = 0
	}

	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}

	log.Printf("🗳️ Board action opened: %s (%s)", a.Title, a.Kind)

	s.audit(ctx, &userID, &a.ID, "BOARD_ACTION_CREATED", map[string]interface{}{
		"kind":  a.Kind,
		"title": a.Title,
	}, ip, "success")

	return a, nil
}

// RecordDecision appends one actor's decision. Approval actions resolve on
// the first decision; vote actions resolve when the quorum is reached.
// Each actor decides at most once, and a resolved action takes no further
// decisions.
func (s *Service) RecordDecision(ctx context.Context, actionID string, actorID uint, actorName, outcome, comment, ip string) (*Action, error) {
	a, err := s.Repo.GetByID(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if a.Status == StatusResolved {
		s.audit(ctx, &actorID, &actionID, "BOARD_DECISION_FAILED", map[string]interface{}{
			"reason": "action already resolved",
		}, ip, "failure")
		return nil, ErrAlreadyDecided
	}

	if !outcomesByKind[a.Kind][outcome] {
		return nil, ErrInvalidOutcome
	}

	decided, err := s.Repo.HasDecisionBy(ctx, actionID, actorID)
	if err != nil {
		return nil, err
	}
	if decided {
		s.audit(ctx, &actorID, &actionID, "BOARD_DECISION_FAILED", map[string]interface{}{
			"reason": "actor has already decided",
		}, ip, "failure")
		return nil, ErrAlreadyDecided
	}

	record := &DecisionRecord{
		ActionID:  actionID,
		ActorID:   actorID,
		ActorName: actorName,
		Outcome:   outcome,
		Comment:   strings.TrimSpace(comment),
	}
	if err := s.Repo.AddDecision(ctx, record); err != nil {
		return nil, err
	}
	a.Decisions = append(a.Decisions, *record)

	resolved := false
	switch a.Kind {
	case KindApproval:
		// One signatory settles an approval
		a.Outcome = outcome
		resolved = true
	case KindVote:
		count, err := s.Repo.CountDecisions(ctx, actionID)
		if err != nil {
			return nil, err
		}
		if count >= int64(a.VotesRequired) {
			a.Outcome = tallyOutcome(a.Decisions)
			resolved = true
		}
	}

	if resolved {
		now := time.Now()
		a.Status = StatusResolved
		a.ResolvedAt = &now
		if err := s.Repo.Save(ctx, a); err != nil {
			return nil, err
		}

		log.Printf("✅ Board action resolved: %s → %s", a.Title, a.Outcome)

		s.publish(ctx, "action.resolved", map[string]interface{}{
			"action_id": a.ID,
			"title":     a.Title,
			"kind":      a.Kind,
			"outcome":   a.Outcome,
		})
	}

	s.audit(ctx, &actorID, &actionID, "BOARD_DECISION_RECORDED", map[string]interface{}{
		"outcome":  outcome,
		"resolved": resolved,
	}, ip, "success")

	return a, nil
}

// tallyOutcome settles a vote by simple majority of the ballots cast.
func tallyOutcome(decisions []DecisionRecord) string {
	var yes, no int
	for _, d := range decisions {
		switch d.Outcome {
		case OutcomeVoteYes:
			yes++
		case OutcomeVoteNo:
			no++
		}
	}
	if yes > no {
		return "passed"
	}
	return "failed"
}

func (s *Service) Get(ctx context.Context, id string) (*Action, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Action, int64, error) {
	return s.Repo.List(ctx, filter)
}

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
