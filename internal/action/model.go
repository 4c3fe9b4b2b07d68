package action

import "time"

// Kind distinguishes single-decision approvals from quorum votes.
type Kind string

const (
	KindApproval Kind = "approval"
	KindVote     Kind = "vote"
)

type ActionStatus string

const (
	StatusOpen     ActionStatus = "open"
	StatusResolved ActionStatus = "resolved"
)

// Decision outcomes. Approval actions take approve/reject/defer; vote
// actions take vote_yes/vote_no.
const (
	OutcomeApprove = "approve"
	OutcomeReject  = "reject"
	OutcomeDefer   = "defer"
	OutcomeVoteYes = "vote_yes"
	OutcomeVoteNo  = "vote_no"
)

// Action is a board item awaiting a decision: a single-signatory approval
// or a vote that resolves once the required number of ballots is in.
type Action struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Kind        Kind   `gorm:"size:20;not null;index" json:"kind"`
	Title       string `gorm:"size:300;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Optional link back to the application this action concerns
	ApplicationID *string `gorm:"size:36;index" json:"application_id,omitempty"`

	Priority string `gorm:"size:20" json:"priority,omitempty"`
	Category string `gorm:"size:100" json:"category,omitempty"`

	// Quorum for vote actions; ignored for approvals
	VotesRequired int `gorm:"default:0" json:"votes_required,omitempty"`

	Status  ActionStatus `gorm:"size:20;not null;index;default:open" json:"status"`
	Outcome string       `gorm:"size:30" json:"outcome,omitempty"`
	Version int          `gorm:"not null;default:1" json:"version"` // optimistic concurrency

	Decisions []DecisionRecord `gorm:"foreignKey:ActionID" json:"decisions"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedBy  uint       `gorm:"not null;index" json:"created_by"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Action) TableName() string {
	return "board_actions"
}

// DecisionRecord is one actor's decision on an action. Records are
// append-only; nothing ever updates or deletes them.
type DecisionRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActionID  string    `gorm:"size:36;not null;uniqueIndex:idx_decision_action_actor" json:"action_id"`
	ActorID   uint      `gorm:"not null;uniqueIndex:idx_decision_action_actor" json:"actor_id"`
	ActorName string    `gorm:"size:200" json:"actor_name"`
	Outcome   string    `gorm:"size:30;not null" json:"outcome"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DecisionRecord) TableName() string {
	return "board_action_decisions"
}

// ListFilter narrows action listings.
type ListFilter struct {
	Kind   Kind         `json:"kind"`
	Status ActionStatus `json:"status"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
}
