package reports

import "time"

// Report registers and formats served by the reporting surface.
const (
	RegisterApplications = "applications"
	RegisterDecisions    = "decisions"
	RegisterAuditTrail   = "audit_trail"

	FormatCSV   = "csv"
	FormatExcel = "xlsx"
	FormatPDF   = "pdf"
)

// ApplicationRegisterRow is one line of the application register.
type ApplicationRegisterRow struct {
	ID              string
	CompanyName     string
	StakeholderType string
	ApplicationType string
	Category        string
	Status          string
	Stage           string
	InvestmentTotal float64
	SubmittedAt     *time.Time
	DecidedAt       *time.Time
}

// DecisionRegisterRow is one recorded decision with its action context.
type DecisionRegisterRow struct {
	ActionID    string
	ActionTitle string
	Kind        string
	ActorID     uint
	ActorName   string
	Outcome     string
	Comment     string
	DecidedAt   time.Time
}

// AuditRegisterRow mirrors the audit trail for export.
type AuditRegisterRow struct {
	ID        uint
	UserID    *uint
	RefID     string
	Action    string
	Status    string
	IPAddress string
	Timestamp time.Time
}

// DashboardSummary backs the landing-page cards.
type DashboardSummary struct {
	TotalApplications    int64            `json:"total_applications"`
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`

	// status counts nested per stakeholder type, e.g. miller -> approved -> 3
	ApplicationsByStakeholder map[string]map[string]int64 `json:"applications_by_stakeholder"`

	PendingByStage   map[string]int64 `json:"pending_by_stage"`
	OpenActions      int64            `json:"open_actions"`
	UnreadFeedItems  int64            `json:"unread_feed_items"`
	AlertsByPriority map[string]int64 `json:"alerts_by_priority"`
	MeetingsThisWeek int64            `json:"meetings_this_week"`
}
