package application

// Stage is a named step in an application's fixed progression.
type Stage string

const (
	StageSubmission Stage = "submission"
	StageReview     Stage = "review"
	StageInspection Stage = "inspection"
	StageEvaluation Stage = "evaluation"
	StageApproval   Stage = "approval"
	StageIssuance   Stage = "issuance"
)

// stageOrder fixes the forward progression. Advancement is strictly
// sequential; the index never decreases.
var stageOrder = []Stage{
	StageSubmission,
	StageReview,
	StageInspection,
	StageEvaluation,
	StageApproval,
	StageIssuance,
}

// StageIndex returns the position of a stage in the fixed ordering,
// -1 for an unknown stage.
func StageIndex(s Stage) int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// NextStage returns the immediate successor of a stage. ok is false at
// the end of the pipeline or for an unknown stage.
func NextStage(current Stage) (Stage, bool) {
	idx := StageIndex(current)
	if idx < 0 || idx >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[idx+1], true
}

// CanAdvance reports whether next is the immediate successor of current.
func CanAdvance(current, next Stage) bool {
	successor, ok := NextStage(current)
	return ok && successor == next
}

// CanReject reports whether a submitted application at the given stage may
// be rejected. The board can withdraw an application from review onwards.
func CanReject(current Stage) bool {
	return StageIndex(current) >= StageIndex(StageReview)
}

// Progress derives the stage tracker for an application. Terminal
// rejection marks the remaining stages skipped.
func Progress(app *Application) []StageProgress {
	rows := make([]StageProgress, 0, len(stageOrder))

	if app.Status == StatusDraft || app.Stage == nil {
		for _, stage := range stageOrder {
			rows = append(rows, StageProgress{Stage: stage, Status: "pending"})
		}
		return rows
	}

	currentIdx := StageIndex(*app.Stage)
	for i, stage := range stageOrder {
		switch {
		case app.Status == StatusApproved:
			rows = append(rows, StageProgress{Stage: stage, Status: "completed"})
		case i < currentIdx:
			rows = append(rows, StageProgress{Stage: stage, Status: "completed"})
		case i == currentIdx:
			status := "current"
			if app.Status == StatusRejected {
				status = "completed"
			}
			rows = append(rows, StageProgress{Stage: stage, Status: status})
		default:
			status := "pending"
			if app.Status == StatusRejected {
				status = "skipped"
			}
			rows = append(rows, StageProgress{Stage: stage, Status: status})
		}
	}
	return rows
}
