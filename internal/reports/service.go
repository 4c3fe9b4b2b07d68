package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type Service struct {
	Repo     Repository
	Exporter Exporter
}

func NewService(repo Repository, exporter Exporter) *Service {
	return &Service{Repo: repo, Exporter: exporter}
}

const timeLayout = "2006-01-02 15:04:05"

// ExportRegister renders a named register in the requested format.
func (s *Service) ExportRegister(ctx context.Context, register, format string) ([]byte, string, string, error) {
	title := fmt.Sprintf("%s_register_%s", register, time.Now().Format("20060102_150405"))

	switch register {
	case RegisterApplications:
		rows, err := s.Repo.ApplicationRegister(ctx)
		if err != nil {
			return nil, "", "", err
		}
		headers := []string{"ID", "Company", "Stakeholder", "Type", "Category", "Status", "Stage", "Investment Total", "Submitted", "Decided"}
		return s.Exporter.Export(title, format, headers, applicationRows(rows))

	case RegisterDecisions:
		rows, err := s.Repo.DecisionRegister(ctx)
		if err != nil {
			return nil, "", "", err
		}
		headers := []string{"Action ID", "Title", "Kind", "Actor ID", "Actor", "Outcome", "Comment", "Decided At"}
		return s.Exporter.Export(title, format, headers, decisionRows(rows))

	case RegisterAuditTrail:
		rows, err := s.Repo.AuditRegister(ctx)
		if err != nil {
			return nil, "", "", err
		}
		headers := []string{"ID", "User ID", "Ref ID", "Action", "Status", "IP Address", "Timestamp"}
		return s.Exporter.Export(title, format, headers, auditRows(rows))

	default:
		return nil, "", "", fmt.Errorf("unknown register: %s", register)
	}
}

func (s *Service) Summary(ctx context.Context) (*DashboardSummary, error) {
	return s.Repo.Summary(ctx)
}

func applicationRows(rows []ApplicationRegisterRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.ID,
			r.CompanyName,
			r.StakeholderType,
			r.ApplicationType,
			r.Category,
			r.Status,
			r.Stage,
			strconv.FormatFloat(r.InvestmentTotal, 'f', 2, 64),
			formatTime(r.SubmittedAt),
			formatTime(r.DecidedAt),
		})
	}
	return out
}

func decisionRows(rows []DecisionRegisterRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.ActionID,
			r.ActionTitle,
			r.Kind,
			strconv.FormatUint(uint64(r.ActorID), 10),
			r.ActorName,
			r.Outcome,
			r.Comment,
			r.DecidedAt.Format(timeLayout),
		})
	}
	return out
}

func auditRows(rows []AuditRegisterRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		userID := ""
		if r.UserID != nil {
			userID = strconv.FormatUint(uint64(*r.UserID), 10)
		}
		out = append(out, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			userID,
			r.RefID,
			r.Action,
			r.Status,
			r.IPAddress,
			r.Timestamp.Format(timeLayout),
		})
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
