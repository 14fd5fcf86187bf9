// Package services – SnapshotService
//
// This file implements the daily snapshot writer. Each run copies every live
// Zendesk ticket and Jira issue, across all customers, into the snapshot
// tables stamped with a UTC day-key. The two kinds are independent units of
// work: both are always attempted, and a failure in one never hides the
// other's result.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/observability"
	"github.com/tbourn/go-support-tracker/internal/repo"
)

// SnapshotService writes the daily snapshots.
type SnapshotService struct {
	DB *gorm.DB
	// Now supplies "today"; defaults to time.Now.
	Now func() time.Time
}

// Today returns the current UTC day-key.
func (s *SnapshotService) Today() time.Time {
	if s.Now != nil {
		return domain.DayKey(s.Now())
	}
	return domain.DayKey(time.Now())
}

// WriteDaily snapshots every live record under the day-key of day. Re-running
// the same day replaces that day's rows. The returned counts are valid for
// each kind that succeeded even when the error is non-nil; the error joins
// the failure of every kind that did not.
func (s *SnapshotService) WriteDaily(ctx context.Context, day time.Time) (counts domain.SnapshotCounts, err error) {
	day = domain.DayKey(day)
	ctx, span := observability.StartSpan(ctx, "snapshots.write_daily")
	defer func() { observability.EndSpan(span, err) }()

	tickets, ticketErr := s.writeTickets(ctx, day)
	if ticketErr == nil {
		counts.TicketSnapshotsWritten = tickets
		observability.SnapshotsWritten(observability.KindZendesk, tickets)
	}
	issues, issueErr := s.writeIssues(ctx, day)
	if issueErr == nil {
		counts.IssueSnapshotsWritten = issues
		observability.SnapshotsWritten(observability.KindJira, issues)
	}

	err = errors.Join(ticketErr, issueErr)
	ev := logger(ctx).Info()
	if err != nil {
		ev = logger(ctx).Error().Err(err)
	}
	ev.Str("day", day.Format(domain.DateLayout)).
		Int("ticket_snapshots", counts.TicketSnapshotsWritten).
		Int("issue_snapshots", counts.IssueSnapshotsWritten).
		Msg("daily snapshot")
	return counts, err
}

func (s *SnapshotService) writeTickets(ctx context.Context, day time.Time) (int, error) {
	live, err := repo.ListAllTickets(ctx, s.DB)
	if err != nil {
		return 0, fmt.Errorf("zendesk snapshots: read live tickets: %w", err)
	}
	rows := make([]domain.ZendeskTicketSnapshot, 0, len(live))
	for _, t := range live {
		rows = append(rows, domain.SnapshotOfTicket(t, day))
	}
	n, err := repo.UpsertTicketSnapshots(ctx, s.DB, rows)
	if err != nil {
		return 0, fmt.Errorf("zendesk snapshots: write: %w", err)
	}
	return n, nil
}

func (s *SnapshotService) writeIssues(ctx context.Context, day time.Time) (int, error) {
	live, err := repo.ListAllIssues(ctx, s.DB)
	if err != nil {
		return 0, fmt.Errorf("jira snapshots: read live issues: %w", err)
	}
	rows := make([]domain.JiraIssueSnapshot, 0, len(live))
	for _, i := range live {
		rows = append(rows, domain.SnapshotOfIssue(i, day))
	}
	n, err := repo.UpsertIssueSnapshots(ctx, s.DB, rows)
	if err != nil {
		return 0, fmt.Errorf("jira snapshots: write: %w", err)
	}
	return n, nil
}
