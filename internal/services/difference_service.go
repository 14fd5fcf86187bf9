// Package services – DifferenceService
//
// This file implements the difference engine entry point. It resolves the
// report date, loads the customer's live records and the baseline snapshots
// from the previous calendar day, and delegates classification to package
// diff. The engine never writes; every call is a pure function of store state
// and the clock, so concurrent calls are safe.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/diff"
	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/observability"
	"github.com/tbourn/go-support-tracker/internal/repo"
)

// DiffOptions toggles optional passes of the engine.
type DiffOptions struct {
	// IncludeRemoved appends a "removed" entry for every baseline record no
	// longer present in the live set.
	IncludeRemoved bool
}

// DifferenceService computes daily difference reports.
type DifferenceService struct {
	DB *gorm.DB
	// Now supplies "today"; defaults to time.Now.
	Now func() time.Time
}

// ParseReportDate resolves a report date. Blank means the UTC calendar date
// of now. Anything else must be exactly YYYY-MM-DD.
func ParseReportDate(date string, now time.Time) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return domain.DayKey(now), nil
	}
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Compute builds the report for customerID on date. The baseline is the set
// of snapshots stamped exactly one day before date; there is no fallback to
// older days. An unknown customer yields empty lists. Any store failure fails
// the whole call.
func (s *DifferenceService) Compute(ctx context.Context, customerID uint, date string, opts DiffOptions) (_ *domain.DailyDifferences, err error) {
	ctx, span := observability.StartSpan(ctx, "differences.compute", observability.CustomerAttr(customerID))
	defer func() { observability.EndSpan(span, err) }()

	day, err := ParseReportDate(date, s.now())
	if err != nil {
		return nil, err
	}
	baseline := day.AddDate(0, 0, -1)

	tickets, err := repo.ListTicketsByCustomer(ctx, s.DB, customerID)
	if err != nil {
		return nil, fmt.Errorf("load zendesk tickets: %w", err)
	}
	ticketSnaps, err := repo.ListTicketSnapshots(ctx, s.DB, customerID, baseline)
	if err != nil {
		return nil, fmt.Errorf("load zendesk snapshots: %w", err)
	}
	issues, err := repo.ListIssuesByCustomer(ctx, s.DB, customerID)
	if err != nil {
		return nil, fmt.Errorf("load jira issues: %w", err)
	}
	issueSnaps, err := repo.ListIssueSnapshots(ctx, s.DB, customerID, baseline)
	if err != nil {
		return nil, fmt.Errorf("load jira snapshots: %w", err)
	}

	out := &domain.DailyDifferences{
		CustomerID:         customerID,
		Date:               day.Format(domain.DateLayout),
		ZendeskDifferences: diff.Tickets(tickets, ticketSnaps, opts.IncludeRemoved),
		JiraDifferences:    diff.Issues(issues, issueSnaps, opts.IncludeRemoved),
	}

	for _, d := range out.ZendeskDifferences {
		observability.DifferenceEmitted(observability.KindZendesk, string(d.ChangeType))
	}
	for _, d := range out.JiraDifferences {
		observability.DifferenceEmitted(observability.KindJira, string(d.ChangeType))
	}
	logger(ctx).Debug().
		Uint("customer_id", customerID).
		Str("date", out.Date).
		Int("zendesk", len(out.ZendeskDifferences)).
		Int("jira", len(out.JiraDifferences)).
		Msg("differences computed")
	return out, nil
}

func (s *DifferenceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
