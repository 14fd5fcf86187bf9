// Package services – SyncService
//
// This file implements tracker synchronization: for one customer it pulls the
// current tickets or issues from the external system and upserts them into
// the live record tables by natural key. Problems that concern the run rather
// than the caller (missing credentials, remote API failures, per-record write
// failures) are collected in SyncResult.Errors; only an unknown customer or a
// failure to read the customer is returned as an error.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/observability"
	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/tracker"
)

// TicketSource lists the current tickets of one Zendesk account.
type TicketSource interface {
	FetchTickets(ctx context.Context) ([]tracker.Ticket, error)
}

// IssueSource lists the current issues of one Jira site.
type IssueSource interface {
	FetchIssues(ctx context.Context) ([]tracker.Issue, error)
}

// SyncService synchronizes live records from Zendesk and Jira.
type SyncService struct {
	DB *gorm.DB

	// NewTicketSource and NewIssueSource build a client from a customer's
	// credentials. They are only called when the credentials are complete.
	NewTicketSource func(c domain.Customer) TicketSource
	NewIssueSource  func(c domain.Customer) IssueSource
}

// NewSyncService wires the real tracker clients with opts.
func NewSyncService(db *gorm.DB, opts tracker.Options) *SyncService {
	return &SyncService{
		DB: db,
		NewTicketSource: func(c domain.Customer) TicketSource {
			return tracker.NewZendeskClient(*c.ZendeskSubdomain, *c.ZendeskEmail, *c.ZendeskAPIToken, opts)
		},
		NewIssueSource: func(c domain.Customer) IssueSource {
			return tracker.NewJiraClient(*c.JiraHost, *c.JiraEmail, *c.JiraAPIToken, opts)
		},
	}
}

// SyncZendesk refreshes the customer's Zendesk tickets.
func (s *SyncService) SyncZendesk(ctx context.Context, customerID uint) (res domain.SyncResult, err error) {
	ctx, span := observability.StartSpan(ctx, "sync.zendesk", observability.CustomerAttr(customerID))
	defer func() { observability.EndSpan(span, err) }()

	res = domain.SyncResult{Errors: []string{}}
	c, err := s.customer(ctx, customerID)
	if err != nil {
		return res, err
	}
	if !c.HasZendeskCredentials() {
		res.Errors = append(res.Errors, fmt.Sprintf("Customer %s is missing required Zendesk credentials", c.CompanyName))
		return res, nil
	}

	tickets, err := s.NewTicketSource(*c).FetchTickets(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Sync failed: %v", err))
		s.logResult(ctx, observability.KindZendesk, customerID, res)
		return res, nil
	}
	for _, t := range tickets {
		rec := &domain.ZendeskTicket{
			CustomerID: customerID,
			TicketID:   t.ID,
			Subject:    t.Subject,
			Status:     t.Status,
			Requester:  t.Requester,
			LastUpdate: t.UpdatedAt,
			TicketURL:  t.URL,
		}
		if err := repo.UpsertTicket(ctx, s.DB, rec); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to sync ticket %d: %v", t.ID, err))
			observability.SyncRecord(observability.KindZendesk, false)
			continue
		}
		res.Synced++
		observability.SyncRecord(observability.KindZendesk, true)
	}
	s.logResult(ctx, observability.KindZendesk, customerID, res)
	return res, nil
}

// SyncJira refreshes the customer's Jira issues.
func (s *SyncService) SyncJira(ctx context.Context, customerID uint) (res domain.SyncResult, err error) {
	ctx, span := observability.StartSpan(ctx, "sync.jira", observability.CustomerAttr(customerID))
	defer func() { observability.EndSpan(span, err) }()

	res = domain.SyncResult{Errors: []string{}}
	c, err := s.customer(ctx, customerID)
	if err != nil {
		return res, err
	}
	if !c.HasJiraCredentials() {
		res.Errors = append(res.Errors, fmt.Sprintf("Customer %s is missing required Jira credentials", c.CompanyName))
		return res, nil
	}

	issues, err := s.NewIssueSource(*c).FetchIssues(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Sync failed: %v", err))
		s.logResult(ctx, observability.KindJira, customerID, res)
		return res, nil
	}
	for _, i := range issues {
		rec := &domain.JiraIssue{
			CustomerID: customerID,
			IssueKey:   i.Key,
			Summary:    i.Summary,
			Status:     i.Status,
			Assignee:   i.Assignee,
			Project:    i.Project,
			LastUpdate: i.UpdatedAt,
			IssueURL:   i.URL,
		}
		if err := repo.UpsertIssue(ctx, s.DB, rec); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to sync issue %s: %v", i.Key, err))
			observability.SyncRecord(observability.KindJira, false)
			continue
		}
		res.Synced++
		observability.SyncRecord(observability.KindJira, true)
	}
	s.logResult(ctx, observability.KindJira, customerID, res)
	return res, nil
}

func (s *SyncService) customer(ctx context.Context, id uint) (*domain.Customer, error) {
	c, err := repo.GetCustomer(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	return c, err
}

func (s *SyncService) logResult(ctx context.Context, kind string, customerID uint, res domain.SyncResult) {
	ev := logger(ctx).Info()
	if len(res.Errors) > 0 {
		ev = logger(ctx).Warn().Strs("errors", res.Errors)
	}
	ev.Str("kind", kind).Uint("customer_id", customerID).Int("synced", res.Synced).Msg("tracker sync")
}
