package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/repo"
)

// RecordService exposes a customer's live Zendesk tickets and Jira issues.
type RecordService struct {
	DB *gorm.DB
}

// Tickets returns the customer's live tickets in enumeration order.
func (s *RecordService) Tickets(ctx context.Context, customerID uint) ([]domain.ZendeskTicket, error) {
	if err := ensureCustomer(ctx, s.DB, customerID); err != nil {
		return nil, err
	}
	out, err := repo.ListTicketsByCustomer(ctx, s.DB, customerID)
	if out == nil && err == nil {
		out = []domain.ZendeskTicket{}
	}
	return out, err
}

// Issues returns the customer's live issues in enumeration order.
func (s *RecordService) Issues(ctx context.Context, customerID uint) ([]domain.JiraIssue, error) {
	if err := ensureCustomer(ctx, s.DB, customerID); err != nil {
		return nil, err
	}
	out, err := repo.ListIssuesByCustomer(ctx, s.DB, customerID)
	if out == nil && err == nil {
		out = []domain.JiraIssue{}
	}
	return out, err
}

// ensureCustomer maps a missing customer to ErrCustomerNotFound.
func ensureCustomer(ctx context.Context, db *gorm.DB, id uint) error {
	ok, err := repo.CustomerExists(ctx, db, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCustomerNotFound
	}
	return nil
}
