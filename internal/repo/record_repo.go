// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the live
// Zendesk ticket and Jira issue mirrors.
//
// Listings are ordered by primary key, which is the enumeration order the
// difference engine preserves in its reports. Upserts are keyed on the
// natural key (customer_id + ticket_id / issue_key) so a re-sync updates rows
// in place instead of inserting duplicates.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

// ListTicketsByCustomer returns the customer's live tickets in ID order.
func ListTicketsByCustomer(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.ZendeskTicket, error) {
	var out []domain.ZendeskTicket
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ListAllTickets returns every live ticket across all customers in ID order.
func ListAllTickets(ctx context.Context, db *gorm.DB) ([]domain.ZendeskTicket, error) {
	var out []domain.ZendeskTicket
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// UpsertTicket inserts t or, when (customer_id, ticket_id) already exists,
// overwrites its mutable fields.
func UpsertTicket(ctx context.Context, db *gorm.DB, t *domain.ZendeskTicket) error {
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "ticket_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"subject", "status", "requester", "last_update", "ticket_url", "updated_at"}),
		}).
		Create(t).Error
}

// ListIssuesByCustomer returns the customer's live issues in ID order.
func ListIssuesByCustomer(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.JiraIssue, error) {
	var out []domain.JiraIssue
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ListAllIssues returns every live issue across all customers in ID order.
func ListAllIssues(ctx context.Context, db *gorm.DB) ([]domain.JiraIssue, error) {
	var out []domain.JiraIssue
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// UpsertIssue inserts i or, when (customer_id, issue_key) already exists,
// overwrites its mutable fields.
func UpsertIssue(ctx context.Context, db *gorm.DB, i *domain.JiraIssue) error {
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "issue_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary", "status", "assignee", "project", "last_update", "issue_url", "updated_at"}),
		}).
		Create(i).Error
}
