// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the snapshot store: bulk day-stamped
// writes and per-customer, per-day reads.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

// SnapshotBatchSize bounds the rows sent per INSERT statement.
const SnapshotBatchSize = 500

// UpsertTicketSnapshots persists rows in one transaction. A row whose
// (customer_id, ticket_id, snapshot_date) already exists is overwritten, so
// re-running a day replaces that day's snapshot. It returns the number of
// rows written.
func UpsertTicketSnapshots(ctx context.Context, db *gorm.DB, rows []domain.ZendeskTicketSnapshot) (int, error) {
	return upsertBatches(ctx, db, rows,
		[]clause.Column{{Name: "customer_id"}, {Name: "ticket_id"}, {Name: "snapshot_date"}},
		[]string{"subject", "status", "requester", "last_update", "ticket_url"},
	)
}

// UpsertIssueSnapshots is UpsertTicketSnapshots for Jira issues.
func UpsertIssueSnapshots(ctx context.Context, db *gorm.DB, rows []domain.JiraIssueSnapshot) (int, error) {
	return upsertBatches(ctx, db, rows,
		[]clause.Column{{Name: "customer_id"}, {Name: "issue_key"}, {Name: "snapshot_date"}},
		[]string{"summary", "status", "assignee", "project", "last_update", "issue_url"},
	)
}

func upsertBatches[T any](ctx context.Context, db *gorm.DB, rows []T, conflict []clause.Column, update []string) (int, error) {
	// gorm rejects Create on an empty slice.
	if len(rows) == 0 {
		return 0, nil
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: conflict, DoUpdates: clause.AssignmentColumns(update)}).
			CreateInBatches(rows, SnapshotBatchSize).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ListTicketSnapshots returns the customer's ticket snapshots for exactly
// the given day-key, in insertion order.
func ListTicketSnapshots(ctx context.Context, db *gorm.DB, customerID uint, day time.Time) ([]domain.ZendeskTicketSnapshot, error) {
	var out []domain.ZendeskTicketSnapshot
	err := db.WithContext(ctx).
		Where("customer_id = ? AND snapshot_date = ?", customerID, domain.DayKey(day)).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ListIssueSnapshots returns the customer's issue snapshots for exactly the
// given day-key, in insertion order.
func ListIssueSnapshots(ctx context.Context, db *gorm.DB, customerID uint, day time.Time) ([]domain.JiraIssueSnapshot, error) {
	var out []domain.JiraIssueSnapshot
	err := db.WithContext(ctx).
		Where("customer_id = ? AND snapshot_date = ?", customerID, domain.DayKey(day)).
		Order("id asc").
		Find(&out).Error
	return out, err
}
