// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

// CustomersStats returns aggregate metadata for the customers table: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the table is empty, the returned count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total customers
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func CustomersStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.Customer{}))
}

// TicketsStats is CustomersStats for one customer's live Zendesk tickets.
func TicketsStats(ctx context.Context, db *gorm.DB, customerID uint) (int64, *time.Time, error) {
	return tableStats(db.WithContext(ctx).Model(&domain.ZendeskTicket{}).Where("customer_id = ?", customerID))
}

// IssuesStats is CustomersStats for one customer's live Jira issues.
func IssuesStats(ctx context.Context, db *gorm.DB, customerID uint) (int64, *time.Time, error) {
	return tableStats(db.WithContext(ctx).Model(&domain.JiraIssue{}).Where("customer_id = ?", customerID))
}

func tableStats(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	// Count
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
