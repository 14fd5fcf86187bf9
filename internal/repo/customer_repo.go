// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Customer
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a customer is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateCustomer inserts c and fills in its generated ID and timestamps.
func CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return db.WithContext(ctx).Create(c).Error
}

// GetCustomer fetches a customer by ID, or ErrNotFound if missing.
func GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error) {
	var c domain.Customer
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CustomerExists reports whether a customer with the given ID exists.
func CustomerExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Customer{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CountCustomers returns the total number of customers.
func CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Customer{}).Count(&total).Error
	return total, err
}

// ListCustomersPage returns a page of customers, newest first. Ties on
// created_at are broken by ID so pages are stable.
func ListCustomersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SearchCustomers returns customers whose company name or Slack channel
// contains q, compared case-insensitively on the folded search key.
func SearchCustomers(ctx context.Context, db *gorm.DB, q string, limit int) ([]domain.Customer, error) {
	pattern := "%" + escapeLike(domain.FoldSearch(q)) + "%"
	var out []domain.Customer
	err := db.WithContext(ctx).
		Where(`search_key LIKE ? ESCAPE '\'`, pattern).
		Order("company_name asc").
		Order("id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SaveCustomer writes every column of c. Hooks refresh the search key.
func SaveCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return db.WithContext(ctx).Save(c).Error
}

// DeleteCustomer removes a customer together with its live records and
// snapshots in one transaction. Children are deleted explicitly so the
// result does not depend on the backend enforcing ON DELETE CASCADE.
func DeleteCustomer(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{
			&domain.ZendeskTicketSnapshot{},
			&domain.JiraIssueSnapshot{},
			&domain.ZendeskTicket{},
			&domain.JiraIssue{},
		} {
			if err := tx.Where("customer_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&domain.Customer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
