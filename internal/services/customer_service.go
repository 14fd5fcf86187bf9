// Package services – CustomerService
//
// This file implements the CustomerService, which manages tracked customers
// and their tracker credentials. It normalizes and validates input, applies
// partial updates, and coordinates repository operations for creating,
// listing (with pagination), searching, and deleting customers.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

// CustomerRepo defines the repository contract required by CustomerService.
type CustomerRepo interface {
	CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error
	GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error)
	SaveCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error
	DeleteCustomer(ctx context.Context, db *gorm.DB, id uint) error
	CountCustomers(ctx context.Context, db *gorm.DB) (int64, error)
	ListCustomersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Customer, error)
	SearchCustomers(ctx context.Context, db *gorm.DB, q string, limit int) ([]domain.Customer, error)
}

// CustomerInput carries the fields of a new customer. Nil credentials stay
// unset.
type CustomerInput struct {
	CompanyName      string
	SlackChannel     string
	ZendeskSubdomain *string
	ZendeskAPIToken  *string
	ZendeskEmail     *string
	JiraHost         *string
	JiraAPIToken     *string
	JiraEmail        *string
}

// CustomerPatch carries a partial update. A nil field is left unchanged; a
// credential set to a blank string is cleared.
type CustomerPatch struct {
	CompanyName      *string
	SlackChannel     *string
	ZendeskSubdomain *string
	ZendeskAPIToken  *string
	ZendeskEmail     *string
	JiraHost         *string
	JiraAPIToken     *string
	JiraEmail        *string
}

// CustomerService provides customer-level operations.
type CustomerService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the customer repository used by this service.
	Repo CustomerRepo

	// SearchLimit caps the number of search results.
	SearchLimit int
}

// NewCustomerService constructs a CustomerService with default limits.
func NewCustomerService(db *gorm.DB, r CustomerRepo) *CustomerService {
	return &CustomerService{DB: db, Repo: r, SearchLimit: 50}
}

// Create validates in and inserts a new customer.
func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	c := &domain.Customer{
		CompanyName:      strings.TrimSpace(in.CompanyName),
		SlackChannel:     strings.TrimSpace(in.SlackChannel),
		ZendeskSubdomain: optional(in.ZendeskSubdomain),
		ZendeskAPIToken:  optional(in.ZendeskAPIToken),
		ZendeskEmail:     optional(in.ZendeskEmail),
		JiraHost:         optional(in.JiraHost),
		JiraAPIToken:     optional(in.JiraAPIToken),
		JiraEmail:        optional(in.JiraEmail),
	}
	if c.CompanyName == "" || c.SlackChannel == "" {
		return nil, ErrInvalidCustomer
	}
	if err := s.Repo.CreateCustomer(ctx, s.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the customer or ErrCustomerNotFound.
func (s *CustomerService) Get(ctx context.Context, id uint) (*domain.Customer, error) {
	c, err := s.Repo.GetCustomer(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	return c, err
}

// ListPage returns a page of customers, newest first, with the total count.
// It applies defaults for invalid page/pageSize.
func (s *CustomerService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountCustomers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Customer{}, 0, nil
	}

	items, err := s.Repo.ListCustomersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Search finds customers whose company name or Slack channel contains q,
// ignoring case.
func (s *CustomerService) Search(ctx context.Context, q string) ([]domain.Customer, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	limit := s.SearchLimit
	if limit <= 0 {
		limit = 50
	}
	out, err := s.Repo.SearchCustomers(ctx, s.DB, q, limit)
	if out == nil && err == nil {
		out = []domain.Customer{}
	}
	return out, err
}

// Update applies p to the customer and persists every column.
func (s *CustomerService) Update(ctx context.Context, id uint, p CustomerPatch) (*domain.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CompanyName != nil {
		c.CompanyName = strings.TrimSpace(*p.CompanyName)
	}
	if p.SlackChannel != nil {
		c.SlackChannel = strings.TrimSpace(*p.SlackChannel)
	}
	if c.CompanyName == "" || c.SlackChannel == "" {
		return nil, ErrInvalidCustomer
	}
	patch(&c.ZendeskSubdomain, p.ZendeskSubdomain)
	patch(&c.ZendeskAPIToken, p.ZendeskAPIToken)
	patch(&c.ZendeskEmail, p.ZendeskEmail)
	patch(&c.JiraHost, p.JiraHost)
	patch(&c.JiraAPIToken, p.JiraAPIToken)
	patch(&c.JiraEmail, p.JiraEmail)

	if err := s.Repo.SaveCustomer(ctx, s.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the customer with its records and snapshots.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	err := s.Repo.DeleteCustomer(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCustomerNotFound
	}
	return err
}

// optional trims v and maps blank to nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func patch(dst **string, v *string) {
	if v != nil {
		*dst = optional(v)
	}
}
