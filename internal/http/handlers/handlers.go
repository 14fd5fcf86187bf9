// Package handlers exposes the tracker's REST endpoints.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including conditional
// and idempotent-replay responses).
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/http/middleware"
	"github.com/tbourn/go-support-tracker/internal/services"
	"github.com/tbourn/go-support-tracker/internal/utils"
)

//
// Service contracts (context-aware)
//

// CustomerService manages tracked customers.
type CustomerService interface {
	Create(ctx context.Context, in services.CustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, id uint) (*domain.Customer, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Customer, int64, error)
	Search(ctx context.Context, q string) ([]domain.Customer, error)
	Update(ctx context.Context, id uint, p services.CustomerPatch) (*domain.Customer, error)
	Delete(ctx context.Context, id uint) error
}

// RecordService lists a customer's live tracker records.
type RecordService interface {
	Tickets(ctx context.Context, customerID uint) ([]domain.ZendeskTicket, error)
	Issues(ctx context.Context, customerID uint) ([]domain.JiraIssue, error)
}

// DifferenceService computes daily difference reports.
type DifferenceService interface {
	Compute(ctx context.Context, customerID uint, date string, opts services.DiffOptions) (*domain.DailyDifferences, error)
}

// SnapshotService writes the daily snapshots.
type SnapshotService interface {
	Today() time.Time
	WriteDaily(ctx context.Context, day time.Time) (domain.SnapshotCounts, error)
}

// SyncService pulls records from the external trackers.
type SyncService interface {
	SyncZendesk(ctx context.Context, customerID uint) (domain.SyncResult, error)
	SyncJira(ctx context.Context, customerID uint) (domain.SyncResult, error)
}

// IdempotencyStore persists responses of unsafe requests by (scope, key).
type IdempotencyStore interface {
	// Lookup returns the unexpired record, or an error when there is none.
	Lookup(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error)
	// Save stores the response body; a concurrent duplicate is not an error
	// callers need to act on.
	Save(ctx context.Context, scope, key string, status int, body string) error
}

//
// Handler wiring
//

// Deps are the services a Handlers instance is bound to. Idempotency may be
// nil, which disables replay.
type Deps struct {
	Customers   CustomerService
	Records     RecordService
	Differences DifferenceService
	Snapshots   SnapshotService
	Sync        SyncService
	Idempotency IdempotencyStore
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	customers   CustomerService
	records     RecordService
	differences DifferenceService
	snapshots   SnapshotService
	sync        SyncService
	idem        IdempotencyStore
}

// New constructs and returns a Handlers instance bound to d.
func New(d Deps) *Handlers {
	return &Handlers{
		customers:   d.Customers,
		records:     d.Records,
		differences: d.Differences,
		snapshots:   d.Snapshots,
		sync:        d.Sync,
		idem:        d.Idempotency,
	}
}

//
// Helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// customerID parses the :id path parameter, answering 400 when invalid.
func customerID(c *gin.Context) (uint, bool) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "customer id must be a positive integer")
		return 0, false
	}
	return id, true
}

// etagMatch sets a weak ETag and reports whether the client already has it.
func etagMatch(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	inm := c.GetHeader("If-None-Match")
	return inm != "" && inm == etag
}

// replayed serves a stored response for the request's Idempotency-Key, if
// one exists, and reports whether it did.
func (h *Handlers) replayed(c *gin.Context) bool {
	key, present := middleware.GetIdempotencyKey(c)
	if !present || h.idem == nil {
		return false
	}
	rec, err := h.idem.Lookup(c.Request.Context(), middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil || rec == nil {
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Response))
	return true
}

// respond writes body and, when the request carries an Idempotency-Key,
// stores it for replay. Storage is best effort.
func (h *Handlers) respond(c *gin.Context, status int, body any) {
	if key, present := middleware.GetIdempotencyKey(c); present && h.idem != nil {
		if raw, err := json.Marshal(body); err == nil {
			if err := h.idem.Save(c.Request.Context(), middleware.IdempotencyScope(c), key, status, string(raw)); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Str("key", key).Msg("idempotency store failed")
			}
		}
	}
	ok(c, status, body)
}
