package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/http/middleware"
	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/services"
	"github.com/tbourn/go-support-tracker/internal/tracker"
)

// ---------- test DB + repo shims ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Minimal shim implementing services.CustomerRepo using repo package (like router.go)
type testCustomerRepo struct{}

func (testCustomerRepo) CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return repo.CreateCustomer(ctx, db, c)
}

func (testCustomerRepo) GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error) {
	return repo.GetCustomer(ctx, db, id)
}

func (testCustomerRepo) SaveCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return repo.SaveCustomer(ctx, db, c)
}

func (testCustomerRepo) DeleteCustomer(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteCustomer(ctx, db, id)
}

func (testCustomerRepo) CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountCustomers(ctx, db)
}

func (testCustomerRepo) ListCustomersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Customer, error) {
	return repo.ListCustomersPage(ctx, db, offset, limit)
}

func (testCustomerRepo) SearchCustomers(ctx context.Context, db *gorm.DB, q string, limit int) ([]domain.Customer, error) {
	return repo.SearchCustomers(ctx, db, q, limit)
}

type testIdemStore struct{ db *gorm.DB }

func (s testIdemStore) Lookup(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, scope, key, now)
}

func (s testIdemStore) Save(ctx context.Context, scope, key string, status int, body string) error {
	_, err := repo.CreateIdempotency(ctx, s.db, scope, key, status, body, time.Hour)
	return err
}

// ---------- fixture ----------

var reportDay = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db *gorm.DB
	h  *Handlers
	r  *gin.Engine

	tickets  []tracker.Ticket
	issues   []tracker.Issue
	fetchErr error
}

// newFixture wires real services over sqlite and registers the routes the
// router exposes.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	f := &fixture{db: db}
	clock := func() time.Time { return reportDay.Add(10 * time.Hour) }

	f.h = New(Deps{
		Customers:   services.NewCustomerService(db, testCustomerRepo{}),
		Records:     &services.RecordService{DB: db},
		Differences: &services.DifferenceService{DB: db, Now: clock},
		Snapshots:   &services.SnapshotService{DB: db, Now: clock},
		Sync:        f.syncService(db),
		Idempotency: testIdemStore{db: db},
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/customers", f.h.CreateCustomer)
	r.GET("/customers", f.h.ListCustomers)
	r.GET("/customers/search", f.h.SearchCustomers)
	r.GET("/customers/:id", f.h.GetCustomer)
	r.PATCH("/customers/:id", f.h.UpdateCustomer)
	r.DELETE("/customers/:id", f.h.DeleteCustomer)
	r.GET("/customers/:id/zendesk-tickets", f.h.ListTickets)
	r.GET("/customers/:id/jira-issues", f.h.ListIssues)
	r.GET("/customers/:id/differences", f.h.GetDifferences)
	r.POST("/customers/:id/sync/zendesk", f.h.SyncZendesk)
	r.POST("/customers/:id/sync/jira", f.h.SyncJira)
	r.POST("/snapshots/daily", f.h.WriteDailySnapshots)
	f.r = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, isStr := body.(string); isStr {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func (f *fixture) customer(t *testing.T, name string, withCreds bool) *domain.Customer {
	t.Helper()
	c := &domain.Customer{CompanyName: name, SlackChannel: "#" + name}
	if withCreds {
		c.ZendeskSubdomain, c.ZendeskEmail, c.ZendeskAPIToken = sp("acme"), sp("ops@acme.io"), sp("zt")
		c.JiraHost, c.JiraEmail, c.JiraAPIToken = sp("acme.atlassian.net"), sp("ops@acme.io"), sp("jt")
	}
	if err := f.db.Create(c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func sp(s string) *string { return &s }

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d; want %d; body=%s", w.Code, code, w.Body.String())
	}
}

func wantCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	wantStatus(t, w, status)
	if got := decode[ErrorResponse](t, w); got.Code != code {
		t.Fatalf("code = %q; want %q", got.Code, code)
	}
}
