// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-support-tracker/docs"
	"github.com/tbourn/go-support-tracker/internal/config"
	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/http/handlers"
	"github.com/tbourn/go-support-tracker/internal/http/middleware"
	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/services"
	"github.com/tbourn/go-support-tracker/internal/tracker"
)

// customerRepoShim adapts the repository free functions to the
// services.CustomerRepo interface expected by the CustomerService.
type customerRepoShim struct{}

// CreateCustomer proxies repo.CreateCustomer.
func (customerRepoShim) CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return repo.CreateCustomer(ctx, db, c)
}

// GetCustomer proxies repo.GetCustomer.
func (customerRepoShim) GetCustomer(ctx context.Context, db *gorm.DB, id uint) (*domain.Customer, error) {
	return repo.GetCustomer(ctx, db, id)
}

// SaveCustomer proxies repo.SaveCustomer.
func (customerRepoShim) SaveCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return repo.SaveCustomer(ctx, db, c)
}

// DeleteCustomer proxies repo.DeleteCustomer.
func (customerRepoShim) DeleteCustomer(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteCustomer(ctx, db, id)
}

// CountCustomers proxies repo.CountCustomers (pagination support).
func (customerRepoShim) CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountCustomers(ctx, db)
}

// ListCustomersPage proxies repo.ListCustomersPage (pagination support).
func (customerRepoShim) ListCustomersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Customer, error) {
	return repo.ListCustomersPage(ctx, db, offset, limit)
}

// SearchCustomers proxies repo.SearchCustomers.
func (customerRepoShim) SearchCustomers(ctx context.Context, db *gorm.DB, q string, limit int) ([]domain.Customer, error) {
	return repo.SearchCustomers(ctx, db, q, limit)
}

// idempotencyStore persists replayable responses in the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idempotencyStore) Lookup(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, scope, key, now)
}

func (s idempotencyStore) Save(ctx context.Context, scope, key string, status int, body string) error {
	_, err := repo.CreateIdempotency(ctx, s.db, scope, key, status, body, s.ttl)
	return err
}

// TrackerOptions maps the sync settings onto the tracker transport.
func TrackerOptions(cfg config.SyncConfig) tracker.Options {
	return tracker.Options{
		Timeout:    cfg.Timeout,
		RateRPS:    cfg.RateRPS,
		MaxRetries: cfg.MaxRetries,
		PageSize:   cfg.PageSize,
	}
}

// Services bundles the application services behind the API.
type Services struct {
	Customers   *services.CustomerService
	Records     *services.RecordService
	Differences *services.DifferenceService
	Snapshots   *services.SnapshotService
	Sync        *services.SyncService
}

// NewServices builds the default service graph over db.
func NewServices(db *gorm.DB, cfg config.Config) Services {
	return Services{
		Customers:   services.NewCustomerService(db, customerRepoShim{}),
		Records:     &services.RecordService{DB: db},
		Differences: &services.DifferenceService{DB: db},
		Snapshots:   &services.SnapshotService{DB: db},
		Sync:        services.NewSyncService(db, TrackerOptions(cfg.Sync)),
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, building the services from db. See RegisterRoutesWith.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	RegisterRoutesWith(r, db, cfg, NewServices(db, cfg))
}

// RegisterRoutesWith attaches all middleware and HTTP endpoints to the given
// Gin engine. It configures observability (tracing, metrics), idempotency and
// rate limiting, CORS and security headers, health and metrics endpoints, and
// then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with secret scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (responses), Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP and customer, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutesWith(r *gin.Engine, db *gorm.DB, cfg config.Config, svc Services) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compression, Prometheus metrics and /metrics endpoint
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	store := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := store.Lookup(ctx, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return rec != nil, nil
		},
	))

	// 8) Token-bucket rate limiter per client IP and customer
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByCustomerAndIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiBase := cfg.APIBasePath // e.g. "/api/v1"

	// Security headers (HSTS only when enabled and request is HTTPS).
	// Snapshot run results are never cached.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{joinPath(apiBase, "/snapshots")},
		EnablePolicy:    true,
		ExposeHeaders:   exposeHeaders,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: handlers ← services ← repo/db
	h := handlers.New(handlers.Deps{
		Customers:   svc.Customers,
		Records:     svc.Records,
		Differences: svc.Differences,
		Snapshots:   svc.Snapshots,
		Sync:        svc.Sync,
		Idempotency: store,
	})

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Customers
		api.POST("/customers", h.CreateCustomer)
		api.GET("/customers", h.ListCustomers)
		api.GET("/customers/search", h.SearchCustomers)
		api.GET("/customers/:id", h.GetCustomer)
		api.PATCH("/customers/:id", h.UpdateCustomer)
		api.DELETE("/customers/:id", h.DeleteCustomer)

		// Live records
		api.GET("/customers/:id/zendesk-tickets", h.ListTickets)
		api.GET("/customers/:id/jira-issues", h.ListIssues)

		// Sync
		api.POST("/customers/:id/sync/zendesk", h.SyncZendesk)
		api.POST("/customers/:id/sync/jira", h.SyncJira)

		// Differences and snapshots
		api.GET("/customers/:id/differences", h.GetDifferences)
		api.POST("/snapshots/daily", h.WriteDailySnapshots)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath appends p to an API base that may be "/" or empty.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
