package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

type syncFunc func(ctx context.Context, customerID uint) (domain.SyncResult, error)

func (h *Handlers) runSync(c *gin.Context, run syncFunc) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	if h.replayed(c) {
		return
	}
	res, err := run(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeSyncFailed)
		return
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	h.respond(c, http.StatusOK, res)
}

// SyncZendesk godoc
// @ID          syncZendesk
// @Summary     Pull Zendesk tickets for a customer
// @Description Upserts every ticket returned by Zendesk. Per-ticket failures are reported in errors; the call still succeeds.
// @Tags        Sync
// @Produce     json
//
// @Param       id               path    int     true  "Customer ID"  minimum(1)
// @Param       Idempotency-Key  header  string  false "Replays the first result for a repeated key"
//
// @Success     200  {object} domain.SyncResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id}/sync/zendesk [post]
func (h *Handlers) SyncZendesk(c *gin.Context) { h.runSync(c, h.sync.SyncZendesk) }

// SyncJira godoc
// @ID          syncJira
// @Summary     Pull Jira issues for a customer
// @Description Upserts every issue returned by Jira. Per-issue failures are reported in errors; the call still succeeds.
// @Tags        Sync
// @Produce     json
//
// @Param       id               path    int     true  "Customer ID"  minimum(1)
// @Param       Idempotency-Key  header  string  false "Replays the first result for a repeated key"
//
// @Success     200  {object} domain.SyncResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id}/sync/jira [post]
func (h *Handlers) SyncJira(c *gin.Context) { h.runSync(c, h.sync.SyncJira) }
