// Record HTTP handlers.
//
// Read-only views of a customer's live tracker records:
//   - GET /customers/{id}/zendesk-tickets
//   - GET /customers/{id}/jira-issues
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/services"
)

type statsFunc func(ctx context.Context, db *gorm.DB, customerID uint) (int64, *time.Time, error)

// recordsNotModified sets a weak ETag for the customer's records of one
// kind and reports whether the client copy is current. Unknown customers
// never match so the 404 path stays intact.
func (h *Handlers) recordsNotModified(c *gin.Context, kind string, id uint, stats statsFunc) bool {
	svc, isSvc := h.records.(*services.RecordService)
	if !isSvc || svc.DB == nil {
		return false
	}
	ctx := c.Request.Context()
	if exists, err := repo.CustomerExists(ctx, svc.DB, id); err != nil || !exists {
		return false
	}
	count, maxTS, err := stats(ctx, svc.DB, id)
	if err != nil {
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	return etagMatch(c, fmt.Sprintf(`W/"%s:%d:%d:%d"`, kind, id, count, ts))
}

// ListTickets godoc
// @ID          listZendeskTickets
// @Summary     List a customer's Zendesk tickets
// @Tags        Records
// @Produce     json
//
// @Param       id             path    int     true  "Customer ID"  minimum(1)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.ZendeskTicket
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id}/zendesk-tickets [get]
func (h *Handlers) ListTickets(c *gin.Context) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	if h.recordsNotModified(c, "tickets", id, repo.TicketsStats) {
		c.Status(http.StatusNotModified)
		return
	}
	items, err := h.records.Tickets(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// ListIssues godoc
// @ID          listJiraIssues
// @Summary     List a customer's Jira issues
// @Tags        Records
// @Produce     json
//
// @Param       id             path    int     true  "Customer ID"  minimum(1)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.JiraIssue
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id}/jira-issues [get]
func (h *Handlers) ListIssues(c *gin.Context) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	if h.recordsNotModified(c, "issues", id, repo.IssuesStats) {
		c.Status(http.StatusNotModified)
		return
	}
	items, err := h.records.Issues(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}
