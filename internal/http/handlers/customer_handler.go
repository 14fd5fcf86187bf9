// Customer HTTP handlers.
//
// This file exposes REST endpoints for customer resources:
//   - POST   /customers              (create)
//   - GET    /customers              (list, paginated, ETag support)
//   - GET    /customers/search?q=    (case-insensitive search)
//   - GET    /customers/{id}         (fetch)
//   - PATCH  /customers/{id}         (partial update)
//   - DELETE /customers/{id}         (delete with records and snapshots)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/services"
)

//
// DTOs
//

// CreateCustomerRequest is the JSON payload for creating a customer.
type CreateCustomerRequest struct {
	CompanyName      string  `json:"company_name"      binding:"required,max=255" example:"Acme Corp"`
	SlackChannel     string  `json:"slack_channel"     binding:"required,max=255" example:"#acme-support"`
	ZendeskSubdomain *string `json:"zendesk_subdomain" binding:"omitempty,max=255" example:"acme"`
	ZendeskAPIToken  *string `json:"zendesk_api_token"`
	ZendeskEmail     *string `json:"zendesk_email"     binding:"omitempty,email" example:"support@acme.com"`
	JiraHost         *string `json:"jira_host"         binding:"omitempty,max=255" example:"acme.atlassian.net"`
	JiraAPIToken     *string `json:"jira_api_token"`
	JiraEmail        *string `json:"jira_email"        binding:"omitempty,email" example:"ops@acme.com"`
}

// UpdateCustomerRequest is the JSON payload for a partial customer update.
// Omitted fields are unchanged; a credential sent as "" is cleared.
type UpdateCustomerRequest struct {
	CompanyName      *string `json:"company_name"      binding:"omitempty,max=255"`
	SlackChannel     *string `json:"slack_channel"     binding:"omitempty,max=255"`
	ZendeskSubdomain *string `json:"zendesk_subdomain" binding:"omitempty,max=255"`
	ZendeskAPIToken  *string `json:"zendesk_api_token"`
	ZendeskEmail     *string `json:"zendesk_email"     binding:"omitempty,email"`
	JiraHost         *string `json:"jira_host"         binding:"omitempty,max=255"`
	JiraAPIToken     *string `json:"jira_api_token"`
	JiraEmail        *string `json:"jira_email"        binding:"omitempty,email"`
}

// CustomerView is a customer as returned by the API. Tokens are never
// echoed; only their presence is.
type CustomerView struct {
	domain.Customer
	HasZendeskToken bool `json:"has_zendesk_token"`
	HasJiraToken    bool `json:"has_jira_token"`
}

// ListCustomersResponse wraps a page of customers and pagination information.
type ListCustomersResponse struct {
	Customers  []CustomerView `json:"customers"`
	Pagination Pagination     `json:"pagination"`
}

func viewOf(c domain.Customer) CustomerView {
	return CustomerView{
		Customer:        c,
		HasZendeskToken: c.ZendeskAPIToken != nil && *c.ZendeskAPIToken != "",
		HasJiraToken:    c.JiraAPIToken != nil && *c.JiraAPIToken != "",
	}
}

func viewsOf(cs []domain.Customer) []CustomerView {
	out := make([]CustomerView, 0, len(cs))
	for _, c := range cs {
		out = append(out, viewOf(c))
	}
	return out
}

//
// Handlers
//

// CreateCustomer godoc
// @ID          createCustomer
// @Summary     Create a customer
// @Description Registers a customer with optional Zendesk and Jira credentials.
// @Tags        Customers
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Replays the first response for a repeated key"
// @Param       body             body    handlers.CreateCustomerRequest  true  "Customer payload"
//
// @Success     201  {object}  handlers.CustomerView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /customers [post]
func (h *Handlers) CreateCustomer(c *gin.Context) {
	if h.replayed(c) {
		return
	}
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	cust, err := h.customers.Create(c.Request.Context(), services.CustomerInput{
		CompanyName:      req.CompanyName,
		SlackChannel:     req.SlackChannel,
		ZendeskSubdomain: req.ZendeskSubdomain,
		ZendeskAPIToken:  req.ZendeskAPIToken,
		ZendeskEmail:     req.ZendeskEmail,
		JiraHost:         req.JiraHost,
		JiraAPIToken:     req.JiraAPIToken,
		JiraEmail:        req.JiraEmail,
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	h.respond(c, http.StatusCreated, viewOf(*cust))
}

// ListCustomers godoc
// @ID          listCustomers
// @Summary     List customers (paginated)
// @Description Returns a page of customers, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Customers
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"customers:3:1700000000\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListCustomersResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers [get]
func (h *Handlers) ListCustomers(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, isSvc := h.customers.(*services.CustomerService); isSvc && svc.DB != nil {
		if count, maxTS, err := repo.CustomersStats(ctx, svc.DB); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"customers:%d:%d:%d:%d"`, count, ts, page, pageSize)
			if etagMatch(c, etag) {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.customers.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCustomersResponse{
		Customers:  viewsOf(items),
		Pagination: newPagination(page, pageSize, total),
	})
}

// SearchCustomers godoc
// @ID          searchCustomers
// @Summary     Search customers
// @Description Case-insensitive substring match on company name or Slack channel.
// @Tags        Customers
// @Produce     json
//
// @Param       q  query  string  true  "Search text"  example(acme)
//
// @Success     200  {array}  handlers.CustomerView
// @Failure     400  {object} handlers.ErrorResponse "Empty query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/search [get]
func (h *Handlers) SearchCustomers(c *gin.Context) {
	items, err := h.customers.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, viewsOf(items))
}

// GetCustomer godoc
// @ID          getCustomer
// @Summary     Fetch a customer
// @Tags        Customers
// @Produce     json
//
// @Param       id  path  int  true  "Customer ID"  minimum(1)
//
// @Success     200  {object} handlers.CustomerView
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Router      /customers/{id} [get]
func (h *Handlers) GetCustomer(c *gin.Context) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	cust, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, viewOf(*cust))
}

// UpdateCustomer godoc
// @ID          updateCustomer
// @Summary     Update a customer
// @Description Applies a partial update. Credentials sent as empty strings are cleared.
// @Tags        Customers
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Customer ID"  minimum(1)
// @Param       body  body  handlers.UpdateCustomerRequest  true  "Fields to change"
//
// @Success     200  {object} handlers.CustomerView
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id} [patch]
func (h *Handlers) UpdateCustomer(c *gin.Context) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cust, err := h.customers.Update(c.Request.Context(), id, services.CustomerPatch{
		CompanyName:      req.CompanyName,
		SlackChannel:     req.SlackChannel,
		ZendeskSubdomain: req.ZendeskSubdomain,
		ZendeskAPIToken:  req.ZendeskAPIToken,
		ZendeskEmail:     req.ZendeskEmail,
		JiraHost:         req.JiraHost,
		JiraAPIToken:     req.JiraAPIToken,
		JiraEmail:        req.JiraEmail,
	})
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, viewOf(*cust))
}

// DeleteCustomer godoc
// @ID          deleteCustomer
// @Summary     Delete a customer
// @Description Deletes the customer together with its tickets, issues, and snapshots.
// @Tags        Customers
//
// @Param       id  path  int  true  "Customer ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id} [delete]
func (h *Handlers) DeleteCustomer(c *gin.Context) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		failService(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
