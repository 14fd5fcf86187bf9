package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-tracker/internal/services"
	"github.com/tbourn/go-support-tracker/internal/utils"
)

// GetDifferences godoc
// @ID          getDifferences
// @Summary     Daily differences for a customer
// @Description Compares the customer's live records with the snapshots taken the day before the report date.
// @Tags        Differences
// @Produce     json
//
// @Param       id               path   int     true  "Customer ID"  minimum(1)
// @Param       date             query  string  false "Report date (YYYY-MM-DD); defaults to today in UTC"  example(2024-01-15)
// @Param       include_removed  query  bool    false "Also report records missing from the live set"  default(false)
//
// @Success     200  {object} domain.DailyDifferences
// @Failure     400  {object} handlers.ErrorResponse "Invalid id, date, or flag"
// @Failure     404  {object} handlers.ErrorResponse "Customer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /customers/{id}/differences [get]
func (h *Handlers) GetDifferences(c *gin.Context) {
	id, valid := customerID(c)
	if !valid {
		return
	}
	includeRemoved, parsed := utils.ParseBoolDefault(c.Query("include_removed"), false)
	if !parsed {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "include_removed must be a boolean")
		return
	}
	date := c.Query("date")
	if _, err := services.ParseReportDate(date, time.Now()); err != nil {
		failService(c, err, ErrCodeDiffFailed)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.customers.Get(ctx, id); err != nil {
		failService(c, err, ErrCodeDiffFailed)
		return
	}
	out, err := h.differences.Compute(ctx, id, date, services.DiffOptions{IncludeRemoved: includeRemoved})
	if err != nil {
		failService(c, err, ErrCodeDiffFailed)
		return
	}
	ok(c, http.StatusOK, out)
}
