package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/http/middleware"
	"github.com/tbourn/go-support-tracker/internal/services"
)

// SnapshotResponse reports a daily snapshot run.
type SnapshotResponse struct {
	Date string `json:"date" example:"2024-01-15"`
	domain.SnapshotCounts
}

// SnapshotFailureResponse is the 500 body of a run where at least one kind
// failed. Counts of the kind that succeeded are kept.
type SnapshotFailureResponse struct {
	ErrorResponse
	Date string `json:"date" example:"2024-01-15"`
	domain.SnapshotCounts
}

// WriteDailySnapshots godoc
// @ID          writeDailySnapshots
// @Summary     Write the daily snapshots
// @Description Copies every live ticket and issue into the snapshot tables for the given day. Re-running a day replaces its rows.
// @Tags        Snapshots
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Replays the stored counts for a repeated key"
// @Param       date             query   string  false "Day to stamp (YYYY-MM-DD); defaults to today in UTC"  example(2024-01-15)
//
// @Success     200  {object} handlers.SnapshotResponse
// @Header      200  {string} Idempotency-Replayed  "true when the response was replayed"
// @Failure     400  {object} handlers.ErrorResponse "Invalid date"
// @Failure     500  {object} handlers.SnapshotFailureResponse "One or both kinds failed"
// @Router      /snapshots/daily [post]
func (h *Handlers) WriteDailySnapshots(c *gin.Context) {
	if h.replayed(c) {
		return
	}
	day, err := services.ParseReportDate(c.Query("date"), h.snapshots.Today())
	if err != nil {
		failService(c, err, ErrCodeSnapshotFailed)
		return
	}
	counts, err := h.snapshots.WriteDaily(c.Request.Context(), day)
	date := day.Format(domain.DateLayout)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).
			Str("day", date).
			Int("ticket_snapshots", counts.TicketSnapshotsWritten).
			Int("issue_snapshots", counts.IssueSnapshotsWritten).
			Msg("api error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, SnapshotFailureResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeSnapshotFailed,
				Message:   err.Error(),
			},
			Date:           date,
			SnapshotCounts: counts,
		})
		return
	}
	h.respond(c, http.StatusOK, SnapshotResponse{
		Date:           date,
		SnapshotCounts: counts,
	})
}
