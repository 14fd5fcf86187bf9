package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/http/middleware"
)

func TestWriteDailySnapshots_DefaultDay(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Acme", false)
	if err := f.db.Create(&domain.ZendeskTicket{CustomerID: c.ID, TicketID: 1, Subject: "s", Status: "open", Requester: "r", LastUpdate: reportDay, TicketURL: "u"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := f.do(t, http.MethodPost, "/snapshots/daily", nil, nil)
	wantStatus(t, w, http.StatusOK)
	got := decode[SnapshotResponse](t, w)
	if got.Date != "2024-01-15" || got.TicketSnapshotsWritten != 1 || got.IssueSnapshotsWritten != 0 {
		t.Fatalf("unexpected response: %+v", got)
	}

	var n int64
	f.db.Model(&domain.ZendeskTicketSnapshot{}).Where("snapshot_date = ?", reportDay).Count(&n)
	if n != 1 {
		t.Fatalf("snapshots for day = %d; want 1", n)
	}
}

func TestWriteDailySnapshots_ExplicitDateAndReplay(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Acme", false)
	if err := f.db.Create(&domain.JiraIssue{CustomerID: c.ID, IssueKey: "OPS-1", Summary: "s", Status: "To Do", Project: "OPS", LastUpdate: reportDay, IssueURL: "u"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "snap-2024-01-14"}

	w := f.do(t, http.MethodPost, "/snapshots/daily?date=2024-01-14", nil, hdr)
	wantStatus(t, w, http.StatusOK)
	if got := decode[SnapshotResponse](t, w); got.Date != "2024-01-14" || got.IssueSnapshotsWritten != 1 {
		t.Fatalf("unexpected response: %+v", got)
	}

	again := f.do(t, http.MethodPost, "/snapshots/daily?date=2024-01-14", nil, hdr)
	wantStatus(t, again, http.StatusOK)
	if again.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" || again.Body.String() != w.Body.String() {
		t.Fatalf("expected an identical replay, got %s", again.Body.String())
	}
}

func TestWriteDailySnapshots_Errors(t *testing.T) {
	f := newFixture(t)
	wantCode(t, f.do(t, http.MethodPost, "/snapshots/daily?date=yesterday", nil, nil), http.StatusBadRequest, ErrCodeInvalidDate)

}

func TestWriteDailySnapshots_PartialFailureKeepsCounts(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Acme", false)
	if err := f.db.Create(&domain.ZendeskTicket{CustomerID: c.ID, TicketID: 1, Subject: "s", Status: "open", Requester: "r", LastUpdate: reportDay, TicketURL: "u"}).Error; err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	// A live issue forces a write to the dropped table.
	if err := f.db.Create(&domain.JiraIssue{CustomerID: c.ID, IssueKey: "OPS-1", Summary: "s", Status: "To Do", Project: "OPS", LastUpdate: reportDay, IssueURL: "u"}).Error; err != nil {
		t.Fatalf("seed issue: %v", err)
	}
	if err := f.db.Migrator().DropTable(&domain.JiraIssueSnapshot{}); err != nil {
		t.Fatalf("drop: %v", err)
	}

	w := f.do(t, http.MethodPost, "/snapshots/daily", nil, nil)
	wantCode(t, w, http.StatusInternalServerError, ErrCodeSnapshotFailed)
	got := decode[SnapshotFailureResponse](t, w)
	if got.Date != "2024-01-15" || got.TicketSnapshotsWritten != 1 || got.IssueSnapshotsWritten != 0 || got.Message == "" {
		t.Fatalf("unexpected failure body: %+v", got)
	}
}
