package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

func TestListTickets_ETagAndEmpty(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Acme", false)
	path := fmt.Sprintf("/customers/%d/zendesk-tickets", c.ID)

	w := f.do(t, http.MethodGet, path, nil, nil)
	wantStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("want empty array, got %s", w.Body.String())
	}

	tk := &domain.ZendeskTicket{CustomerID: c.ID, TicketID: 7, Subject: "s", Status: "open", Requester: "r", LastUpdate: time.Now().UTC(), TicketURL: "u"}
	if err := f.db.Create(tk).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	w = f.do(t, http.MethodGet, path, nil, nil)
	wantStatus(t, w, http.StatusOK)
	got := decode[[]domain.ZendeskTicket](t, w)
	if len(got) != 1 || got[0].TicketID != 7 {
		t.Fatalf("unexpected tickets: %+v", got)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag")
	}
	wantStatus(t, f.do(t, http.MethodGet, path, nil, map[string]string{"If-None-Match": etag}), http.StatusNotModified)
}

func TestListIssues(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Acme", false)
	iss := &domain.JiraIssue{CustomerID: c.ID, IssueKey: "OPS-1", Summary: "s", Status: "To Do", Project: "OPS", LastUpdate: time.Now().UTC(), IssueURL: "u"}
	if err := f.db.Create(iss).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}

	w := f.do(t, http.MethodGet, fmt.Sprintf("/customers/%d/jira-issues", c.ID), nil, nil)
	wantStatus(t, w, http.StatusOK)
	got := decode[[]domain.JiraIssue](t, w)
	if len(got) != 1 || got[0].IssueKey != "OPS-1" || got[0].Assignee != nil {
		t.Fatalf("unexpected issues: %+v", got)
	}
}

func TestListRecords_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/customers/99/zendesk-tickets", nil, map[string]string{"If-None-Match": `W/"tickets:99:0:0"`})
	wantCode(t, w, http.StatusNotFound, ErrCodeNotFound)
	wantCode(t, f.do(t, http.MethodGet, "/customers/99/jira-issues", nil, nil), http.StatusNotFound, ErrCodeNotFound)
}
