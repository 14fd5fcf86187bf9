package services

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

func countRows(t *testing.T, s *SnapshotService, model any) int64 {
	t.Helper()
	var n int64
	if err := s.DB.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSnapshotService_Today(t *testing.T) {
	s := &SnapshotService{Now: func() time.Time { return reportDay.Add(23 * time.Hour) }}
	if got := s.Today(); !got.Equal(reportDay) {
		t.Fatalf("Today = %v; want %v", got, reportDay)
	}
	if (&SnapshotService{}).Today().Location() != time.UTC {
		t.Fatalf("Today must be a UTC day-key")
	}
}

func TestWriteDaily_EmptyStore(t *testing.T) {
	s := &SnapshotService{DB: newServiceDB(t)}
	counts, err := s.WriteDaily(context.Background(), reportDay)
	if err != nil {
		t.Fatalf("WriteDaily: %v", err)
	}
	if counts != (domain.SnapshotCounts{}) {
		t.Fatalf("expected zero counts, got %+v", counts)
	}
}

func TestWriteDaily_CopiesAllCustomersAndIsRepeatable(t *testing.T) {
	db := newServiceDB(t)
	a := mustCustomer(t, db, "acme")
	b := mustCustomer(t, db, "globex")
	mustTicket(t, db, a.ID, 1, "one", "open", reportDay)
	mustTicket(t, db, a.ID, 2, "two", "pending", reportDay)
	mustTicket(t, db, b.ID, 1, "other", "open", reportDay)
	mustIssue(t, db, b.ID, "OPS-1", "issue", "To Do", sp("john"), reportDay)

	s := &SnapshotService{DB: db}
	counts, err := s.WriteDaily(context.Background(), reportDay.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("WriteDaily: %v", err)
	}
	if counts.TicketSnapshotsWritten != 3 || counts.IssueSnapshotsWritten != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	// Second run on the same day replaces rather than duplicates.
	if err := db.Model(&domain.ZendeskTicket{}).Where("ticket_id = ? AND customer_id = ?", 1, a.ID).
		Update("status", "solved").Error; err != nil {
		t.Fatalf("update ticket: %v", err)
	}
	counts, err = s.WriteDaily(context.Background(), reportDay)
	if err != nil {
		t.Fatalf("WriteDaily rerun: %v", err)
	}
	if counts.TicketSnapshotsWritten != 3 {
		t.Fatalf("rerun counts: %+v", counts)
	}
	if n := countRows(t, s, &domain.ZendeskTicketSnapshot{}); n != 3 {
		t.Fatalf("expected 3 ticket snapshot rows after rerun, got %d", n)
	}
	var snap domain.ZendeskTicketSnapshot
	if err := db.Where("customer_id = ? AND ticket_id = ?", a.ID, 1).First(&snap).Error; err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snap.Status != "solved" || !snap.SnapshotDate.Equal(reportDay) {
		t.Fatalf("snapshot not refreshed: %+v", snap)
	}

	// Another day adds a new set.
	if _, err := s.WriteDaily(context.Background(), reportDay.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("WriteDaily next day: %v", err)
	}
	if n := countRows(t, s, &domain.ZendeskTicketSnapshot{}); n != 6 {
		t.Fatalf("expected 6 ticket snapshot rows over two days, got %d", n)
	}
}

func TestWriteDaily_OneKindFailing(t *testing.T) {
	db := newServiceDB(t)
	c := mustCustomer(t, db, "acme")
	mustTicket(t, db, c.ID, 1, "one", "open", reportDay)
	mustIssue(t, db, c.ID, "OPS-1", "issue", "To Do", nil, reportDay)
	if err := db.Migrator().DropTable(&domain.JiraIssueSnapshot{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	s := &SnapshotService{DB: db}
	counts, err := s.WriteDaily(context.Background(), reportDay)
	if err == nil {
		t.Fatalf("expected the jira failure to be reported")
	}
	if counts.TicketSnapshotsWritten != 1 || counts.IssueSnapshotsWritten != 0 {
		t.Fatalf("ticket count must survive the issue failure, got %+v", counts)
	}
}
