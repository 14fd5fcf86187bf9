package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func strPtr(s string) *string { return &s }

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Customer{}).TableName():              "customers",
		(ZendeskTicket{}).TableName():         "zendesk_tickets",
		(JiraIssue{}).TableName():             "jira_issues",
		(ZendeskTicketSnapshot{}).TableName(): "zendesk_ticket_snapshots",
		(JiraIssueSnapshot{}).TableName():     "jira_issue_snapshots",
		(Idempotency{}).TableName():           "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	all := []any{&Customer{}, &ZendeskTicket{}, &JiraIssue{}, &ZendeskTicketSnapshot{}, &JiraIssueSnapshot{}}
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range all {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&ZendeskTicket{}, "ux_zendesk_ticket") {
		t.Fatalf("expected unique index ux_zendesk_ticket")
	}
	if !m.HasIndex(&JiraIssue{}, "ux_jira_issue") {
		t.Fatalf("expected unique index ux_jira_issue")
	}
	if !m.HasIndex(&ZendeskTicketSnapshot{}, "ux_zendesk_snapshot") {
		t.Fatalf("expected unique index ux_zendesk_snapshot")
	}
	if !m.HasIndex(&JiraIssueSnapshot{}, "idx_jira_snapshot_day") {
		t.Fatalf("expected index idx_jira_snapshot_day")
	}

	c := &Customer{CompanyName: "Acme", SlackChannel: "#acme"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	now := time.Now().UTC()
	tk := &ZendeskTicket{CustomerID: c.ID, TicketID: 1, Subject: "s", Status: "open", Requester: "r", LastUpdate: now, TicketURL: "u"}
	if err := db.Create(tk).Error; err != nil {
		t.Fatalf("insert ticket: %v", err)
	}
	snap := SnapshotOfTicket(*tk, DayKey(now))
	if err := db.Create(&snap).Error; err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}

	// Same natural key for the same customer violates the unique index.
	dup := &ZendeskTicket{CustomerID: c.ID, TicketID: 1, Subject: "x", Status: "open", Requester: "r", LastUpdate: now, TicketURL: "u"}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation for duplicate ticket key")
	}

	// Deleting the customer cascades to live records and snapshots.
	if err := db.Delete(&Customer{}, c.ID).Error; err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	var n int64
	db.Model(&ZendeskTicket{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected tickets cascade-deleted, got %d", n)
	}
	db.Model(&ZendeskTicketSnapshot{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected snapshots cascade-deleted, got %d", n)
	}
}

func TestCustomer_BeforeSave_SearchKey(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Customer{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	c := &Customer{CompanyName: "  Straße GmbH", SlackChannel: "#Ops"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Customer
	if err := db.First(&got, c.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SearchKey != FoldSearch("Straße GmbH #Ops") {
		t.Fatalf("SearchKey = %q", got.SearchKey)
	}
	if FoldSearch("STRASSE") != FoldSearch("straße") {
		t.Fatalf("expected full case folding")
	}
}

func TestCustomer_HasCredentials(t *testing.T) {
	c := Customer{}
	if c.HasZendeskCredentials() || c.HasJiraCredentials() {
		t.Fatalf("empty customer must have no credentials")
	}
	c.ZendeskSubdomain, c.ZendeskAPIToken, c.ZendeskEmail = strPtr("acme"), strPtr("tok"), strPtr("a@b.c")
	if !c.HasZendeskCredentials() {
		t.Fatalf("expected zendesk credentials")
	}
	c.JiraHost, c.JiraAPIToken, c.JiraEmail = strPtr("acme.atlassian.net"), strPtr("  "), strPtr("a@b.c")
	if c.HasJiraCredentials() {
		t.Fatalf("blank token must not count as a credential")
	}
}

func TestDayKey_TruncatesToUTCMidnight(t *testing.T) {
	morning := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	night := time.Date(2024, 1, 15, 23, 59, 59, 999, time.UTC)
	if !DayKey(morning).Equal(DayKey(night)) {
		t.Fatalf("same calendar day must share a day-key")
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := DayKey(morning); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("DayKey = %v; want %v", got, want)
	}
	// 2024-01-15 01:00 at UTC+3 is still 2024-01-14 in UTC.
	east := time.Date(2024, 1, 15, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	if got := DayKey(east).Format(DateLayout); got != "2024-01-14" {
		t.Fatalf("DayKey(east) = %s", got)
	}
}

func TestSnapshotOfIssue_CopiesFields(t *testing.T) {
	day := DayKey(time.Now())
	iss := JiraIssue{CustomerID: 7, IssueKey: "OPS-1", Summary: "s", Status: "To Do", Assignee: strPtr("john"), Project: "OPS", IssueURL: "u"}
	s := SnapshotOfIssue(iss, day)
	if s.CustomerID != 7 || s.IssueKey != "OPS-1" || s.Status != "To Do" || s.Project != "OPS" || !s.SnapshotDate.Equal(day) {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	*iss.Assignee = "jane"
	if *s.Assignee != "john" {
		t.Fatalf("snapshot must not alias the live assignee")
	}
	if s.NaturalKey() != iss.NaturalKey() {
		t.Fatalf("natural keys differ")
	}
}

func TestStatusColumns_AreUnboundedText(t *testing.T) {
	db := newDomainDB(t)
	all := []any{&Customer{}, &ZendeskTicket{}, &JiraIssue{}, &ZendeskTicketSnapshot{}, &JiraIssueSnapshot{}}
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	for _, model := range all[1:] {
		cols, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			t.Fatalf("column types for %T: %v", model, err)
		}
		var found bool
		for _, col := range cols {
			if col.Name() != "status" {
				continue
			}
			found = true
			if got := strings.ToLower(col.DatabaseTypeName()); got != "text" {
				t.Fatalf("%T.status type = %q; want text", model, got)
			}
		}
		if !found {
			t.Fatalf("%T has no status column", model)
		}
	}

	c := &Customer{CompanyName: "Acme", SlackChannel: "#acme"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	long := strings.Repeat("Waiting for third-party vendor ", 10)
	tk := &ZendeskTicket{CustomerID: c.ID, TicketID: 9, Subject: "s", Status: long, Requester: "r", LastUpdate: time.Now().UTC(), TicketURL: "u"}
	if err := db.Create(tk).Error; err != nil {
		t.Fatalf("insert long status: %v", err)
	}
	var got ZendeskTicket
	if err := db.First(&got, tk.ID).Error; err != nil || got.Status != long {
		t.Fatalf("long status not preserved: %v", err)
	}
}
