package services

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func sp(s string) *string { return &s }

func mustCustomer(t *testing.T, db *gorm.DB, name string) *domain.Customer {
	t.Helper()
	c := &domain.Customer{CompanyName: name, SlackChannel: "#" + name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func mustTicket(t *testing.T, db *gorm.DB, customerID uint, id int64, subject, status string, at time.Time) {
	t.Helper()
	rec := &domain.ZendeskTicket{CustomerID: customerID, TicketID: id, Subject: subject, Status: status,
		Requester: "Jane", LastUpdate: at, TicketURL: fmt.Sprintf("https://acme.zendesk.com/agent/tickets/%d", id)}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}
}

func mustIssue(t *testing.T, db *gorm.DB, customerID uint, key, summary, status string, assignee *string, at time.Time) {
	t.Helper()
	rec := &domain.JiraIssue{CustomerID: customerID, IssueKey: key, Summary: summary, Status: status,
		Assignee: assignee, Project: "OPS", LastUpdate: at, IssueURL: "https://acme.atlassian.net/browse/" + key}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}
}

func mustTicketSnapshot(t *testing.T, db *gorm.DB, customerID uint, id int64, subject, status string, at, day time.Time) {
	t.Helper()
	rec := &domain.ZendeskTicketSnapshot{CustomerID: customerID, TicketID: id, Subject: subject, Status: status,
		Requester: "Jane", LastUpdate: at, TicketURL: "u", SnapshotDate: domain.DayKey(day)}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("create ticket snapshot: %v", err)
	}
}

func mustIssueSnapshot(t *testing.T, db *gorm.DB, customerID uint, key, summary, status string, assignee *string, day time.Time) {
	t.Helper()
	rec := &domain.JiraIssueSnapshot{CustomerID: customerID, IssueKey: key, Summary: summary, Status: status,
		Assignee: assignee, Project: "OPS", LastUpdate: day, IssueURL: "u", SnapshotDate: domain.DayKey(day)}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("create issue snapshot: %v", err)
	}
}
