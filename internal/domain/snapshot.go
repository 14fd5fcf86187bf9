package domain

import "time"

// ZendeskTicketSnapshot is an immutable, day-stamped copy of a ZendeskTicket.
// At most one row exists per (customer, ticket, day).
type ZendeskTicketSnapshot struct {
	ID           uint      `json:"id"            gorm:"primaryKey"`
	CustomerID   uint      `json:"customer_id"   gorm:"not null;uniqueIndex:ux_zendesk_snapshot,priority:1;index:idx_zendesk_snapshot_day,priority:1"`
	TicketID     int64     `json:"ticket_id"     gorm:"not null;uniqueIndex:ux_zendesk_snapshot,priority:2"`
	Subject      string    `json:"subject"       gorm:"type:text;not null"`
	Status       string    `json:"status"        gorm:"type:text;not null"`
	Requester    string    `json:"requester"     gorm:"type:varchar(255);not null"`
	LastUpdate   time.Time `json:"last_update"   gorm:"not null"`
	TicketURL    string    `json:"ticket_url"    gorm:"type:text;not null"`
	SnapshotDate time.Time `json:"snapshot_date" gorm:"not null;uniqueIndex:ux_zendesk_snapshot,priority:3;index:idx_zendesk_snapshot_day,priority:2"`
	CreatedAt    time.Time `json:"created_at"`

	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ZendeskTicketSnapshot.
func (ZendeskTicketSnapshot) TableName() string { return "zendesk_ticket_snapshots" }

// NaturalKey returns the Zendesk ticket number.
func (s ZendeskTicketSnapshot) NaturalKey() int64 { return s.TicketID }

// JiraIssueSnapshot is an immutable, day-stamped copy of a JiraIssue.
// At most one row exists per (customer, issue, day).
type JiraIssueSnapshot struct {
	ID           uint      `json:"id"            gorm:"primaryKey"`
	CustomerID   uint      `json:"customer_id"   gorm:"not null;uniqueIndex:ux_jira_snapshot,priority:1;index:idx_jira_snapshot_day,priority:1"`
	IssueKey     string    `json:"issue_key"     gorm:"type:varchar(64);not null;uniqueIndex:ux_jira_snapshot,priority:2"`
	Summary      string    `json:"summary"       gorm:"type:text;not null"`
	Status       string    `json:"status"        gorm:"type:text;not null"`
	Assignee     *string   `json:"assignee"      gorm:"type:varchar(255)"`
	Project      string    `json:"project"       gorm:"type:varchar(64);not null"`
	LastUpdate   time.Time `json:"last_update"   gorm:"not null"`
	IssueURL     string    `json:"issue_url"     gorm:"type:text;not null"`
	SnapshotDate time.Time `json:"snapshot_date" gorm:"not null;uniqueIndex:ux_jira_snapshot,priority:3;index:idx_jira_snapshot_day,priority:2"`
	CreatedAt    time.Time `json:"created_at"`

	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for JiraIssueSnapshot.
func (JiraIssueSnapshot) TableName() string { return "jira_issue_snapshots" }

// NaturalKey returns the Jira issue key.
func (s JiraIssueSnapshot) NaturalKey() string { return s.IssueKey }

// SnapshotOfTicket copies every comparison field of t and stamps it with day.
func SnapshotOfTicket(t ZendeskTicket, day time.Time) ZendeskTicketSnapshot {
	return ZendeskTicketSnapshot{
		CustomerID:   t.CustomerID,
		TicketID:     t.TicketID,
		Subject:      t.Subject,
		Status:       t.Status,
		Requester:    t.Requester,
		LastUpdate:   t.LastUpdate,
		TicketURL:    t.TicketURL,
		SnapshotDate: day,
	}
}

// SnapshotOfIssue copies every comparison field of i and stamps it with day.
func SnapshotOfIssue(i JiraIssue, day time.Time) JiraIssueSnapshot {
	var assignee *string
	if i.Assignee != nil {
		a := *i.Assignee
		assignee = &a
	}
	return JiraIssueSnapshot{
		CustomerID:   i.CustomerID,
		IssueKey:     i.IssueKey,
		Summary:      i.Summary,
		Status:       i.Status,
		Assignee:     assignee,
		Project:      i.Project,
		LastUpdate:   i.LastUpdate,
		IssueURL:     i.IssueURL,
		SnapshotDate: day,
	}
}

// DayKey truncates t to its UTC calendar day (midnight UTC).
func DayKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// SnapshotCounts reports how many snapshot rows the writer persisted per kind.
type SnapshotCounts struct {
	TicketSnapshotsWritten int `json:"ticket_snapshots_written"`
	IssueSnapshotsWritten  int `json:"issue_snapshots_written"`
}
