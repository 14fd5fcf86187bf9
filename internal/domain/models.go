// Package domain defines the persistence models for customers, the live
// Zendesk tickets and Jira issues mirrored for them, and the daily snapshots
// of those records. These types are mapped with GORM and form the core data
// layer of the tracker.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Customer is a tracked account together with the credentials used by the
// synchronization collaborators. API tokens are never serialized.
//
// Fields:
//   - ID: auto-increment primary key.
//   - CompanyName / SlackChannel: display fields, both searchable.
//   - Zendesk* / Jira*: optional credentials; nil when not configured.
//   - SearchKey: case-folded "company slack" used by customer search.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Customer struct {
	ID               uint    `json:"id"                gorm:"primaryKey"`
	CompanyName      string  `json:"company_name"      gorm:"type:varchar(255);not null"`
	SlackChannel     string  `json:"slack_channel"     gorm:"type:varchar(255);not null"`
	ZendeskSubdomain *string `json:"zendesk_subdomain" gorm:"type:varchar(255)"`
	ZendeskAPIToken  *string `json:"-"                 gorm:"type:text"`
	ZendeskEmail     *string `json:"zendesk_email"     gorm:"type:varchar(255)"`
	JiraHost         *string `json:"jira_host"         gorm:"type:varchar(255)"`
	JiraAPIToken     *string `json:"-"                 gorm:"type:text"`
	JiraEmail        *string `json:"jira_email"        gorm:"type:varchar(255)"`
	SearchKey        string  `json:"-"                 gorm:"type:text;not null;default:'';index"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// BeforeSave keeps SearchKey in sync with the searchable columns.
func (c *Customer) BeforeSave(*gorm.DB) error {
	c.SearchKey = FoldSearch(c.CompanyName + " " + c.SlackChannel)
	return nil
}

// HasZendeskCredentials reports whether every Zendesk credential is present.
func (c Customer) HasZendeskCredentials() bool {
	return nonEmpty(c.ZendeskSubdomain) && nonEmpty(c.ZendeskAPIToken) && nonEmpty(c.ZendeskEmail)
}

// HasJiraCredentials reports whether every Jira credential is present.
func (c Customer) HasJiraCredentials() bool {
	return nonEmpty(c.JiraHost) && nonEmpty(c.JiraAPIToken) && nonEmpty(c.JiraEmail)
}

// FoldSearch normalizes text for case-insensitive matching across scripts.
func FoldSearch(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func nonEmpty(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }

// ZendeskTicket is the current known state of one Zendesk ticket. TicketID is
// the natural key and is unique per customer.
type ZendeskTicket struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	CustomerID uint      `json:"customer_id" gorm:"not null;uniqueIndex:ux_zendesk_ticket,priority:1"`
	TicketID   int64     `json:"ticket_id"   gorm:"not null;uniqueIndex:ux_zendesk_ticket,priority:2"`
	Subject    string    `json:"subject"     gorm:"type:text;not null"`
	Status     string    `json:"status"      gorm:"type:text;not null"`
	Requester  string    `json:"requester"   gorm:"type:varchar(255);not null"`
	LastUpdate time.Time `json:"last_update" gorm:"not null"`
	TicketURL  string    `json:"ticket_url"  gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Customer is the owner. Tickets are cascade-deleted with it.
	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ZendeskTicket.
func (ZendeskTicket) TableName() string { return "zendesk_tickets" }

// NaturalKey returns the Zendesk ticket number.
func (t ZendeskTicket) NaturalKey() int64 { return t.TicketID }

// JiraIssue is the current known state of one Jira issue. IssueKey is the
// natural key and is unique per customer.
type JiraIssue struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	CustomerID uint      `json:"customer_id" gorm:"not null;uniqueIndex:ux_jira_issue,priority:1"`
	IssueKey   string    `json:"issue_key"   gorm:"type:varchar(64);not null;uniqueIndex:ux_jira_issue,priority:2"`
	Summary    string    `json:"summary"     gorm:"type:text;not null"`
	Status     string    `json:"status"      gorm:"type:text;not null"`
	Assignee   *string   `json:"assignee"    gorm:"type:varchar(255)"`
	Project    string    `json:"project"     gorm:"type:varchar(64);not null"`
	LastUpdate time.Time `json:"last_update" gorm:"not null"`
	IssueURL   string    `json:"issue_url"   gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Customer is the owner. Issues are cascade-deleted with it.
	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for JiraIssue.
func (JiraIssue) TableName() string { return "jira_issues" }

// NaturalKey returns the Jira issue key (e.g. "OPS-42").
func (i JiraIssue) NaturalKey() string { return i.IssueKey }
