package domain

import "time"

// ChangeType classifies a single difference. Status values themselves are
// free text from the external system; only the classification is closed.
type ChangeType string

const (
	ChangeNew             ChangeType = "new"
	ChangeUpdated         ChangeType = "updated"
	ChangeStatusChanged   ChangeType = "status_changed"
	ChangeAssigneeChanged ChangeType = "assignee_changed"
	// ChangeRemoved is only emitted when removed records are requested.
	ChangeRemoved ChangeType = "removed"
)

// TicketDifference describes the delta between a live Zendesk ticket and its
// previous-day snapshot.
type TicketDifference struct {
	TicketID       int64      `json:"ticket_id"`
	Subject        string     `json:"subject"`
	CurrentStatus  string     `json:"current_status"`
	PreviousStatus *string    `json:"previous_status"`
	Requester      string     `json:"requester"`
	LastUpdate     time.Time  `json:"last_update"`
	TicketURL      string     `json:"ticket_url"`
	ChangeType     ChangeType `json:"change_type"`
}

// IssueDifference describes the delta between a live Jira issue and its
// previous-day snapshot.
type IssueDifference struct {
	IssueKey       string     `json:"issue_key"`
	Summary        string     `json:"summary"`
	CurrentStatus  string     `json:"current_status"`
	PreviousStatus *string    `json:"previous_status"`
	Assignee       *string    `json:"assignee"`
	Project        string     `json:"project"`
	IssueURL       string     `json:"issue_url"`
	ChangeType     ChangeType `json:"change_type"`
}

// DailyDifferences is the difference report for one customer on one date.
// Both lists are in live-record enumeration order and never nil.
type DailyDifferences struct {
	CustomerID         uint               `json:"customer_id"`
	Date               string             `json:"date"`
	ZendeskDifferences []TicketDifference `json:"zendesk_differences"`
	JiraDifferences    []IssueDifference  `json:"jira_differences"`
}

// SyncResult is what a synchronization run reports: how many records were
// stored and the per-item error messages collected along the way.
type SyncResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}
