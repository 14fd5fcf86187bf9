package tracker

import "time"

// Ticket is a Zendesk ticket as reported by the API.
type Ticket struct {
	ID        int64
	Subject   string
	Status    string
	Requester string
	UpdatedAt time.Time
	URL       string
}

// Issue is a Jira issue as reported by the API.
type Issue struct {
	Key       string
	Summary   string
	Status    string
	Assignee  *string
	Project   string
	UpdatedAt time.Time
	URL       string
}
