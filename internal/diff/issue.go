package diff

import "github.com/tbourn/go-support-tracker/internal/domain"

// ClassifyIssue decides how a live issue changed since its snapshot.
// Assignee changes outrank summary edits; the last-update timestamp is not
// compared for issues.
func ClassifyIssue(cur domain.JiraIssue, prev *domain.JiraIssueSnapshot) (domain.ChangeType, bool) {
	switch {
	case prev == nil:
		return domain.ChangeNew, true
	case cur.Status != prev.Status:
		return domain.ChangeStatusChanged, true
	case !equalPtr(cur.Assignee, prev.Assignee):
		return domain.ChangeAssigneeChanged, true
	case cur.Summary != prev.Summary:
		return domain.ChangeUpdated, true
	default:
		return "", false
	}
}

// Issues computes the issue differences for one customer and one baseline
// day. With includeRemoved, baseline issues missing from live are appended
// as removed entries.
func Issues(live []domain.JiraIssue, baseline []domain.JiraIssueSnapshot, includeRemoved bool) []domain.IssueDifference {
	out := Compare[string](live, baseline, func(cur domain.JiraIssue, prev *domain.JiraIssueSnapshot) (domain.IssueDifference, bool) {
		ct, changed := ClassifyIssue(cur, prev)
		if !changed {
			return domain.IssueDifference{}, false
		}
		d := domain.IssueDifference{
			IssueKey:      cur.IssueKey,
			Summary:       cur.Summary,
			CurrentStatus: cur.Status,
			Assignee:      cur.Assignee,
			Project:       cur.Project,
			IssueURL:      cur.IssueURL,
			ChangeType:    ct,
		}
		if prev != nil {
			d.PreviousStatus = strPtr(prev.Status)
		}
		return d, true
	})
	if !includeRemoved {
		return out
	}
	for _, s := range Removed[string](live, baseline) {
		out = append(out, domain.IssueDifference{
			IssueKey:       s.IssueKey,
			Summary:        s.Summary,
			PreviousStatus: strPtr(s.Status),
			Assignee:       s.Assignee,
			Project:        s.Project,
			IssueURL:       s.IssueURL,
			ChangeType:     domain.ChangeRemoved,
		})
	}
	return out
}
