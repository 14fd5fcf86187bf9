package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultJQL selects every issue visible to the account, most recent first.
const DefaultJQL = "ORDER BY updated DESC"

// JiraClient lists issues from one Jira Cloud site.
type JiraClient struct {
	base     string
	jql      string
	pageSize int
	c        *client
}

// NewJiraClient builds a client for host, which may be given with or
// without a scheme ("acme.atlassian.net" or "https://acme.atlassian.net").
func NewJiraClient(host, email, token string, opts Options) *JiraClient {
	opts = opts.withDefaults()
	base := opts.BaseURL
	if base == "" {
		base = strings.TrimSpace(host)
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			base = "https://" + base
		}
	}
	return &JiraClient{
		base:     strings.TrimRight(base, "/"),
		jql:      DefaultJQL,
		pageSize: opts.PageSize,
		c:        newClient(strings.TrimSpace(email), token, opts),
	}
}

// IssueURL is the browser link for an issue.
func (j *JiraClient) IssueURL(key string) string {
	return j.base + "/browse/" + key
}

// FetchIssues pages through the search endpoint with startAt/maxResults
// until total is reached or a page comes back empty.
func (j *JiraClient) FetchIssues(ctx context.Context) ([]Issue, error) {
	var out []Issue
	startAt := 0
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("jira: more than %d pages", maxPages)
		}
		q := url.Values{}
		q.Set("jql", j.jql)
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(j.pageSize))
		q.Set("fields", "summary,status,assignee,project,updated")

		body, err := j.c.getJSON(ctx, j.base+"/rest/api/3/search?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("jira: %w", err)
		}

		issues := gjson.GetBytes(body, "issues").Array()
		for _, it := range issues {
			key := it.Get("key").String()
			if key == "" {
				continue
			}
			f := it.Get("fields")
			var assignee *string
			if a := f.Get("assignee.displayName"); a.Exists() && a.Type != gjson.Null {
				s := a.String()
				assignee = &s
			}
			project := f.Get("project.key").String()
			if project == "" {
				project, _, _ = strings.Cut(key, "-")
			}
			out = append(out, Issue{
				Key:       key,
				Summary:   f.Get("summary").String(),
				Status:    f.Get("status.name").String(),
				Assignee:  assignee,
				Project:   project,
				UpdatedAt: parseTime(f.Get("updated").String()),
				URL:       j.IssueURL(key),
			})
		}

		startAt += len(issues)
		total := int(gjson.GetBytes(body, "total").Int())
		if len(issues) == 0 || startAt >= total {
			return out, nil
		}
	}
}
