package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// ZendeskClient lists tickets from one Zendesk account.
type ZendeskClient struct {
	base     string
	pageSize int
	c        *client
}

// NewZendeskClient builds a client for https://{subdomain}.zendesk.com using
// API-token authentication ("{email}/token" as the user).
func NewZendeskClient(subdomain, email, token string, opts Options) *ZendeskClient {
	opts = opts.withDefaults()
	base := opts.BaseURL
	if base == "" {
		base = "https://" + strings.TrimSpace(subdomain) + ".zendesk.com"
	}
	return &ZendeskClient{
		base:     strings.TrimRight(base, "/"),
		pageSize: min(opts.PageSize, 100),
		c:        newClient(strings.TrimSpace(email)+"/token", token, opts),
	}
}

// TicketURL is the agent-facing link for a ticket.
func (z *ZendeskClient) TicketURL(id int64) string {
	return z.base + "/agent/tickets/" + strconv.FormatInt(id, 10)
}

// FetchTickets walks the cursor-paginated ticket list. Requesters are
// resolved from the side-loaded users of each page. Tickets without an id
// are skipped.
func (z *ZendeskClient) FetchTickets(ctx context.Context) ([]Ticket, error) {
	q := url.Values{}
	q.Set("page[size]", strconv.Itoa(z.pageSize))
	q.Set("include", "users")
	next := z.base + "/api/v2/tickets.json?" + q.Encode()

	var out []Ticket
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("zendesk: more than %d pages", maxPages)
		}
		body, err := z.c.getJSON(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("zendesk: %w", err)
		}

		users := map[int64]string{}
		gjson.GetBytes(body, "users").ForEach(func(_, u gjson.Result) bool {
			name := u.Get("name").String()
			if name == "" {
				name = u.Get("email").String()
			}
			users[u.Get("id").Int()] = name
			return true
		})

		gjson.GetBytes(body, "tickets").ForEach(func(_, t gjson.Result) bool {
			id := t.Get("id").Int()
			if id == 0 {
				log.Warn().Str("component", "zendesk").Msg("skipping ticket without id")
				return true
			}
			rid := t.Get("requester_id").Int()
			requester, ok := users[rid]
			if !ok || requester == "" {
				requester = strconv.FormatInt(rid, 10)
			}
			out = append(out, Ticket{
				ID:        id,
				Subject:   t.Get("subject").String(),
				Status:    t.Get("status").String(),
				Requester: requester,
				UpdatedAt: parseTime(t.Get("updated_at").String()),
				URL:       z.TicketURL(id),
			})
			return true
		})

		next = ""
		if gjson.GetBytes(body, "meta.has_more").Bool() {
			next = gjson.GetBytes(body, "links.next").String()
		}
	}
	return out, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700", // Jira
	"2006-01-02T15:04:05-0700",
}

// parseTime accepts the timestamp formats used by both APIs and returns the
// zero time when none match.
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
