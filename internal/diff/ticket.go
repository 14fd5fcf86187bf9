package diff

import "github.com/tbourn/go-support-tracker/internal/domain"

// ClassifyTicket decides how a live ticket changed since its snapshot.
// A nil snapshot means the ticket is new. The subject and last-update
// timestamp both count as content changes.
func ClassifyTicket(cur domain.ZendeskTicket, prev *domain.ZendeskTicketSnapshot) (domain.ChangeType, bool) {
	switch {
	case prev == nil:
		return domain.ChangeNew, true
	case cur.Status != prev.Status:
		return domain.ChangeStatusChanged, true
	case cur.Subject != prev.Subject || !cur.LastUpdate.Equal(prev.LastUpdate):
		return domain.ChangeUpdated, true
	default:
		return "", false
	}
}

// Tickets computes the ticket differences for one customer and one baseline
// day. With includeRemoved, baseline tickets missing from live are appended
// as removed entries.
func Tickets(live []domain.ZendeskTicket, baseline []domain.ZendeskTicketSnapshot, includeRemoved bool) []domain.TicketDifference {
	out := Compare[int64](live, baseline, func(cur domain.ZendeskTicket, prev *domain.ZendeskTicketSnapshot) (domain.TicketDifference, bool) {
		ct, changed := ClassifyTicket(cur, prev)
		if !changed {
			return domain.TicketDifference{}, false
		}
		d := domain.TicketDifference{
			TicketID:      cur.TicketID,
			Subject:       cur.Subject,
			CurrentStatus: cur.Status,
			Requester:     cur.Requester,
			LastUpdate:    cur.LastUpdate,
			TicketURL:     cur.TicketURL,
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
	for _, s := range Removed[int64](live, baseline) {
		out = append(out, domain.TicketDifference{
			TicketID:       s.TicketID,
			Subject:        s.Subject,
			PreviousStatus: strPtr(s.Status),
			Requester:      s.Requester,
			LastUpdate:     s.LastUpdate,
			TicketURL:      s.TicketURL,
			ChangeType:     domain.ChangeRemoved,
		})
	}
	return out
}
