// Package diff classifies live tracker records against the previous day's
// snapshots. It is pure: callers load the records and this package decides,
// per natural key, whether a record is new, changed, or unchanged.
//
// Precedence for a record that has a baseline snapshot:
//
//	status_changed > assignee_changed (issues only) > updated > no change
//
// Exactly one classification is produced for every changed record. Baseline
// rows whose key is absent from the live set are ignored unless removed
// records are requested explicitly.
package diff

// Keyed is a record identified by the external system's natural key.
type Keyed[K comparable] interface {
	NaturalKey() K
}

// Index maps baseline rows by natural key. When several rows share a key the
// last one wins.
func Index[K comparable, S Keyed[K]](baseline []S) map[K]S {
	out := make(map[K]S, len(baseline))
	for _, s := range baseline {
		out[s.NaturalKey()] = s
	}
	return out
}

// Compare walks live in order, looks up each record's baseline row and calls
// classify with it (nil when no row exists). Records for which classify
// reports no change are omitted. The result is never nil.
func Compare[K comparable, L Keyed[K], S Keyed[K], D any](live []L, baseline []S, classify func(L, *S) (D, bool)) []D {
	idx := Index[K](baseline)
	out := make([]D, 0, len(live))
	for _, rec := range live {
		var prev *S
		if s, ok := idx[rec.NaturalKey()]; ok {
			prev = &s
		}
		if d, changed := classify(rec, prev); changed {
			out = append(out, d)
		}
	}
	return out
}

// Removed returns one baseline row per key that no longer appears in live,
// ordered by first appearance in baseline. The row returned for a duplicated
// key is the last one, matching Index.
func Removed[K comparable, L Keyed[K], S Keyed[K]](live []L, baseline []S) []S {
	present := make(map[K]struct{}, len(live))
	for _, rec := range live {
		present[rec.NaturalKey()] = struct{}{}
	}
	idx := Index[K](baseline)
	seen := make(map[K]struct{}, len(baseline))
	var out []S
	for _, s := range baseline {
		k := s.NaturalKey()
		if _, ok := present[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, idx[k])
	}
	return out
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtr(s string) *string { return &s }
