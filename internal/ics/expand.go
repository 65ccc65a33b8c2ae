package ics

import (
	"iter"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "icalq/internal/log"
)

// DefaultMaxOccurrences is a safety cap to avoid infinite or extremely
// large expansions of open-ended rules.
const DefaultMaxOccurrences = 5000

// Occurrences yields the start of every occurrence of e in ascending order.
//
//   - Non-recurring events and overrides yield Start exactly once.
//   - RRULE and RDATE are expanded with rrule-go; EXDATE removes instances.
//   - Expansion stops after the per-event cap; hitting it is logged.
//
// The sequence is lazy and can be iterated more than once.
func (e Event) Occurrences() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !e.IsRecurring() {
			yield(e.Start)
			return
		}

		set, err := e.recurrenceSet()
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "uid", e.UID, "rrule", e.RRule)
			yield(e.Start)
			return
		}

		limit := e.maxOccurrences
		if limit <= 0 {
			limit = DefaultMaxOccurrences
		}

		next := set.Iterator()
		var last time.Time
		for n := 0; ; {
			t, ok := next()
			if !ok {
				return
			}
			if n > 0 && t.Equal(last) {
				continue
			}
			if n >= limit {
				appLog.Warn("expand: truncated occurrences for UID due to cap", "uid", e.UID, "cap", limit)
				return
			}
			last = t
			n++
			if !yield(t) {
				return
			}
		}
	}
}

func (e Event) recurrenceSet() (*rrule.Set, error) {
	var set rrule.Set

	if e.RRule != "" {
		r, err := rrule.StrToRRule(e.RRule)
		if err != nil {
			return nil, err
		}
		// Ensure Dtstart is set to the event's DTSTART.
		r.DTStart(e.Start)
		set.RRule(r)
	}

	rdates := make([]time.Time, 0, len(e.RDates)+1)
	if e.RRule == "" {
		// RDATE-only series still start at DTSTART.
		rdates = append(rdates, e.Start)
	}
	for _, rd := range e.RDates {
		rdates = append(rdates, rd.In(e.Start.Location()))
	}
	slices.SortFunc(rdates, func(a, b time.Time) int { return a.Compare(b) })
	for _, rd := range rdates {
		set.RDate(rd)
	}
	// Best effort: align EXDATE location with event's start.
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}
	return &set, nil
}
