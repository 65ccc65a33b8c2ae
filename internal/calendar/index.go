package calendar

import (
	"cmp"
	"slices"
	"time"

	"icalq/internal/ics"
	"icalq/internal/when"
)

// Day is one date bucket: the occurrences starting on Date, ordered by
// start time and then by source order.
type Day struct {
	Date   string
	Events []ics.Event
}

// Index maps calendar dates to the occurrences on that date.
type Index struct {
	days   []Day
	byDate map[string]int
}

type slot struct {
	date string
	key  int64
	seq  int
	ev   ics.Event
}

// BuildIndex expands every event into per-date occurrences.
//
//  1. Each occurrence t of each event is rebased with FixOccurringDate and
//     filed under the calendar date of t in loc.
//  2. Buckets are ordered by date; within a bucket by the rebased start
//     (Unix seconds) with ties kept in expansion order.
//  3. In every bucket, an override (non-empty RECURRENCE-ID) removes the
//     generic occurrences of the same UID. Several overrides of one UID on
//     one date are all kept.
func BuildIndex(events []ics.Event, loc *time.Location) *Index {
	if loc == nil {
		loc = time.Local
	}

	var slots []slot
	for _, e := range events {
		for t := range e.Occurrences() {
			inst := e.FixOccurringDate(t)
			slots = append(slots, slot{
				date: when.Date(t, loc),
				key:  inst.Start.Unix(),
				seq:  len(slots),
				ev:   inst,
			})
		}
	}

	slices.SortFunc(slots, func(a, b slot) int {
		return cmp.Or(
			cmp.Compare(a.date, b.date),
			cmp.Compare(a.key, b.key),
			cmp.Compare(a.seq, b.seq),
		)
	})

	ix := &Index{byDate: make(map[string]int)}
	for _, s := range slots {
		n := len(ix.days)
		if n == 0 || ix.days[n-1].Date != s.date {
			ix.byDate[s.date] = n
			ix.days = append(ix.days, Day{Date: s.date})
			n++
		}
		ix.days[n-1].Events = append(ix.days[n-1].Events, s.ev)
	}

	for i := range ix.days {
		ix.days[i].Events = dropOverridden(ix.days[i].Events)
	}
	return ix
}

// dropOverridden removes generic occurrences whose UID has an override in
// the same bucket.
func dropOverridden(events []ics.Event) []ics.Event {
	var overridden map[string]bool
	for _, e := range events {
		if e.IsOverride() {
			if overridden == nil {
				overridden = make(map[string]bool)
			}
			overridden[e.UID] = true
		}
	}
	if overridden == nil {
		return events
	}

	out := events[:0]
	for _, e := range events {
		if !e.IsOverride() && overridden[e.UID] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Days returns all buckets in ascending date order. Callers must treat the
// buckets as read-only.
func (ix *Index) Days() []Day {
	return slices.Clone(ix.days)
}

// On returns the occurrences on date (YYYY-MM-DD), or nil.
func (ix *Index) On(date string) []ics.Event {
	i, ok := ix.byDate[date]
	if !ok {
		return nil
	}
	return ix.days[i].Events
}

// Len is the number of non-empty dates.
func (ix *Index) Len() int {
	return len(ix.days)
}
