package ics

import (
	"slices"
	"time"
)

// Event is one VEVENT. Values are never mutated after ParseEvent; per-occurrence
// copies are produced by FixOccurringDate.
type Event struct {
	// UID is shared by a recurring series and all of its overrides.
	UID string
	// RecurrenceID is the raw RECURRENCE-ID value. Non-empty marks this
	// record as an override of one occurrence of the series UID.
	RecurrenceID string

	Summary     string
	Description string
	Location    string
	URL         string
	Status      string
	Categories  []string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	RDates  []time.Time
	ExDates []time.Time

	// Raw is the VEVENT block the event was parsed from.
	Raw string

	maxOccurrences int
}

// IsOverride reports whether the event replaces one occurrence of a series.
func (e Event) IsOverride() bool {
	return e.RecurrenceID != ""
}

// IsRecurring reports whether Occurrences may yield more than Start.
func (e Event) IsRecurring() bool {
	return !e.IsOverride() && (e.RRule != "" || len(e.RDates) > 0)
}

// Duration is End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// FixOccurringDate returns a copy of e rebased onto the occurrence starting
// at t. The duration is preserved and no slice is shared with e.
func (e Event) FixOccurringDate(t time.Time) Event {
	out := e
	out.Start = t
	out.End = t.Add(e.Duration())
	out.Categories = slices.Clone(e.Categories)
	out.RDates = slices.Clone(e.RDates)
	out.ExDates = slices.Clone(e.ExDates)
	return out
}
