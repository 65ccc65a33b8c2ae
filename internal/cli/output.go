package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"icalq/internal/calendar"
	"icalq/internal/ics"
)

type infoJSON struct {
	ProdID      *string `json:"prodid"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Events      int     `json:"events"`
	Dates       int     `json:"dates"`
}

type eventJSON struct {
	UID          string    `json:"uid"`
	RecurrenceID string    `json:"recurrence_id,omitempty"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	URL          string    `json:"url,omitempty"`
	Status       string    `json:"status,omitempty"`
	Categories   []string  `json:"categories,omitempty"`
	AllDay       bool      `json:"all_day"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	RRule        string    `json:"rrule,omitempty"`
}

type dayJSON struct {
	Date   string      `json:"date"`
	Events []eventJSON `json:"events"`
}

func optional(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}

func toEventJSON(e ics.Event, loc *time.Location) eventJSON {
	return eventJSON{
		UID:          e.UID,
		RecurrenceID: e.RecurrenceID,
		Summary:      e.Summary,
		Description:  e.Description,
		Location:     e.Location,
		URL:          e.URL,
		Status:       e.Status,
		Categories:   e.Categories,
		AllDay:       e.AllDay,
		Start:        e.Start.In(loc),
		End:          e.End.In(loc),
		RRule:        e.RRule,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeInfo(w io.Writer, format string, doc *calendar.Document) error {
	info := infoJSON{
		ProdID:      optional(doc.ProdID()),
		Title:       optional(doc.Title()),
		Description: optional(doc.Description()),
		Events:      len(doc.Events()),
		Dates:       doc.Index().Len(),
	}
	if format == "json" {
		return writeJSON(w, info)
	}

	show := func(p *string) string {
		if p == nil {
			return "-"
		}
		return *p
	}
	_, err := fmt.Fprintf(w, "prodid:      %s\ntitle:       %s\ndescription: %s\nevents:      %d\ndates:       %d\n",
		show(info.ProdID), show(info.Title), show(info.Description), info.Events, info.Dates)
	return err
}

func writeEvents(w io.Writer, format string, events []ics.Event, loc *time.Location) error {
	if format == "json" {
		out := make([]eventJSON, 0, len(events))
		for _, e := range events {
			out = append(out, toEventJSON(e, loc))
		}
		return writeJSON(w, out)
	}

	for _, e := range events {
		var flags []string
		if e.IsRecurring() {
			flags = append(flags, "recurring")
		}
		if e.IsOverride() {
			flags = append(flags, "override")
		}
		line := fmt.Sprintf("%s %s  %s", e.Start.In(loc).Format("2006-01-02"), timeSpan(e, loc), e.Summary)
		if len(flags) > 0 {
			line += "  [" + strings.Join(flags, ",") + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeDays renders an agenda: one header per date, one indented line per
// occurrence.
func writeDays(w io.Writer, format string, days []calendar.Day, loc *time.Location) error {
	if format == "json" {
		out := make([]dayJSON, 0, len(days))
		for _, d := range days {
			dj := dayJSON{Date: d.Date, Events: make([]eventJSON, 0, len(d.Events))}
			for _, e := range d.Events {
				dj.Events = append(dj.Events, toEventJSON(e, loc))
			}
			out = append(out, dj)
		}
		return writeJSON(w, out)
	}

	var b strings.Builder
	for _, d := range days {
		b.WriteString(d.Date)
		b.WriteString("\n")
		for _, e := range d.Events {
			fmt.Fprintf(&b, "  %-11s  %s", timeSpan(e, loc), e.Summary)
			if e.Location != "" {
				fmt.Fprintf(&b, " (%s)", e.Location)
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func timeSpan(e ics.Event, loc *time.Location) string {
	if e.AllDay {
		return "all day"
	}
	start := e.Start.In(loc).Format("15:04")
	if !e.End.After(e.Start) {
		return start
	}
	return start + "-" + e.End.In(loc).Format("15:04")
}
