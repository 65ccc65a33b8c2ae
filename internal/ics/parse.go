package ics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "icalq/internal/log"
)

// ParseConfig controls how a VEVENT block is turned into an Event.
type ParseConfig struct {
	// Location is used for floating times, all-day dates and TZIDs that
	// cannot be loaded. If nil, time.Local is used.
	Location *time.Location

	// MaxOccurrences caps recurrence expansion for each event. If zero,
	// DefaultMaxOccurrences is used.
	MaxOccurrences int
}

var ErrNoEvent = errors.New("ics: block contains no VEVENT")

// ParseEvent parses a single BEGIN:VEVENT ... END:VEVENT block.
//
//   - The block is wrapped in a VCALENDAR envelope and handed to golang-ical.
//   - DTSTART is required. DTEND falls back to DURATION, then to DTSTART
//     (timed) or DTSTART + 1 day (all-day).
//   - RRULE/RDATE/EXDATE/RECURRENCE-ID are recorded; expansion happens in
//     Occurrences.
func ParseEvent(block string, cfg ParseConfig) (Event, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = DefaultMaxOccurrences
	}

	cal, err := ical.ParseCalendar(strings.NewReader(envelope(block)))
	if err != nil {
		return Event{}, err
	}
	events := cal.Events()
	if len(events) == 0 {
		return Event{}, ErrNoEvent
	}

	ev, err := fromVEvent(events[0], cfg)
	if err != nil {
		return Event{}, err
	}
	ev.Raw = block
	return ev, nil
}

// envelope normalizes line endings, drops blank lines and wraps the block
// so that the library sees a complete calendar.
func envelope(block string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\n")
	for _, line := range strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func fromVEvent(ve *ical.VEvent, cfg ParseConfig) (Event, error) {
	out := Event{maxOccurrences: cfg.MaxOccurrences}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && strings.TrimSpace(p.Value) != "" {
		out.UID = strings.TrimSpace(p.Value)
	} else {
		out.UID = uuid.NewString()
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty("URL"); p != nil {
		out.URL = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		out.Status = strings.ToUpper(strings.TrimSpace(p.Value))
	}
	for _, p := range ve.GetProperties("CATEGORIES") {
		for _, c := range splitList(p.Value) {
			out.Categories = append(out.Categories, unescapeText(c))
		}
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, allDay, err := parseTimeProp(dtStart.Value, dtStart.ICalParameters, cfg.Location)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = allDay

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		p := ve.GetProperty(ical.ComponentPropertyDtEnd)
		end, _, err := parseTimeProp(p.Value, p.ICalParameters, cfg.Location)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	case ve.GetProperty("DURATION") != nil:
		d, err := parseDuration(ve.GetProperty("DURATION").Value)
		if err != nil {
			return out, fmt.Errorf("DURATION: %w", err)
		}
		out.End = start.Add(d)
	case allDay:
		out.End = start.AddDate(0, 0, 1)
	default:
		out.End = start
	}
	if out.End.Before(out.Start) {
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = strings.TrimSpace(p.Value)
	}
	out.RDates = parseTimeList(ve.GetProperties("RDATE"), cfg.Location)
	out.ExDates = parseTimeList(ve.GetProperties(ical.ComponentPropertyExdate), cfg.Location)

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		out.RecurrenceID = strings.TrimSpace(p.Value)
	}

	return out, nil
}

func parseTimeList(props []*ical.IANAProperty, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range props {
		for _, part := range splitList(p.Value) {
			t, _, err := parseTimeProp(part, p.ICalParameters, loc)
			if err != nil {
				appLog.Debug("ics: skipping unparseable date", "value", part, "err", err)
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

// parseTimeProp parses a DATE or DATE-TIME value honouring VALUE=DATE and
// TZID parameters. The boolean reports a date-only value.
func parseTimeProp(v string, params map[string][]string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	if tzs := params["TZID"]; len(tzs) > 0 && tzs[0] != "" {
		if tz, err := time.LoadLocation(strings.Trim(tzs[0], `"`)); err == nil {
			loc = tz
		} else {
			appLog.Debug("ics: unknown TZID, using default location", "tzid", tzs[0])
		}
	}

	dateOnly := !strings.Contains(v, "T")
	if vs := params["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		dateOnly = true
	}

	switch {
	case dateOnly:
		// 20250101
		if len(v) > 8 {
			v = v[:8]
		}
		t, err := time.ParseInLocation("20060102", v, loc)
		return t, true, err
	case strings.HasSuffix(v, "Z"):
		// 20250101T090000Z
		t, err := time.Parse("20060102T150405Z", v)
		return t, false, err
	default:
		// 20250101T090000
		t, err := time.ParseInLocation("20060102T150405", v, loc)
		return t, false, err
	}
}

var durationExp = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDuration parses an RFC 5545 DURATION value such as "PT1H30M" or "P2D".
func parseDuration(v string) (time.Duration, error) {
	m := durationExp.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(v)))
	if m == nil || strings.Join(m[2:], "") == "" {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, err
		}
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\,`, ",", `\;`, ";", `\n`, "\n", `\N`, "\n")

func unescapeText(v string) string {
	return strings.TrimSpace(textUnescaper.Replace(v))
}
