// Package calendar holds a parsed iCalendar document and its date index.
package calendar

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"icalq/internal/ics"
	appLog "icalq/internal/log"
	"icalq/internal/source"
)

var (
	foldExp     = regexp.MustCompile(`\r?\n[ \t]`)
	prodIDExp   = regexp.MustCompile(`(?m)^PRODID:-//(.*)//(.*)$`)
	titleExp    = regexp.MustCompile(`(?m)^X-WR-CALNAME:(.*)$`)
	descExp     = regexp.MustCompile(`(?m)^X-WR-CALDESC:(.*)$`)
	eventExp    = regexp.MustCompile(`(?s)BEGIN:VEVENT(.+?)END:VEVENT`)
	defaultLoad = source.NewLoader(nil)
)

// Document is a parsed calendar: top-level metadata plus its events in
// source order. It is read-only after Parse; the date index is derived
// lazily and built at most once.
type Document struct {
	prodID      *string
	title       *string
	description *string
	content     string
	events      []ics.Event

	loc            *time.Location
	now            func() time.Time
	maxOccurrences int
	loader         *source.Loader

	indexOnce sync.Once
	index     *Index
}

// Option customizes a Document.
type Option func(*Document)

// WithLocation sets the zone used to truncate instants to calendar dates.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(d *Document) {
		if loc != nil {
			d.loc = loc
		}
	}
}

// WithClock overrides "now", which anchors EventsByDateUntil and relative
// date text.
func WithClock(now func() time.Time) Option {
	return func(d *Document) {
		if now != nil {
			d.now = now
		}
	}
}

// WithMaxOccurrences caps recurrence expansion per event.
func WithMaxOccurrences(n int) Option {
	return func(d *Document) {
		d.maxOccurrences = n
	}
}

// WithLoader sets the loader used by Open.
func WithLoader(l *source.Loader) Option {
	return func(d *Document) {
		if l != nil {
			d.loader = l
		}
	}
}

func newDocument(opts []Option) *Document {
	d := &Document{
		loc:    time.Local,
		now:    time.Now,
		loader: defaultLoad,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open reads input (a URL, a file path or calendar text) and parses it.
// A URL or file that cannot be read yields a *source.AcquisitionError.
func Open(ctx context.Context, input string, opts ...Option) (*Document, error) {
	d := newDocument(opts)
	content, err := d.loader.Load(ctx, input)
	if err != nil {
		return nil, err
	}
	d.parse(content)
	return d, nil
}

// Parse builds a Document from calendar text. It never fails: missing
// properties are absent and VEVENT blocks that cannot be parsed are skipped.
func Parse(content string, opts ...Option) *Document {
	d := newDocument(opts)
	d.parse(content)
	return d
}

func (d *Document) parse(content string) {
	content = foldExp.ReplaceAllString(content, "")
	d.content = content

	if m := prodIDExp.FindStringSubmatch(content); m != nil {
		d.prodID = trimmed(m[1])
	}
	if m := titleExp.FindStringSubmatch(content); m != nil {
		d.title = trimmed(m[1])
	}
	if m := descExp.FindStringSubmatch(content); m != nil {
		d.description = trimmed(m[1])
	}

	cfg := ics.ParseConfig{Location: d.loc, MaxOccurrences: d.maxOccurrences}
	blocks := eventExp.FindAllString(content, -1)
	d.events = make([]ics.Event, 0, len(blocks))
	for _, block := range blocks {
		ev, err := ics.ParseEvent(block, cfg)
		if err != nil {
			appLog.Debug("calendar: skipping malformed VEVENT", "err", err)
			continue
		}
		d.events = append(d.events, ev)
	}

	appLog.Debug("calendar parsed", "blocks", len(blocks), "event_count", len(d.events))
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

// ProdID is the vendor part of PRODID ("-//<vendor>//<product>").
func (d *Document) ProdID() (string, bool) { return deref(d.prodID) }

// Title is X-WR-CALNAME.
func (d *Document) Title() (string, bool) { return deref(d.title) }

// Description is X-WR-CALDESC.
func (d *Document) Description() (string, bool) { return deref(d.description) }

// Content is the unfolded source text.
func (d *Document) Content() string { return d.content }

// Events returns the events in source order. The slice must not be modified.
func (d *Document) Events() []ics.Event { return d.events }

// Location is the zone used for calendar-date truncation.
func (d *Document) Location() *time.Location { return d.loc }

// Index returns the date index, building it on first use.
func (d *Document) Index() *Index {
	d.indexOnce.Do(func() {
		d.index = BuildIndex(d.events, d.loc)
	})
	return d.index
}

// EventsByDate returns every date bucket in ascending date order.
func (d *Document) EventsByDate() []Day {
	return d.Index().Days()
}

// EventsOn returns the occurrences on a YYYY-MM-DD date, or nil.
func (d *Document) EventsOn(date string) []ics.Event {
	return d.Index().On(date)
}
