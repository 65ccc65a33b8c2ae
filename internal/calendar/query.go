package calendar

import (
	"icalq/internal/when"
)

// Range queries compare calendar dates, not instants: each bound is
// resolved and truncated to YYYY-MM-DD in the document location.
//
// A limit <= 0 means no limit. Otherwise scanning stops as soon as limit
// buckets were collected, so at most limit buckets are returned.

// EventsByDateBetween returns buckets with start <= date < end.
func (d *Document) EventsByDateBetween(start, end when.Input, limit int) ([]Day, error) {
	from, err := start.ResolveDate(d.now(), d.loc)
	if err != nil {
		return nil, err
	}
	to, err := end.ResolveDate(d.now(), d.loc)
	if err != nil {
		return nil, err
	}
	return collect(d.Index().days, limit, func(date string) (bool, bool) {
		return from <= date && date < to, date >= to
	}), nil
}

// EventsByDateSince returns buckets with start <= date.
func (d *Document) EventsByDateSince(start when.Input, limit int) ([]Day, error) {
	from, err := start.ResolveDate(d.now(), d.loc)
	if err != nil {
		return nil, err
	}
	return collect(d.Index().days, limit, func(date string) (bool, bool) {
		return from <= date, false
	}), nil
}

// EventsByDateUntil returns buckets with today <= date <= end. Unlike
// EventsByDateBetween both bounds are inclusive.
func (d *Document) EventsByDateUntil(end when.Input, limit int) ([]Day, error) {
	now := d.now()
	today := when.Date(now, d.loc)
	to, err := end.ResolveDate(now, d.loc)
	if err != nil {
		return nil, err
	}
	return collect(d.Index().days, limit, func(date string) (bool, bool) {
		return today <= date && date <= to, date > to
	}), nil
}

// collect scans days in order. match reports whether a bucket is included
// and whether no later bucket can match.
func collect(days []Day, limit int, match func(date string) (include, done bool)) []Day {
	out := []Day{}
	for _, day := range days {
		include, done := match(day.Date)
		if done {
			break
		}
		if include {
			out = append(out, day)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
