// Package when resolves the start/end arguments of range queries.
//
// An Input is either an epoch (seconds) or free text. Text understands a few
// keywords ("now", "today", "tomorrow", "yesterday"), relative offsets such
// as "+3 days" or "2 weeks ago", "@<epoch>", a bare run of digits (epoch
// seconds), and any absolute date format accepted by dateparse.
package when

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the calendar-date format used for index buckets.
const DateLayout = "2006-01-02"

// Date truncates t to a calendar date in loc.
func Date(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// Input is a tagged range-query bound.
type Input struct {
	epoch   int64
	text    string
	isEpoch bool
}

// Epoch builds an Input from Unix seconds.
func Epoch(sec int64) Input {
	return Input{epoch: sec, isEpoch: true}
}

// Text builds an Input that is parsed when resolved.
func Text(s string) Input {
	return Input{text: s}
}

// At builds an Input from an instant.
func At(t time.Time) Input {
	return Epoch(t.Unix())
}

func (in Input) String() string {
	if in.isEpoch {
		return "@" + strconv.FormatInt(in.epoch, 10)
	}
	return in.text
}

// ParseError reports text that could not be turned into an instant.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("when: cannot parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errEmpty      = errors.New("empty date")
	errSignedAgo  = errors.New("signed offset cannot be combined with \"ago\"")
	epochDigitExp = regexp.MustCompile(`^\d+$`)
	relativeExp   = regexp.MustCompile(`^([+-])?(\d+)\s*(sec|second|min|minute|hour|day|week|fortnight|month|year)s?(\s+ago)?$`)
)

// Resolve turns the input into an instant. now anchors keywords and
// relative offsets; loc is used for dates without an explicit zone.
func (in Input) Resolve(now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if in.isEpoch {
		return time.Unix(in.epoch, 0).In(loc), nil
	}

	s := strings.ToLower(strings.TrimSpace(in.text))
	now = now.In(loc)

	switch s {
	case "":
		return time.Time{}, &ParseError{Input: in.text, Err: errEmpty}
	case "now":
		return now, nil
	case "today", "midnight":
		return startOfDay(now), nil
	case "tomorrow":
		return startOfDay(now).AddDate(0, 0, 1), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if strings.HasPrefix(s, "@") {
		sec, err := strconv.ParseInt(s[1:], 10, 64)
		if err != nil {
			return time.Time{}, &ParseError{Input: in.text, Err: err}
		}
		return time.Unix(sec, 0).In(loc), nil
	}

	// Digits only are epoch seconds, never a compact date like 20240101.
	if epochDigitExp.MatchString(s) {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, &ParseError{Input: in.text, Err: err}
		}
		return time.Unix(sec, 0).In(loc), nil
	}

	if m := relativeExp.FindStringSubmatch(s); m != nil {
		sign, ago := m[1], m[4] != ""
		if sign != "" && ago {
			return time.Time{}, &ParseError{Input: in.text, Err: errSignedAgo}
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, &ParseError{Input: in.text, Err: err}
		}
		if sign == "-" || ago {
			n = -n
		}
		return shift(now, n, m[3]), nil
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(in.text), loc)
	if err != nil {
		return time.Time{}, &ParseError{Input: in.text, Err: err}
	}
	return t, nil
}

// ResolveDate is Resolve followed by calendar-date truncation.
func (in Input) ResolveDate(now time.Time, loc *time.Location) (string, error) {
	t, err := in.Resolve(now, loc)
	if err != nil {
		return "", err
	}
	return Date(t, loc), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func shift(t time.Time, n int, unit string) time.Time {
	switch unit {
	case "sec", "second":
		return t.Add(time.Duration(n) * time.Second)
	case "min", "minute":
		return t.Add(time.Duration(n) * time.Minute)
	case "hour":
		return t.Add(time.Duration(n) * time.Hour)
	case "day":
		return t.AddDate(0, 0, n)
	case "week":
		return t.AddDate(0, 0, 7*n)
	case "fortnight":
		return t.AddDate(0, 0, 14*n)
	case "month":
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(n, 0, 0)
	}
}
