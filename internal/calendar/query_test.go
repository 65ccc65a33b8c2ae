package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icalq/internal/when"
)

// One event per listed date at 09:00 UTC.
func docOnDates(t *testing.T, today time.Time, days ...string) *Document {
	t.Helper()
	var events []string
	for _, d := range days {
		compact := d[0:4] + d[5:7] + d[8:10]
		events = append(events, vevent("e-"+d, compact+"T090000Z"))
	}
	return parseUTC(vcal(events...), WithClock(func() time.Time { return today }))
}

func TestEventsByDateBetween_HalfOpen(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2023-12-31", "2024-01-01", "2024-01-31", "2024-02-01")

	days, err := doc.EventsByDateBetween(when.Text("2024-01-01"), when.Text("2024-02-01"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-31"}, dates(days))
}

func TestEventsByDateBetween_DateGranularity(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2024-01-01", "2024-01-02")

	// 23:59 on the first still counts as 2024-01-01.
	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	days, err := doc.EventsByDateBetween(when.At(start), when.At(end), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, dates(days))
}

func TestEventsByDateBetween_Epoch(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2024-01-01", "2024-01-15")

	days, err := doc.EventsByDateBetween(when.Epoch(1704067200), when.Epoch(1705276800), 0) // 01-01 .. 01-15
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, dates(days))
}

func TestEventsByDateBetween_Limit(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04")

	tests := []struct {
		limit int
		want  []string
	}{
		{0, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}},
		{-1, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}},
		{1, []string{"2024-01-01"}},
		{3, []string{"2024-01-01", "2024-01-02", "2024-01-03"}},
		{10, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}},
	}
	for _, tt := range tests {
		days, err := doc.EventsByDateBetween(when.Text("2024-01-01"), when.Text("2024-02-01"), tt.limit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, dates(days), "limit=%d", tt.limit)
	}
}

func TestEventsByDateSince(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2024-05-31", "2024-06-01", "2024-06-15", "2024-07-01")

	days, err := doc.EventsByDateSince(when.Text("2024-06-01"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-15", "2024-07-01"}, dates(days))

	days, err = doc.EventsByDateSince(when.Text("2024-06-01"), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-15"}, dates(days))
}

func TestEventsByDateUntil_InclusiveBounds(t *testing.T) {
	today := time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)
	doc := docOnDates(t, today, "2024-11-30", "2024-12-01", "2024-12-15", "2024-12-31", "2025-01-01")

	days, err := doc.EventsByDateUntil(when.Text("2024-12-31"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-01", "2024-12-15", "2024-12-31"}, dates(days))

	days, err = doc.EventsByDateUntil(when.Text("2024-12-31"), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-01"}, dates(days))
}

func TestEventsByDateUntil_RelativeText(t *testing.T) {
	today := time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)
	doc := docOnDates(t, today, "2024-12-01", "2024-12-02", "2024-12-09")

	days, err := doc.EventsByDateUntil(when.Text("+1 week"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-01", "2024-12-02"}, dates(days))
}

func TestRangeQueries_NoMatchIsEmpty(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2024-01-01")

	days, err := doc.EventsByDateSince(when.Text("2030-01-01"), 0)
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestRangeQueries_ParseErrorsPropagate(t *testing.T) {
	doc := docOnDates(t, time.Now(), "2024-01-01")
	bad := when.Text("the twelfth of never")

	_, err := doc.EventsByDateBetween(bad, when.Text("2024-02-01"), 0)
	var pe *when.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = doc.EventsByDateBetween(when.Text("2024-01-01"), bad, 0)
	assert.True(t, errors.As(err, &pe))

	_, err = doc.EventsByDateSince(bad, 0)
	assert.True(t, errors.As(err, &pe))

	_, err = doc.EventsByDateUntil(bad, 0)
	assert.True(t, errors.As(err, &pe))
}
