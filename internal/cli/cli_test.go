package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//ACME//Team Calendar//EN
X-WR-CALNAME:Team
BEGIN:VEVENT
UID:standup
SUMMARY:Standup
LOCATION:Room 4
DTSTART:20240110T090000Z
DTEND:20240110T091500Z
RRULE:FREQ=DAILY;COUNT=3
END:VEVENT
BEGIN:VEVENT
UID:holiday
SUMMARY:Holiday
DTSTART;VALUE=DATE:20240111
END:VEVENT
BEGIN:VEVENT
UID:standup
RECURRENCE-ID:20240111T090000Z
SUMMARY:Standup moved
DTSTART:20240111T100000Z
DTEND:20240111T101500Z
END:VEVENT
END:VCALENDAR
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(content, "\n", "\r\n")), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "icalq", cmd.Use)

	for _, name := range []string{"info", "events", "days", "watch"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "info", "BEGIN:VCALENDAR", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestDaysAgenda(t *testing.T) {
	path := writeFile(t, "team.ics", teamICS)

	out, err := run(t, "days", path, "--timezone", "UTC", "--since", "2024-01-10")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "agenda", []byte(out))
}

func TestDaysBetweenJSON(t *testing.T) {
	path := writeFile(t, "team.ics", teamICS)

	out, err := run(t, "days", path, "--timezone", "UTC", "--format", "json",
		"--between", "2024-01-11,2024-01-12")
	require.NoError(t, err)

	var days []dayJSON
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-11", days[0].Date)
	require.Len(t, days[0].Events, 2)
	assert.Equal(t, "Holiday", days[0].Events[0].Summary)
	assert.True(t, days[0].Events[0].AllDay)
	assert.Equal(t, "Standup moved", days[0].Events[1].Summary)
	assert.Equal(t, "20240111T090000Z", days[0].Events[1].RecurrenceID)
}

func TestDaysLimitAndBadDate(t *testing.T) {
	path := writeFile(t, "team.ics", teamICS)

	out, err := run(t, "days", path, "--timezone", "UTC", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10\n  09:00-09:15  Standup (Room 4)\n", out)

	_, err = run(t, "days", path, "--since", "someday maybe")
	require.Error(t, err)

	_, err = run(t, "days", path, "--between", "2024-01-01")
	require.Error(t, err)
}

func TestInfoJSON(t *testing.T) {
	path := writeFile(t, "team.ics", teamICS)

	out, err := run(t, "info", path, "--timezone", "UTC", "--format", "json")
	require.NoError(t, err)

	var info infoJSON
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.NotNil(t, info.ProdID)
	assert.Equal(t, "ACME//Team Calendar", *info.ProdID)
	require.NotNil(t, info.Title)
	assert.Equal(t, "Team", *info.Title)
	assert.Nil(t, info.Description)
	assert.Equal(t, 3, info.Events)
	assert.Equal(t, 3, info.Dates)
}

func TestEventsText(t *testing.T) {
	path := writeFile(t, "team.ics", teamICS)

	out, err := run(t, "events", path, "--timezone", "UTC")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"2024-01-10 09:00-09:15  Standup  [recurring]",
		"2024-01-11 all day  Holiday",
		"2024-01-11 10:00-10:15  Standup moved  [override]",
		"",
	}, "\n"), out)
}

func TestOpenMissingURLFails(t *testing.T) {
	_, err := run(t, "info", "http://127.0.0.1:1/none.ics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open calendar")
}

func TestWatchOnce(t *testing.T) {
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("20060102")
	ics := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:soon\nSUMMARY:Soon\nDTSTART;VALUE=DATE:" + tomorrow + "\nEND:VEVENT\nEND:VCALENDAR\n"
	calPath := writeFile(t, "soon.ics", ics)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("timezone: UTC\nsources:\n  - name: Upcoming\n    url: "+calPath+"\n"), 0o600))

	out, err := run(t, "watch", "--config", cfgPath, "--once", "--horizon", "+30 days")
	require.NoError(t, err)
	assert.Contains(t, out, "== Upcoming ==")
	assert.Contains(t, out, "all day      Soon")
}

func TestWatchWithoutSources(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := run(t, "watch", "--config", cfgPath, "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources")
}
