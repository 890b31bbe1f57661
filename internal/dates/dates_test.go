package dates_test

import (
	"testing"
	"time"

	"cognify-data/internal/dates"

	"github.com/stretchr/testify/require"
)

func TestAge_CompletedBirthdays(t *testing.T) {
	cases := []struct {
		dob, asOf string
		want      int
	}{
		{"1980-05-15", "2025-02-01", 44}, // birthday not yet reached
		{"1980-05-15", "2025-05-15", 45}, // birthday today
		{"1980-05-15", "2025-05-16", 45},
		{"1980-12-31", "2025-01-01", 44},
		{"2000-02-29", "2025-02-28", 24},
	}
	for _, c := range cases {
		got, err := dates.Age(c.dob, c.asOf)
		require.NoError(t, err)
		require.Equal(t, c.want, got, "age(%s, %s)", c.dob, c.asOf)
	}
}

func TestAge_BadInput(t *testing.T) {
	_, err := dates.Age("not-a-date", "2025-01-01")
	require.ErrorIs(t, err, dates.ErrParse)
}

func TestFormatDateLabel(t *testing.T) {
	got, err := dates.FormatDateLabel("02-01-2025")
	require.NoError(t, err)
	require.Equal(t, "February 1, 2025", got)
}

func TestFormatDateLabel_Malformed(t *testing.T) {
	for _, key := range []string{"2025-02", "aa-bb-cccc", "02/01/2025", ""} {
		_, err := dates.FormatDateLabel(key)
		require.ErrorIs(t, err, dates.ErrParse, "key %q", key)
	}
}

func TestNextStreak(t *testing.T) {
	// gap of more than one day resets
	require.Equal(t, 1, dates.NextStreak("2025-06-01", "2025-06-03", 5))
	// consecutive day continues
	require.Equal(t, 6, dates.NextStreak("2025-06-02", "2025-06-03", 5))
	// same day replays reset rather than inflate
	require.Equal(t, 1, dates.NextStreak("2025-06-03", "2025-06-03", 5))
	// unparseable history starts over
	require.Equal(t, 1, dates.NextStreak("", "2025-06-03", 5))
}

func TestWeekGroups_DropsSingletons(t *testing.T) {
	groups, err := dates.WeekGroups([]string{"01-01-2025", "01-02-2025", "01-10-2025"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "Jan 1, 2025 - Jan 2, 2025", groups[0].Label)
	require.Equal(t, []string{"01-01-2025", "01-02-2025"}, groups[0].Dates)
}

func TestWeekGroups_SevenDaySpan(t *testing.T) {
	// Jan 7 is 6 days from Jan 1 and stays in the group; Jan 8 starts a new one
	groups, err := dates.WeekGroups([]string{
		"01-01-2025", "01-07-2025", "01-08-2025", "01-09-2025",
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, []string{"01-01-2025", "01-07-2025"}, groups[0].Dates)
	require.Equal(t, []string{"01-08-2025", "01-09-2025"}, groups[1].Dates)
}

func TestWeekGroups_MalformedKey(t *testing.T) {
	_, err := dates.WeekGroups([]string{"01-01-2025", "bogus"})
	require.ErrorIs(t, err, dates.ErrParse)
}

func TestCooldownWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cd, err := dates.CooldownWindow("2025-01-10", 6, 7, now)
	require.NoError(t, err)
	require.True(t, cd.Active)
	require.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), cd.NextStart)

	// fewer than 7 completed days never blocks play
	cd, err = dates.CooldownWindow("2025-01-10", 6, 3, now)
	require.NoError(t, err)
	require.False(t, cd.Active)

	// more than 7 completed days still counts as a finished cycle
	cd, err = dates.CooldownWindow("2025-01-10", 6, 9, now)
	require.NoError(t, err)
	require.True(t, cd.Active)

	// firstPlayed several cycles back keeps advancing past now
	cd, err = dates.CooldownWindow("2023-01-10", 6, 7, now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), cd.NextStart)
}

func TestKeyRoundTrip(t *testing.T) {
	d := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "02-03-2025", dates.DateKey(d))
	require.Equal(t, "2025-02-03", dates.ISODate(d))
	require.Equal(t, "Feb 2025", dates.MonthYearLabel(d))
	require.Equal(t, "2025-02-02", dates.Yesterday(d))

	parsed, err := dates.ParseKey("02-03-2025")
	require.NoError(t, err)
	require.Equal(t, d, parsed)
}
