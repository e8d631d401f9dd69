package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekdayBit(t *testing.T) {
	require.Equal(t, uint8(1<<0), WeekdayBit(time.Monday))
	require.Equal(t, uint8(1<<4), WeekdayBit(time.Friday))
	require.Equal(t, uint8(1<<5), WeekdayBit(time.Saturday))
	require.Equal(t, uint8(1<<6), WeekdayBit(time.Sunday))
}

func TestSingleMatchesOnlyItsDate(t *testing.T) {
	s := SingleSchedule(date(2024, 3, 4), nil)
	require.True(t, s.Matches(date(2024, 3, 4)))
	require.False(t, s.Matches(date(2024, 3, 3)))
	require.False(t, s.Matches(date(2024, 3, 5)))
	// time-of-day on the query must not matter
	require.True(t, s.Matches(time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC)))
}

func TestWeeklyMatchesByWeekdayOnly(t *testing.T) {
	monday := WeeklySchedule(WeekdayBit(time.Monday), nil)
	// 2024-03-05 is a Tuesday, 2024-03-11 the following Monday
	require.False(t, monday.Matches(date(2024, 3, 5)))
	require.True(t, monday.Matches(date(2024, 3, 11)))
	// same weekday in a different month and year
	require.True(t, monday.Matches(date(2025, 6, 2)))

	paused := WeeklySchedule(0, nil)
	for i := 0; i < 7; i++ {
		require.False(t, paused.Matches(date(2024, 3, 4).AddDate(0, 0, i)))
	}
}

func TestEveryNDaysMatches(t *testing.T) {
	s := EveryNDaysSchedule(date(2024, 1, 1), 3, nil)
	require.True(t, s.Matches(date(2024, 1, 1)))
	require.False(t, s.Matches(date(2024, 1, 2)))
	require.False(t, s.Matches(date(2024, 1, 3)))
	require.True(t, s.Matches(date(2024, 1, 4)))
	require.True(t, s.Matches(date(2024, 1, 7)))
	// dates before the start never match
	require.False(t, s.Matches(date(2023, 12, 31)))
	require.False(t, s.Matches(date(2023, 12, 29)))
}

func TestEveryNDaysRejectsBadInterval(t *testing.T) {
	s := Schedule{Kind: ScheduleEveryN, StartDate: date(2024, 1, 1), EveryN: 0}
	require.False(t, s.Matches(date(2024, 1, 1)))
	_, ok := s.Next(date(2024, 1, 1))
	require.False(t, ok)
}

func TestUnknownKindFailsClosed(t *testing.T) {
	var s Schedule
	require.False(t, s.Matches(date(2024, 1, 1)))
	_, ok := s.Next(date(2024, 1, 1))
	require.False(t, ok)

	s = Schedule{Kind: "monthly", WeekdayMask: 0x7f, EveryN: 1}
	require.False(t, s.Matches(date(2024, 1, 1)))
}

func TestNextSingle(t *testing.T) {
	s := SingleSchedule(date(2024, 3, 4), nil)

	next, ok := s.Next(date(2024, 3, 1))
	require.True(t, ok)
	require.Equal(t, date(2024, 3, 4), next)

	_, ok = s.Next(date(2024, 3, 4))
	require.False(t, ok)
	_, ok = s.Next(date(2024, 3, 10))
	require.False(t, ok)
}

func TestNextWeekly(t *testing.T) {
	s := WeeklySchedule(WeekdayBit(time.Monday)|WeekdayBit(time.Thursday), nil)

	// from Monday 2024-03-04 the next hit is Thursday 2024-03-07
	next, ok := s.Next(date(2024, 3, 4))
	require.True(t, ok)
	require.Equal(t, date(2024, 3, 7), next)

	next, ok = s.Next(date(2024, 3, 7))
	require.True(t, ok)
	require.Equal(t, date(2024, 3, 11), next)

	_, ok = WeeklySchedule(0, nil).Next(date(2024, 3, 4))
	require.False(t, ok)
}

func TestNextEveryNDays(t *testing.T) {
	s := EveryNDaysSchedule(date(2024, 1, 1), 3, nil)

	// before the start the start itself is next
	next, ok := s.Next(date(2023, 12, 20))
	require.True(t, ok)
	require.Equal(t, date(2024, 1, 1), next)

	// from a matching day, one full step
	next, ok = s.Next(date(2024, 1, 1))
	require.True(t, ok)
	require.Equal(t, date(2024, 1, 4), next)

	// from a non-matching day, the next multiple
	next, ok = s.Next(date(2024, 1, 5))
	require.True(t, ok)
	require.Equal(t, date(2024, 1, 7), next)
}

func TestNextIsStrictlyLaterAndMatches(t *testing.T) {
	rules := []Schedule{
		SingleSchedule(date(2024, 6, 15), nil),
		WeeklySchedule(WeekdayBit(time.Tuesday), nil),
		WeeklySchedule(0x7f, nil),
		EveryNDaysSchedule(date(2024, 1, 10), 1, nil),
		EveryNDaysSchedule(date(2024, 1, 10), 14, nil),
	}
	for _, r := range rules {
		after := date(2024, 1, 1)
		for i := 0; i < 40; i++ {
			next, ok := r.Next(after)
			if !ok {
				break
			}
			require.True(t, next.After(after), "kind %s: next %s not after %s", r.Kind, FormatDate(next), FormatDate(after))
			require.True(t, r.Matches(next), "kind %s: next %s does not match", r.Kind, FormatDate(next))
			after = next
		}
	}
}

func TestConstructorsLeaveNoResidue(t *testing.T) {
	s := EveryNDaysSchedule(date(2024, 1, 1), 5, nil)
	require.Equal(t, 5, s.EveryN)

	s = WeeklySchedule(WeekdayBit(time.Friday), nil)
	require.Zero(t, s.EveryN)
	require.True(t, s.StartDate.IsZero())
	require.True(t, s.Date.IsZero())
	require.True(t, s.Matches(date(2024, 3, 8))) // a Friday
	require.False(t, s.Matches(date(2024, 3, 6)))
}

func TestDaysBetween(t *testing.T) {
	require.Equal(t, 0, DaysBetween(date(2024, 1, 1), date(2024, 1, 1)))
	require.Equal(t, 3, DaysBetween(date(2024, 1, 1), date(2024, 1, 4)))
	require.Equal(t, -1, DaysBetween(date(2024, 1, 2), date(2024, 1, 1)))
	// normalization makes time-of-day irrelevant
	require.Equal(t, 1, DaysBetween(
		time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC),
	))
}

func TestValidClock(t *testing.T) {
	require.True(t, ValidClock("09:30"))
	require.True(t, ValidClock("23:59"))
	require.False(t, ValidClock("24:00"))
	require.False(t, ValidClock("9:30"))
	require.False(t, ValidClock("nope"))
}
