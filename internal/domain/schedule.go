package domain

import "time"

type ScheduleKind string

const (
	ScheduleSingle ScheduleKind = "single"
	ScheduleWeekly ScheduleKind = "weekly"
	ScheduleEveryN ScheduleKind = "every_n_days"
)

// WeekdayBit maps a weekday to its mask bit, Monday = bit 0 through
// Sunday = bit 6. Every mask consumer goes through this one function.
func WeekdayBit(d time.Weekday) uint8 {
	if d == time.Sunday {
		return 1 << 6
	}
	return 1 << (uint(d) - 1)
}

// Schedule is an assignment's recurrence rule, a tagged variant: exactly
// the fields of the active Kind are meaningful, everything else stays
// zero. Mutations replace the whole value (see the constructors), never
// patch single fields, so fields of two variants cannot coexist.
//
// Deadline is an optional HH:MM time of day; nil means the task is due
// any time during the day.
type Schedule struct {
	Kind        ScheduleKind `json:"kind"`
	Date        time.Time    `json:"date,omitempty"`
	WeekdayMask uint8        `json:"weekday_mask,omitempty"`
	StartDate   time.Time    `json:"start_date,omitempty"`
	EveryN      int          `json:"every_n_days,omitempty"`
	Deadline    *string      `json:"deadline,omitempty"`
}

func SingleSchedule(date time.Time, deadline *string) Schedule {
	return Schedule{Kind: ScheduleSingle, Date: DateOf(date), Deadline: deadline}
}

func WeeklySchedule(mask uint8, deadline *string) Schedule {
	return Schedule{Kind: ScheduleWeekly, WeekdayMask: mask, Deadline: deadline}
}

func EveryNDaysSchedule(start time.Time, n int, deadline *string) Schedule {
	return Schedule{Kind: ScheduleEveryN, StartDate: DateOf(start), EveryN: n, Deadline: deadline}
}

// Recurring reports whether the rule can select more than one date.
func (s Schedule) Recurring() bool {
	return s.Kind == ScheduleWeekly || s.Kind == ScheduleEveryN
}

// Matches reports whether the rule selects the given calendar day.
// An unknown or uninitialized Kind matches nothing.
func (s Schedule) Matches(day time.Time) bool {
	day = DateOf(day)
	switch s.Kind {
	case ScheduleSingle:
		return day.Equal(DateOf(s.Date))
	case ScheduleWeekly:
		return s.WeekdayMask&WeekdayBit(day.Weekday()) != 0
	case ScheduleEveryN:
		if s.EveryN <= 0 {
			return false
		}
		diff := DaysBetween(s.StartDate, day)
		return diff >= 0 && diff%s.EveryN == 0
	default:
		return false
	}
}

// weeklyNextHorizon bounds the forward scan in Next. The mask period is
// 7 days; three weeks covers any non-zero mask with room to spare.
const weeklyNextHorizon = 21

// Next returns the first day strictly after the given one that the rule
// selects, or false when no such day exists (a spent single date, a zero
// weekly mask, a malformed rule).
func (s Schedule) Next(after time.Time) (time.Time, bool) {
	after = DateOf(after)
	switch s.Kind {
	case ScheduleSingle:
		d := DateOf(s.Date)
		if d.After(after) {
			return d, true
		}
		return time.Time{}, false
	case ScheduleWeekly:
		if s.WeekdayMask == 0 {
			return time.Time{}, false
		}
		for i := 1; i <= weeklyNextHorizon; i++ {
			d := after.AddDate(0, 0, i)
			if s.WeekdayMask&WeekdayBit(d.Weekday()) != 0 {
				return d, true
			}
		}
		return time.Time{}, false
	case ScheduleEveryN:
		if s.EveryN <= 0 {
			return time.Time{}, false
		}
		start := DateOf(s.StartDate)
		if start.After(after) {
			return start, true
		}
		steps := DaysBetween(start, after)/s.EveryN + 1
		return start.AddDate(0, 0, steps*s.EveryN), true
	default:
		return time.Time{}, false
	}
}
