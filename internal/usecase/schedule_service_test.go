package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/storage"
	"example.com/dutyroster/internal/storage/memory"
)

func TestSetEveryNDaysRejectsBadInterval(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	a := seedAssignment(t, store, 1, domain.WeeklySchedule(0, nil))

	_, err := svc.SetEveryNDays(a.ID, 0, date(2024, 1, 1), nil)
	require.ErrorIs(t, err, ErrInvalidInterval)
	_, err = svc.SetEveryNDays(a.ID, -3, date(2024, 1, 1), nil)
	require.ErrorIs(t, err, ErrInvalidInterval)

	// the stored rule is untouched by the rejected edit
	got, err := store.GetAssignment(a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ScheduleWeekly, got.Schedule.Kind)
}

func TestSetScheduleRejectsBadDeadline(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	a := seedAssignment(t, store, 1, domain.WeeklySchedule(0, nil))

	bad := "25:99"
	_, err := svc.SetSingle(a.ID, date(2024, 5, 1), &bad)
	require.ErrorIs(t, err, ErrInvalidDeadline)
	_, err = svc.SetWeekly(a.ID, 0x1f, &bad)
	require.ErrorIs(t, err, ErrInvalidDeadline)

	good := "09:30"
	updated, err := svc.SetWeekly(a.ID, 0x1f, &good)
	require.NoError(t, err)
	require.Equal(t, "09:30", *updated.Schedule.Deadline)
}

func TestVariantSwitchLeavesNoResidue(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	a := seedAssignment(t, store, 1, domain.SingleSchedule(date(2024, 2, 1), nil))

	_, err := svc.SetEveryNDays(a.ID, 5, date(2024, 2, 1), nil)
	require.NoError(t, err)

	updated, err := svc.SetWeekly(a.ID, 0, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ScheduleWeekly, updated.Schedule.Kind)
	require.Zero(t, updated.Schedule.EveryN)
	require.True(t, updated.Schedule.StartDate.IsZero())
	require.True(t, updated.Schedule.Date.IsZero())

	updated, err = svc.SetWeekly(a.ID, domain.WeekdayBit(time.Friday), nil)
	require.NoError(t, err)
	require.Zero(t, updated.Schedule.EveryN, "every-n state must not survive the switch")

	// matches Fridays and nothing else from here on
	require.True(t, updated.Schedule.Matches(date(2024, 3, 8)))
	require.False(t, updated.Schedule.Matches(date(2024, 2, 1)))
	require.False(t, updated.Schedule.Matches(date(2024, 2, 6)))
}

func TestSetWeeklyIdempotent(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	a := seedAssignment(t, store, 1, domain.SingleSchedule(date(2024, 2, 1), nil))

	mask := domain.WeekdayBit(time.Monday) | domain.WeekdayBit(time.Thursday)
	first, err := svc.SetWeekly(a.ID, mask, nil)
	require.NoError(t, err)
	second, err := svc.SetWeekly(a.ID, mask, nil)
	require.NoError(t, err)
	require.Equal(t, first.Schedule, second.Schedule)
}

func TestToggleWeekdayForcesWeekly(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	a := seedAssignment(t, store, 1, domain.EveryNDaysSchedule(date(2024, 1, 1), 5, nil))

	updated, err := svc.ToggleWeekday(a.ID, time.Wednesday)
	require.NoError(t, err)
	require.Equal(t, domain.ScheduleWeekly, updated.Schedule.Kind)
	require.Equal(t, domain.WeekdayBit(time.Wednesday), updated.Schedule.WeekdayMask)
	require.Zero(t, updated.Schedule.EveryN)

	updated, err = svc.ToggleWeekday(a.ID, time.Sunday)
	require.NoError(t, err)
	require.Equal(t, domain.WeekdayBit(time.Wednesday)|domain.WeekdayBit(time.Sunday), updated.Schedule.WeekdayMask)

	// toggling off again
	updated, err = svc.ToggleWeekday(a.ID, time.Wednesday)
	require.NoError(t, err)
	require.Equal(t, domain.WeekdayBit(time.Sunday), updated.Schedule.WeekdayMask)
}

func TestToggleWeekdayKeepsDeadline(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	deadline := "18:00"
	a := seedAssignment(t, store, 1, domain.WeeklySchedule(0, &deadline))

	updated, err := svc.ToggleWeekday(a.ID, time.Monday)
	require.NoError(t, err)
	require.NotNil(t, updated.Schedule.Deadline)
	require.Equal(t, "18:00", *updated.Schedule.Deadline)
}

func TestMoveOccurrenceWritesOneOverrideRow(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	a := seedAssignment(t, store, 1, domain.WeeklySchedule(domain.WeekdayBit(time.Tuesday), nil))

	o, err := svc.MoveOccurrence(a.ID, 1, date(2024, 3, 5), date(2024, 3, 6))
	require.NoError(t, err)
	require.Equal(t, date(2024, 3, 5), o.FromDate)
	require.Equal(t, date(2024, 3, 6), o.ToDate)

	rows, err := store.ListForAssignment(a.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.MoveOccurrence(9999, 1, date(2024, 3, 5), date(2024, 3, 6))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeactivateKeepsHistory(t *testing.T) {
	store := memory.New()
	svc := NewScheduleService(store, store)
	completions := NewCompletionService(store)
	a := seedAssignment(t, store, 1, domain.WeeklySchedule(domain.WeekdayBit(time.Monday), nil))

	_, err := completions.RecordCompletion(a.ID, 1, date(2024, 3, 4), 7, "")
	require.NoError(t, err)
	_, err = svc.MoveOccurrence(a.ID, 1, date(2024, 3, 11), date(2024, 3, 12))
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(a.ID))

	got, err := store.GetAssignment(a.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	history, err := store.ListCompletions(a.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	overrides, err := store.ListForAssignment(a.ID)
	require.NoError(t, err)
	require.Len(t, overrides, 1)

	require.NoError(t, svc.Activate(a.ID))
	got, err = store.GetAssignment(a.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}
