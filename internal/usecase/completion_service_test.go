package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/storage/memory"
)

func TestAnnotatePendingByDefault(t *testing.T) {
	store := memory.New()
	svc := NewCompletionService(store)
	a := seedAssignment(t, store, 1, domain.SingleSchedule(date(2024, 3, 4), nil))

	statuses, err := svc.Annotate([]domain.Assignment{a}, 1, date(2024, 3, 4))
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.False(t, statuses[0].Done)
	require.Zero(t, statuses[0].CompletedBy)
}

func TestAnnotateLatestSubmissionWins(t *testing.T) {
	store := memory.New()
	svc := NewCompletionService(store)
	a := seedAssignment(t, store, 1, domain.SingleSchedule(date(2024, 3, 4), nil))

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	clock := base
	svc.now = func() time.Time { return clock }

	_, err := svc.RecordCompletion(a.ID, 1, date(2024, 3, 4), 7, "120")
	require.NoError(t, err)
	clock = base.Add(time.Hour)
	_, err = svc.RecordCompletion(a.ID, 1, date(2024, 3, 4), 9, "125")
	require.NoError(t, err)

	statuses, err := svc.Annotate([]domain.Assignment{a}, 1, date(2024, 3, 4))
	require.NoError(t, err)
	require.True(t, statuses[0].Done)
	require.Equal(t, int64(9), statuses[0].CompletedBy)
	require.Equal(t, "125", statuses[0].Answer)

	// every submission stays in the log
	history, err := store.ListCompletions(a.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestAnnotateIsPerLocationAndPerDay(t *testing.T) {
	store := memory.New()
	svc := NewCompletionService(store)
	a := seedAssignment(t, store, domain.AllLocations, domain.WeeklySchedule(0x7f, nil))

	_, err := svc.RecordCompletion(a.ID, 1, date(2024, 3, 4), 7, "")
	require.NoError(t, err)

	statuses, err := svc.Annotate([]domain.Assignment{a}, 2, date(2024, 3, 4))
	require.NoError(t, err)
	require.False(t, statuses[0].Done, "completion at one location must not mark another")

	statuses, err = svc.Annotate([]domain.Assignment{a}, 1, date(2024, 3, 5))
	require.NoError(t, err)
	require.False(t, statuses[0].Done, "completion on one day must not mark the next")

	statuses, err = svc.Annotate([]domain.Assignment{a}, 1, date(2024, 3, 4))
	require.NoError(t, err)
	require.True(t, statuses[0].Done)
}
