package usecase

import (
	"errors"
	"time"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
)

var (
	ErrInvalidInterval = errors.New("interval must be at least one day")
	ErrInvalidDeadline = errors.New("deadline must be HH:MM")
)

// ScheduleService owns every mutation of an assignment's recurrence rule.
// Each operation builds a complete Schedule value and hands it to the
// repository in one write; fields belonging to the previous variant never
// survive a switch. Moving a single occurrence writes an override row and
// leaves the rule alone.
type ScheduleService struct {
	assignments repository.AssignmentRepository
	overrides   repository.OverrideRepository
}

func NewScheduleService(assignments repository.AssignmentRepository, overrides repository.OverrideRepository) *ScheduleService {
	return &ScheduleService{
		assignments: assignments,
		overrides:   overrides,
	}
}

func (s *ScheduleService) SetSingle(assignmentID int64, date time.Time, deadline *string) (domain.Assignment, error) {
	if err := validDeadline(deadline); err != nil {
		return domain.Assignment{}, err
	}
	return s.assignments.SetSchedule(assignmentID, domain.SingleSchedule(date, deadline))
}

// SetWeekly accepts a zero mask: the rule then selects no days, which is
// "paused" rather than deactivated.
func (s *ScheduleService) SetWeekly(assignmentID int64, mask uint8, deadline *string) (domain.Assignment, error) {
	if err := validDeadline(deadline); err != nil {
		return domain.Assignment{}, err
	}
	return s.assignments.SetSchedule(assignmentID, domain.WeeklySchedule(mask, deadline))
}

func (s *ScheduleService) SetEveryNDays(assignmentID int64, n int, start time.Time, deadline *string) (domain.Assignment, error) {
	if n <= 0 {
		return domain.Assignment{}, ErrInvalidInterval
	}
	if err := validDeadline(deadline); err != nil {
		return domain.Assignment{}, err
	}
	return s.assignments.SetSchedule(assignmentID, domain.EveryNDaysSchedule(start, n, deadline))
}

// ToggleWeekday flips one day in the weekly mask. If the rule is currently
// another variant it becomes weekly with just that day set; the edit flow
// is allowed to switch variants mid-session.
func (s *ScheduleService) ToggleWeekday(assignmentID int64, day time.Weekday) (domain.Assignment, error) {
	a, err := s.assignments.GetAssignment(assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}
	var mask uint8
	if a.Schedule.Kind == domain.ScheduleWeekly {
		mask = a.Schedule.WeekdayMask
	}
	mask ^= domain.WeekdayBit(day)
	return s.assignments.SetSchedule(assignmentID, domain.WeeklySchedule(mask, a.Schedule.Deadline))
}

// MoveOccurrence pushes the occurrence of fromDate to toDate at one
// location by writing exactly one override row. Future occurrences of the
// base rule are untouched.
func (s *ScheduleService) MoveOccurrence(assignmentID, locationID int64, fromDate, toDate time.Time) (domain.Override, error) {
	if _, err := s.assignments.GetAssignment(assignmentID); err != nil {
		return domain.Override{}, err
	}
	return s.overrides.CreateOverride(domain.Override{
		AssignmentID: assignmentID,
		LocationID:   locationID,
		FromDate:     domain.DateOf(fromDate),
		ToDate:       domain.DateOf(toDate),
	})
}

func (s *ScheduleService) Deactivate(assignmentID int64) error {
	return s.assignments.SetActive(assignmentID, false)
}

func (s *ScheduleService) Activate(assignmentID int64) error {
	return s.assignments.SetActive(assignmentID, true)
}

func validDeadline(deadline *string) error {
	if deadline == nil {
		return nil
	}
	if !domain.ValidClock(*deadline) {
		return ErrInvalidDeadline
	}
	return nil
}
