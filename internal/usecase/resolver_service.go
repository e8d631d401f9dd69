package usecase

import (
	"time"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
)

// Filter narrows a due list by rule shape. It is applied after ordering
// so a filtered list keeps the relative order of the full one.
type Filter string

const (
	FilterAll       Filter = ""
	FilterRecurring Filter = "recurring"
	FilterSingle    Filter = "single"
)

func ValidFilter(f Filter) bool {
	return f == FilterAll || f == FilterRecurring || f == FilterSingle
}

// ResolverService answers the point-in-time question "what is due at this
// location on this day". It holds no state and re-derives every answer
// from the assignment list, the day's overrides and the base rules.
type ResolverService struct {
	assignments repository.AssignmentRepository
	overrides   repository.OverrideRepository
}

func NewResolverService(assignments repository.AssignmentRepository, overrides repository.OverrideRepository) *ResolverService {
	return &ResolverService{
		assignments: assignments,
		overrides:   overrides,
	}
}

// DueOccurrences returns the assignments due at the location on the day,
// one-off rules first, then recurring ones, creation order within each
// group. Callers expose positional shortcuts over this list, so the order
// is part of the contract.
//
// Override precedence: an include forces the assignment due, a skip forces
// it not due, and include wins when both name the same assignment; only
// when neither applies is the base rule consulted. A location with nothing
// due yields an empty list, not an error.
func (s *ResolverService) DueOccurrences(locationID int64, day time.Time, filter Filter) ([]domain.Assignment, error) {
	day = domain.DateOf(day)
	items, err := s.assignments.ListActiveForLocation(locationID)
	if err != nil {
		return nil, err
	}
	ov, err := s.overrides.ListForDay(locationID, day)
	if err != nil {
		return nil, err
	}

	var single, recurring []domain.Assignment
	for _, a := range items {
		var due bool
		switch {
		case ov.Include[a.ID]:
			due = true
		case ov.Skip[a.ID]:
			due = false
		default:
			due = a.Schedule.Matches(day)
		}
		if !due {
			continue
		}
		if a.Schedule.Recurring() {
			recurring = append(recurring, a)
		} else {
			single = append(single, a)
		}
	}

	out := make([]domain.Assignment, 0, len(single)+len(recurring))
	out = append(out, single...)
	out = append(out, recurring...)
	return applyFilter(out, filter), nil
}

// NextOccurrence reports when the assignment's base rule selects a day
// after the given one. Overrides are per-date exceptions and do not shift
// the answer.
func (s *ResolverService) NextOccurrence(assignmentID int64, after time.Time) (time.Time, bool, error) {
	a, err := s.assignments.GetAssignment(assignmentID)
	if err != nil {
		return time.Time{}, false, err
	}
	next, ok := a.Schedule.Next(after)
	return next, ok, nil
}

func applyFilter(items []domain.Assignment, filter Filter) []domain.Assignment {
	if filter == FilterAll {
		return items
	}
	out := items[:0:0]
	for _, a := range items {
		switch filter {
		case FilterRecurring:
			if a.Schedule.Recurring() {
				out = append(out, a)
			}
		case FilterSingle:
			if !a.Schedule.Recurring() {
				out = append(out, a)
			}
		}
	}
	return out
}
