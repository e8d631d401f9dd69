package repository

import "example.com/dutyroster/internal/domain"

// AssignmentRepository stores assignments together with their schedule,
// targets and responsibles. List methods return assignments in creation
// order; callers rely on that order staying stable.
//
// SetSchedule replaces the whole schedule value in one write so a variant
// switch can never leave fields of two variants mixed in the row.
type AssignmentRepository interface {
	CreateAssignment(a domain.Assignment) (domain.Assignment, error)
	GetAssignment(id int64) (domain.Assignment, error)
	ListAssignments() ([]domain.Assignment, error)
	// ListActiveForLocation returns active assignments scoped to the
	// location, either exactly or via the all-locations scope.
	ListActiveForLocation(locationID int64) ([]domain.Assignment, error)
	SetSchedule(id int64, s domain.Schedule) (domain.Assignment, error)
	SetActive(id int64, active bool) error
	SetTargets(id int64, userIDs []int64) error
	SetResponsibles(id int64, rs []domain.Responsible) error
}
