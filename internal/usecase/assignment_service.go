package usecase

import (
	"errors"
	"strings"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
)

var (
	ErrEmptyTitle         = errors.New("task title is empty")
	ErrInvalidAnswerKind  = errors.New("unknown answer kind")
	ErrInvalidType        = errors.New("unknown assignment type")
	ErrInvalidLeadTime    = errors.New("lead time must not be negative")
	ErrTargetsNotAllowed  = errors.New("targets require an individual assignment")
	ErrInvalidScheduleDef = errors.New("malformed schedule")
)

// AssignmentService covers the authoring flow: task definitions and
// assignment records. Schedule edits live in ScheduleService.
type AssignmentService struct {
	tasks       repository.TaskRepository
	assignments repository.AssignmentRepository
}

func NewAssignmentService(tasks repository.TaskRepository, assignments repository.AssignmentRepository) *AssignmentService {
	return &AssignmentService{
		tasks:       tasks,
		assignments: assignments,
	}
}

func (s *AssignmentService) CreateTask(title string, kind domain.AnswerKind, createdBy int64) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, ErrEmptyTitle
	}
	if !domain.ValidAnswerKind(kind) {
		return domain.Task{}, ErrInvalidAnswerKind
	}
	return s.tasks.CreateTask(domain.Task{
		Title:      title,
		AnswerKind: kind,
		CreatedBy:  createdBy,
	})
}

// CreateAssignment validates the initial schedule at the boundary rather
// than letting a malformed rule into the store, where it would silently
// match nothing.
func (s *AssignmentService) CreateAssignment(taskID int64, typ domain.AssignmentType, locationID int64, sched domain.Schedule, createdBy int64) (domain.Assignment, error) {
	if !domain.ValidAssignmentType(typ) {
		return domain.Assignment{}, ErrInvalidType
	}
	if err := validateSchedule(sched); err != nil {
		return domain.Assignment{}, err
	}
	return s.assignments.CreateAssignment(domain.Assignment{
		TaskID:     taskID,
		Type:       typ,
		LocationID: locationID,
		Active:     true,
		Schedule:   sched,
		CreatedBy:  createdBy,
	})
}

func (s *AssignmentService) SetTargets(assignmentID int64, userIDs []int64) error {
	a, err := s.assignments.GetAssignment(assignmentID)
	if err != nil {
		return err
	}
	if len(userIDs) > 0 && a.Type != domain.AssignmentIndividual {
		return ErrTargetsNotAllowed
	}
	return s.assignments.SetTargets(assignmentID, userIDs)
}

func (s *AssignmentService) SetResponsibles(assignmentID int64, rs []domain.Responsible) error {
	for _, r := range rs {
		if r.DaysBefore < 0 {
			return ErrInvalidLeadTime
		}
	}
	if _, err := s.assignments.GetAssignment(assignmentID); err != nil {
		return err
	}
	return s.assignments.SetResponsibles(assignmentID, rs)
}

func (s *AssignmentService) GetAssignment(id int64) (domain.Assignment, error) {
	return s.assignments.GetAssignment(id)
}

func (s *AssignmentService) ListAssignments() ([]domain.Assignment, error) {
	return s.assignments.ListAssignments()
}

func (s *AssignmentService) ListActiveForLocation(locationID int64) ([]domain.Assignment, error) {
	return s.assignments.ListActiveForLocation(locationID)
}

func (s *AssignmentService) GetTask(id int64) (domain.Task, error) {
	return s.tasks.GetTask(id)
}

func (s *AssignmentService) ListTasks() ([]domain.Task, error) {
	return s.tasks.ListTasks()
}

func validateSchedule(sched domain.Schedule) error {
	switch sched.Kind {
	case domain.ScheduleSingle:
		if sched.Date.IsZero() {
			return ErrInvalidScheduleDef
		}
	case domain.ScheduleWeekly:
		// a zero mask is legal: the assignment is paused, not broken
	case domain.ScheduleEveryN:
		if sched.EveryN <= 0 {
			return ErrInvalidInterval
		}
		if sched.StartDate.IsZero() {
			return ErrInvalidScheduleDef
		}
	default:
		return ErrInvalidScheduleDef
	}
	return validDeadline(sched.Deadline)
}
