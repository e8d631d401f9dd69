package memory

import (
	"sort"
	"sync"
	"time"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/storage"
)

// Store keeps everything in process memory behind one mutex. It backs the
// default configuration and every service test; the SQL store is the
// production twin.
type Store struct {
	mu sync.RWMutex

	tasks       []domain.Task
	assignments []domain.Assignment
	overrides   []domain.Override
	completions []domain.Completion
	locations   []domain.Location
	users       []domain.User

	taskID       int64
	assignmentID int64
	overrideID   int64
	completionID int64
	locationID   int64
	userID       int64

	now func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// SetNow overrides the clock, for tests.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Store) CreateTask(t domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskID++
	t.ID = s.taskID
	t.CreatedAt = s.now()
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *Store) GetTask(id int64) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, storage.ErrNotFound
}

func (s *Store) ListTasks() ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *Store) CreateAssignment(a domain.Assignment) (domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.taskExists(a.TaskID); err != nil {
		return domain.Assignment{}, err
	}
	s.assignmentID++
	a.ID = s.assignmentID
	a.CreatedAt = s.now()
	s.assignments = append(s.assignments, cloneAssignment(a))
	return a, nil
}

func (s *Store) GetAssignment(id int64) (domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assignments {
		if a.ID == id {
			return cloneAssignment(a), nil
		}
	}
	return domain.Assignment{}, storage.ErrNotFound
}

func (s *Store) ListAssignments() ([]domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, cloneAssignment(a))
	}
	return out, nil
}

func (s *Store) ListActiveForLocation(locationID int64) ([]domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.Active && a.AppliesAt(locationID) {
			out = append(out, cloneAssignment(a))
		}
	}
	return out, nil
}

func (s *Store) SetSchedule(id int64, sched domain.Schedule) (domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			s.assignments[i].Schedule = sched
			return cloneAssignment(s.assignments[i]), nil
		}
	}
	return domain.Assignment{}, storage.ErrNotFound
}

func (s *Store) SetActive(id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			s.assignments[i].Active = active
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) SetTargets(id int64, userIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			s.assignments[i].TargetIDs = append([]int64(nil), userIDs...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) SetResponsibles(id int64, rs []domain.Responsible) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			s.assignments[i].Responsibles = append([]domain.Responsible(nil), rs...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) CreateOverride(o domain.Override) (domain.Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assignmentExists(o.AssignmentID); err != nil {
		return domain.Override{}, err
	}
	s.overrideID++
	o.ID = s.overrideID
	o.FromDate = domain.DateOf(o.FromDate)
	o.ToDate = domain.DateOf(o.ToDate)
	o.CreatedAt = s.now()
	s.overrides = append(s.overrides, o)
	return o, nil
}

func (s *Store) ListForDay(locationID int64, day time.Time) (repository.DayOverrides, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day = domain.DateOf(day)
	res := repository.DayOverrides{
		Skip:    make(map[int64]bool),
		Include: make(map[int64]bool),
	}
	for _, o := range s.overrides {
		if o.LocationID != locationID {
			continue
		}
		if o.FromDate.Equal(day) {
			res.Skip[o.AssignmentID] = true
		}
		if o.ToDate.Equal(day) {
			res.Include[o.AssignmentID] = true
		}
	}
	return res, nil
}

func (s *Store) ListForAssignment(assignmentID int64) ([]domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Override
	for _, o := range s.overrides {
		if o.AssignmentID == assignmentID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) CreateCompletion(c domain.Completion) (domain.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assignmentExists(c.AssignmentID); err != nil {
		return domain.Completion{}, err
	}
	s.completionID++
	c.ID = s.completionID
	c.Date = domain.DateOf(c.Date)
	if c.CompletedAt.IsZero() {
		c.CompletedAt = s.now()
	}
	s.completions = append(s.completions, c)
	return c, nil
}

func (s *Store) LatestCompletion(assignmentID, locationID int64, day time.Time) (domain.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day = domain.DateOf(day)
	var latest domain.Completion
	found := false
	for _, c := range s.completions {
		if c.AssignmentID != assignmentID || c.LocationID != locationID || !c.Date.Equal(day) {
			continue
		}
		if !found || c.CompletedAt.After(latest.CompletedAt) {
			latest = c
			found = true
		}
	}
	if !found {
		return domain.Completion{}, storage.ErrNotFound
	}
	return latest, nil
}

func (s *Store) ListCompletions(assignmentID, locationID int64) ([]domain.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Completion
	for _, c := range s.completions {
		if c.AssignmentID == assignmentID && c.LocationID == locationID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out, nil
}

func (s *Store) CreateLocation(l domain.Location) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationID++
	l.ID = s.locationID
	l.CreatedAt = s.now()
	s.locations = append(s.locations, l)
	return l, nil
}

func (s *Store) GetLocation(id int64) (domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Location{}, storage.ErrNotFound
}

func (s *Store) ListLocations() ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Location, len(s.locations))
	copy(out, s.locations)
	return out, nil
}

func (s *Store) CreateUser(u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Role == "" {
		u.Role = domain.RoleWorker
	}
	s.userID++
	u.ID = s.userID
	u.CreatedAt = s.now()
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUser(id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, storage.ErrNotFound
}

func (s *Store) GetByTelegramID(telegramUserID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.TelegramUserID == telegramUserID {
			return u, nil
		}
	}
	return domain.User{}, storage.ErrNotFound
}

func (s *Store) ListUsersAtLocation(locationID int64) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.User
	for _, u := range s.users {
		if u.LocationID == locationID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListUsers() ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) taskExists(id int64) error {
	for _, t := range s.tasks {
		if t.ID == id {
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) assignmentExists(id int64) error {
	for _, a := range s.assignments {
		if a.ID == id {
			return nil
		}
	}
	return storage.ErrNotFound
}

func cloneAssignment(a domain.Assignment) domain.Assignment {
	a.TargetIDs = append([]int64(nil), a.TargetIDs...)
	a.Responsibles = append([]domain.Responsible(nil), a.Responsibles...)
	return a
}
