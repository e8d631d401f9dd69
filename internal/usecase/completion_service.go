package usecase

import (
	"errors"
	"time"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/storage"
)

// OccurrenceStatus is a resolved occurrence joined with its current
// completion state for display.
type OccurrenceStatus struct {
	Assignment  domain.Assignment `json:"assignment"`
	Done        bool              `json:"done"`
	CompletedBy int64             `json:"completed_by,omitempty"`
	CompletedAt time.Time         `json:"completed_at,omitempty"`
	Answer      string            `json:"answer,omitempty"`
}

// CompletionService is the read-side join of occurrences against the
// completion log, and the single write path that appends to it.
type CompletionService struct {
	completions repository.CompletionRepository
	now         func() time.Time
}

func NewCompletionService(completions repository.CompletionRepository) *CompletionService {
	return &CompletionService{
		completions: completions,
		now:         time.Now,
	}
}

// Annotate marks each occurrence done or pending using the latest
// completion for (assignment, location, day). It never writes.
func (s *CompletionService) Annotate(items []domain.Assignment, locationID int64, day time.Time) ([]OccurrenceStatus, error) {
	day = domain.DateOf(day)
	out := make([]OccurrenceStatus, 0, len(items))
	for _, a := range items {
		st := OccurrenceStatus{Assignment: a}
		c, err := s.completions.LatestCompletion(a.ID, locationID, day)
		switch {
		case err == nil:
			st.Done = true
			st.CompletedBy = c.UserID
			st.CompletedAt = c.CompletedAt
			st.Answer = c.Answer
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// RecordCompletion appends to the log. Re-submission is allowed: every
// record is kept, the latest one wins for display.
func (s *CompletionService) RecordCompletion(assignmentID, locationID int64, day time.Time, userID int64, answer string) (domain.Completion, error) {
	return s.completions.CreateCompletion(domain.Completion{
		AssignmentID: assignmentID,
		LocationID:   locationID,
		Date:         domain.DateOf(day),
		UserID:       userID,
		Answer:       answer,
		CompletedAt:  s.now(),
	})
}
