package repository

import (
	"time"

	"example.com/dutyroster/internal/domain"
)

// CompletionRepository is an append-only log of performed occurrences.
// LatestCompletion returns storage.ErrNotFound when the occurrence has no
// completion yet.
type CompletionRepository interface {
	CreateCompletion(c domain.Completion) (domain.Completion, error)
	LatestCompletion(assignmentID, locationID int64, day time.Time) (domain.Completion, error)
	ListCompletions(assignmentID, locationID int64) ([]domain.Completion, error)
}
