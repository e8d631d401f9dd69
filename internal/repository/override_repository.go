package repository

import (
	"time"

	"example.com/dutyroster/internal/domain"
)

// DayOverrides are the exceptions in force at one location on one day.
// Skip holds assignments excluded because an override moved an occurrence
// away from the day, Include assignments forced due because one moved an
// occurrence onto it. The same id may appear in both sets.
type DayOverrides struct {
	Skip    map[int64]bool
	Include map[int64]bool
}

type OverrideRepository interface {
	CreateOverride(o domain.Override) (domain.Override, error)
	ListForDay(locationID int64, day time.Time) (DayOverrides, error)
	ListForAssignment(assignmentID int64) ([]domain.Override, error)
}
