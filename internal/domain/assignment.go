package domain

import "time"

type AssignmentType string

const (
	// AssignmentGlobal applies to everyone working at the location(s).
	AssignmentGlobal AssignmentType = "global"
	// AssignmentIndividual is restricted to its target users.
	AssignmentIndividual AssignmentType = "individual"
)

func ValidAssignmentType(t AssignmentType) bool {
	return t == AssignmentGlobal || t == AssignmentIndividual
}

// AllLocations as a LocationID marks an assignment that applies at every
// location.
const AllLocations int64 = 0

// Responsible is a user who gets notified about an assignment,
// independently of who has to perform it. DaysBefore is the notification
// lead time in days; 0 means "on the day".
type Responsible struct {
	UserID        int64 `json:"user_id"`
	NotifyEnabled bool  `json:"notify_enabled"`
	DaysBefore    int   `json:"days_before"`
}

// Assignment binds a task to a location scope, a recurrence schedule and
// optionally a set of target users. Assignments are soft-deleted via the
// Active flag so completion history stays referencable.
type Assignment struct {
	ID           int64          `json:"id"`
	TaskID       int64          `json:"task_id"`
	Type         AssignmentType `json:"type"`
	LocationID   int64          `json:"location_id"`
	Active       bool           `json:"active"`
	Schedule     Schedule       `json:"schedule"`
	TargetIDs    []int64        `json:"target_ids,omitempty"`
	Responsibles []Responsible  `json:"responsibles,omitempty"`
	CreatedBy    int64          `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AppliesAt reports whether the assignment is in scope at the location.
func (a Assignment) AppliesAt(locationID int64) bool {
	return a.LocationID == AllLocations || a.LocationID == locationID
}

// TargetedAt reports whether the user has to perform the assignment. An
// empty target set means everyone at the location.
func (a Assignment) TargetedAt(userID int64) bool {
	if a.Type != AssignmentIndividual || len(a.TargetIDs) == 0 {
		return true
	}
	for _, id := range a.TargetIDs {
		if id == userID {
			return true
		}
	}
	return false
}
