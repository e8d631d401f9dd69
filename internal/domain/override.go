package domain

import "time"

// Override is a one-day exception to an assignment's schedule at one
// location: the assignment is excluded on FromDate and included on ToDate
// regardless of what the base rule says. The rule itself is never touched.
//
// Skip and include are independent facts, not two halves of a "moved
// date": a resolver query for FromDate and one for ToDate are separate
// lookups, and FromDate == ToDate is a legal row whose effects cancel out.
type Override struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	LocationID   int64     `json:"location_id"`
	FromDate     time.Time `json:"from_date"`
	ToDate       time.Time `json:"to_date"`
	CreatedAt    time.Time `json:"created_at"`
}
