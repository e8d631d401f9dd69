package domain

import "time"

// AnswerKind is the proof a worker submits when completing a task.
type AnswerKind string

const (
	AnswerAcknowledge AnswerKind = "acknowledge"
	AnswerPhoto       AnswerKind = "photo"
	AnswerVideo       AnswerKind = "video"
	AnswerNumber      AnswerKind = "number"
	AnswerFreeText    AnswerKind = "free_text"
)

func ValidAnswerKind(k AnswerKind) bool {
	switch k {
	case AnswerAcknowledge, AnswerPhoto, AnswerVideo, AnswerNumber, AnswerFreeText:
		return true
	}
	return false
}

// Task is the immutable content of a piece of work: what to do and what
// kind of answer counts as done. Assignments reference it by id; edits
// create a new task rather than rewriting an existing one.
type Task struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	AnswerKind AnswerKind `json:"answer_kind"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
