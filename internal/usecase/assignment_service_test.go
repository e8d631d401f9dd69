package usecase

import (
	"errors"
	"testing"
	"time"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/storage/memory"
)

func TestAssignmentServiceCreateTask_Validates(t *testing.T) {
	store := memory.New()
	svc := NewAssignmentService(store, store)

	if _, err := svc.CreateTask("   ", domain.AnswerAcknowledge, 1); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := svc.CreateTask("check fridge temp", "voice", 1); !errors.Is(err, ErrInvalidAnswerKind) {
		t.Fatalf("expected ErrInvalidAnswerKind, got %v", err)
	}

	task, err := svc.CreateTask("  check fridge temp  ", domain.AnswerNumber, 1)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Title != "check fridge temp" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
}

func TestAssignmentServiceCreateAssignment_ValidatesSchedule(t *testing.T) {
	store := memory.New()
	svc := NewAssignmentService(store, store)
	task, err := svc.CreateTask("mop the floor", domain.AnswerPhoto, 1)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateAssignment(task.ID, domain.AssignmentGlobal, 1, domain.EveryNDaysSchedule(start, 0, nil), 1); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := svc.CreateAssignment(task.ID, "team", 1, domain.EveryNDaysSchedule(start, 2, nil), 1); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := svc.CreateAssignment(task.ID, domain.AssignmentGlobal, 1, domain.Schedule{Kind: "monthly"}, 1); !errors.Is(err, ErrInvalidScheduleDef) {
		t.Fatalf("expected ErrInvalidScheduleDef, got %v", err)
	}

	a, err := svc.CreateAssignment(task.ID, domain.AssignmentGlobal, 1, domain.EveryNDaysSchedule(start, 2, nil), 1)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if !a.Active {
		t.Fatalf("expected new assignment to be active")
	}
}

func TestAssignmentServiceTargets(t *testing.T) {
	store := memory.New()
	svc := NewAssignmentService(store, store)
	task, err := svc.CreateTask("restock shelf", domain.AnswerAcknowledge, 1)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	global, err := svc.CreateAssignment(task.ID, domain.AssignmentGlobal, 1, domain.EveryNDaysSchedule(start, 1, nil), 1)
	if err != nil {
		t.Fatalf("create global assignment: %v", err)
	}
	if err := svc.SetTargets(global.ID, []int64{5, 6}); !errors.Is(err, ErrTargetsNotAllowed) {
		t.Fatalf("expected ErrTargetsNotAllowed, got %v", err)
	}

	individual, err := svc.CreateAssignment(task.ID, domain.AssignmentIndividual, 1, domain.EveryNDaysSchedule(start, 1, nil), 1)
	if err != nil {
		t.Fatalf("create individual assignment: %v", err)
	}
	if err := svc.SetTargets(individual.ID, []int64{5, 6}); err != nil {
		t.Fatalf("set targets: %v", err)
	}

	got, err := svc.GetAssignment(individual.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if !got.TargetedAt(5) || got.TargetedAt(7) {
		t.Fatalf("unexpected targeting: %v", got.TargetIDs)
	}

	if err := svc.SetResponsibles(individual.ID, []domain.Responsible{{UserID: 9, DaysBefore: -1}}); !errors.Is(err, ErrInvalidLeadTime) {
		t.Fatalf("expected ErrInvalidLeadTime, got %v", err)
	}
	if err := svc.SetResponsibles(individual.ID, []domain.Responsible{{UserID: 9, NotifyEnabled: true, DaysBefore: 2}}); err != nil {
		t.Fatalf("set responsibles: %v", err)
	}
}
