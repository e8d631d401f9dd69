// Package notify fans the day's pending occurrences out to the people who
// have to act on them: workers at each location, and responsibles who asked
// for a heads-up some days ahead.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/usecase"
)

// Sender delivers a text message to a chat. The Telegram client satisfies
// it; tests substitute a recorder.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Notifier struct {
	resolver    *usecase.ResolverService
	completions *usecase.CompletionService
	assignments *usecase.AssignmentService
	locations   repository.LocationRepository
	users       repository.UserRepository
	sender      Sender
	log         *zap.Logger
	cron        *cron.Cron
	now         func() time.Time
}

func New(
	resolver *usecase.ResolverService,
	completions *usecase.CompletionService,
	assignments *usecase.AssignmentService,
	locations repository.LocationRepository,
	users repository.UserRepository,
	sender Sender,
	log *zap.Logger,
) *Notifier {
	return &Notifier{
		resolver:    resolver,
		completions: completions,
		assignments: assignments,
		locations:   locations,
		users:       users,
		sender:      sender,
		log:         log,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start schedules the daily fan-out on the given cron spec, e.g. "0 9 * * *".
func (n *Notifier) Start(spec string) error {
	_, err := n.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := n.RunOnce(ctx, domain.DateOf(n.now())); err != nil {
			n.log.Error("notify run", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule notify: %w", err)
	}
	n.cron.Start()
	return nil
}

func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
}

// RunOnce performs one fan-out pass for the given day across all locations.
func (n *Notifier) RunOnce(ctx context.Context, day time.Time) error {
	locs, err := n.locations.ListLocations()
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	for _, loc := range locs {
		if err := n.notifyLocation(ctx, loc, day); err != nil {
			n.log.Warn("notify location",
				zap.Int64("location_id", loc.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (n *Notifier) notifyLocation(ctx context.Context, loc domain.Location, day time.Time) error {
	due, err := n.resolver.DueOccurrences(loc.ID, day, usecase.FilterAll)
	if err != nil {
		return err
	}
	statuses, err := n.completions.Annotate(due, loc.ID, day)
	if err != nil {
		return err
	}

	var pending []domain.Assignment
	for _, st := range statuses {
		if !st.Done {
			pending = append(pending, st.Assignment)
		}
	}
	if err := n.notifyWorkers(ctx, loc, pending); err != nil {
		return err
	}
	return n.notifyResponsibles(ctx, loc, day)
}

// notifyWorkers sends each worker at the location one digest of the pending
// occurrences addressed to them.
func (n *Notifier) notifyWorkers(ctx context.Context, loc domain.Location, pending []domain.Assignment) error {
	if len(pending) == 0 {
		return nil
	}
	workers, err := n.users.ListUsersAtLocation(loc.ID)
	if err != nil {
		return err
	}
	for _, w := range workers {
		if w.ChatID == 0 {
			continue
		}
		var titles []string
		for _, a := range pending {
			if !a.TargetedAt(w.ID) {
				continue
			}
			titles = append(titles, n.titleOf(a))
		}
		if len(titles) == 0 {
			continue
		}
		msg := fmt.Sprintf("Still open at %s today:\n- %s\nUse /today to work through the list.",
			loc.Name, strings.Join(titles, "\n- "))
		if err := n.sender.SendMessage(ctx, w.ChatID, msg); err != nil {
			n.log.Warn("send worker digest",
				zap.Int64("user_id", w.ID),
				zap.Error(err))
		}
	}
	return nil
}

// notifyResponsibles sends heads-up messages for occurrences landing
// days_before from now, grouped per distinct lead among the location's
// assignments.
func (n *Notifier) notifyResponsibles(ctx context.Context, loc domain.Location, day time.Time) error {
	active, err := n.assignments.ListActiveForLocation(loc.ID)
	if err != nil {
		return err
	}
	leads := make(map[int]bool)
	for _, a := range active {
		for _, r := range a.Responsibles {
			if r.NotifyEnabled && r.DaysBefore >= 0 {
				leads[r.DaysBefore] = true
			}
		}
	}
	for lead := range leads {
		target := day.AddDate(0, 0, lead)
		due, err := n.resolver.DueOccurrences(loc.ID, target, usecase.FilterAll)
		if err != nil {
			return err
		}
		for _, a := range due {
			for _, r := range a.Responsibles {
				if !r.NotifyEnabled || r.DaysBefore != lead {
					continue
				}
				n.sendHeadsUp(ctx, loc, a, r, target, lead)
			}
		}
	}
	return nil
}

func (n *Notifier) sendHeadsUp(ctx context.Context, loc domain.Location, a domain.Assignment, r domain.Responsible, target time.Time, lead int) {
	u, err := n.users.GetUser(r.UserID)
	if err != nil || u.ChatID == 0 {
		return
	}
	var msg string
	if lead == 0 {
		msg = fmt.Sprintf("%q is due today at %s.", n.titleOf(a), loc.Name)
	} else {
		msg = fmt.Sprintf("%q is due at %s on %s.", n.titleOf(a), loc.Name, domain.FormatDate(target))
	}
	if err := n.sender.SendMessage(ctx, u.ChatID, msg); err != nil {
		n.log.Warn("send heads-up",
			zap.Int64("user_id", u.ID),
			zap.Int64("assignment_id", a.ID),
			zap.Error(err))
	}
}

func (n *Notifier) titleOf(a domain.Assignment) string {
	task, err := n.assignments.GetTask(a.TaskID)
	if err != nil {
		return fmt.Sprintf("assignment #%d", a.ID)
	}
	return task.Title
}
