package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/storage"
	"example.com/dutyroster/internal/usecase"
)

type Bot struct {
	client      *Client
	assignments *usecase.AssignmentService
	resolver    *usecase.ResolverService
	completions *usecase.CompletionService
	schedules   *usecase.ScheduleService
	users       repository.UserRepository
	sessions    SessionStore
	log         *zap.Logger
	pollTimeout time.Duration
	now         func() time.Time
}

func NewBot(
	token string,
	assignments *usecase.AssignmentService,
	resolver *usecase.ResolverService,
	completions *usecase.CompletionService,
	schedules *usecase.ScheduleService,
	users repository.UserRepository,
	sessions SessionStore,
	log *zap.Logger,
	pollTimeout time.Duration,
) *Bot {
	return &Bot{
		client:      NewClient(token),
		assignments: assignments,
		resolver:    resolver,
		completions: completions,
		schedules:   schedules,
		users:       users,
		sessions:    sessions,
		log:         log,
		pollTimeout: pollTimeout,
		now:         time.Now,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	offset := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			b.log.Warn("telegram getUpdates", zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}
		for _, upd := range updates {
			offset = upd.UpdateID + 1
			if upd.Message == nil {
				continue
			}
			if err := b.handleMessage(ctx, upd.Message); err != nil {
				b.log.Warn("telegram handle message", zap.Error(err))
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) error {
	if msg.From == nil {
		return nil
	}
	user, err := b.ensureUser(msg)
	if err != nil {
		_ = b.client.SendMessage(ctx, msg.Chat.ID, "Something went wrong, try again.")
		return err
	}

	command, args := parseCommand(msg.Text)
	if command == "" {
		// Not a command: may be the payload for a pending answer.
		return b.captureAnswer(ctx, msg, user)
	}

	switch command {
	case "start", "help":
		return b.client.SendMessage(ctx, msg.Chat.ID, helpText(user.Role))
	case "today":
		return b.handleToday(ctx, msg, user)
	case "done":
		return b.handleDone(ctx, msg, user, args)
	case "next":
		return b.handleNext(ctx, msg, user, args)
	case "move":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleMove(ctx, msg, user, args) })
	case "setsingle":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleSetSingle(ctx, msg, args) })
	case "setweekly":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleSetWeekly(ctx, msg, args) })
	case "setevery":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleSetEvery(ctx, msg, args) })
	case "toggle":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleToggle(ctx, msg, args) })
	case "deactivate":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleActive(ctx, msg, args, false) })
	case "activate":
		return b.adminOnly(ctx, msg, user, func() error { return b.handleActive(ctx, msg, args, true) })
	default:
		return b.client.SendMessage(ctx, msg.Chat.ID, "Unknown command, /help lists what I understand.")
	}
}

func (b *Bot) adminOnly(ctx context.Context, msg *Message, user domain.User, fn func() error) error {
	if user.Role != domain.RoleAdmin {
		return b.client.SendMessage(ctx, msg.Chat.ID, "That command is for admins.")
	}
	return fn()
}

func (b *Bot) handleToday(ctx context.Context, msg *Message, user domain.User) error {
	if user.LocationID == 0 {
		return b.client.SendMessage(ctx, msg.Chat.ID, "You are not attached to a location yet, ask an admin.")
	}
	day := domain.DateOf(b.now())
	due, err := b.resolver.DueOccurrences(user.LocationID, day, usecase.FilterAll)
	if err != nil {
		return fmt.Errorf("resolve due: %w", err)
	}
	statuses, err := b.completions.Annotate(due, user.LocationID, day)
	if err != nil {
		return fmt.Errorf("annotate: %w", err)
	}

	ids := make([]int64, 0, len(statuses))
	for _, st := range statuses {
		ids = append(ids, st.Assignment.ID)
	}
	b.sessions.Put(msg.Chat.ID, Session{
		LocationID: user.LocationID,
		Date:       day,
		ListedIDs:  ids,
	})
	return b.client.SendMessage(ctx, msg.Chat.ID, b.renderDueList(day, statuses))
}

func (b *Bot) handleDone(ctx context.Context, msg *Message, user domain.User, args string) error {
	sess, a, err := b.listedAssignment(msg.Chat.ID, args)
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /done <number from /today>")
	}
	if !a.TargetedAt(user.ID) {
		return b.client.SendMessage(ctx, msg.Chat.ID, "That task is assigned to someone else.")
	}
	task, err := b.assignments.GetTask(a.TaskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}

	if task.AnswerKind == domain.AnswerAcknowledge {
		if _, err := b.completions.RecordCompletion(a.ID, sess.LocationID, sess.Date, user.ID, ""); err != nil {
			return fmt.Errorf("record completion: %w", err)
		}
		return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Done: %s.", task.Title))
	}

	sess.Pending = &PendingAnswer{
		AssignmentID: a.ID,
		LocationID:   sess.LocationID,
		Date:         sess.Date,
		Kind:         task.AnswerKind,
	}
	b.sessions.Put(msg.Chat.ID, sess)
	return b.client.SendMessage(ctx, msg.Chat.ID, answerPrompt(task.AnswerKind))
}

func (b *Bot) captureAnswer(ctx context.Context, msg *Message, user domain.User) error {
	sess, ok := b.sessions.Get(msg.Chat.ID)
	if !ok || sess.Pending == nil {
		return nil
	}
	pending := sess.Pending

	var answer string
	switch pending.Kind {
	case domain.AnswerPhoto:
		answer = msg.LargestPhoto()
		if answer == "" {
			return b.client.SendMessage(ctx, msg.Chat.ID, "I need a photo for that one.")
		}
	case domain.AnswerVideo:
		if msg.Video == nil {
			return b.client.SendMessage(ctx, msg.Chat.ID, "I need a video for that one.")
		}
		answer = msg.Video.FileID
	case domain.AnswerNumber:
		text := strings.TrimSpace(msg.Text)
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return b.client.SendMessage(ctx, msg.Chat.ID, "I need a number, like 42 or 3.5.")
		}
		answer = text
	case domain.AnswerFreeText:
		answer = strings.TrimSpace(msg.Text)
		if answer == "" {
			return b.client.SendMessage(ctx, msg.Chat.ID, "Write a few words about how it went.")
		}
	default:
		sess.Pending = nil
		b.sessions.Put(msg.Chat.ID, sess)
		return nil
	}

	if _, err := b.completions.RecordCompletion(pending.AssignmentID, pending.LocationID, pending.Date, user.ID, answer); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	sess.Pending = nil
	b.sessions.Put(msg.Chat.ID, sess)
	return b.client.SendMessage(ctx, msg.Chat.ID, "Got it, marked as done.")
}

func (b *Bot) handleNext(ctx context.Context, msg *Message, user domain.User, args string) error {
	_, a, err := b.listedAssignment(msg.Chat.ID, args)
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /next <number from /today>")
	}
	next, ok, err := b.resolver.NextOccurrence(a.ID, domain.DateOf(b.now()))
	if err != nil {
		return fmt.Errorf("next occurrence: %w", err)
	}
	task, err := b.assignments.GetTask(a.TaskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if !ok {
		return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("%s has no further occurrences.", task.Title))
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("%s is next due on %s.", task.Title, domain.FormatDate(next)))
}

func (b *Bot) handleMove(ctx context.Context, msg *Message, user domain.User, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /move <number from /today> <YYYY-MM-DD>")
	}
	sess, a, err := b.listedAssignment(msg.Chat.ID, fields[0])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /move <number from /today> <YYYY-MM-DD>")
	}
	toDate, err := domain.ParseDate(fields[1])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Dates look like 2024-03-06.")
	}
	if _, err := b.schedules.MoveOccurrence(a.ID, sess.LocationID, sess.Date, toDate); err != nil {
		return fmt.Errorf("move occurrence: %w", err)
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Moved to %s.", domain.FormatDate(toDate)))
}

func (b *Bot) handleSetSingle(ctx context.Context, msg *Message, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /setsingle <assignment id> <YYYY-MM-DD> [HH:MM]")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Assignment id must be a positive number.")
	}
	date, err := domain.ParseDate(fields[1])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Dates look like 2024-03-06.")
	}
	if _, err := b.schedules.SetSingle(id, date, optionalDeadline(fields, 2)); err != nil {
		return b.scheduleError(ctx, msg.Chat.ID, err)
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Assignment #%d now runs once on %s.", id, domain.FormatDate(date)))
}

func (b *Bot) handleSetWeekly(ctx context.Context, msg *Message, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /setweekly <assignment id> mon,wed,fri [HH:MM]")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Assignment id must be a positive number.")
	}
	mask, err := parseWeekdayMask(fields[1])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Weekdays look like mon,wed,fri.")
	}
	if _, err := b.schedules.SetWeekly(id, mask, optionalDeadline(fields, 2)); err != nil {
		return b.scheduleError(ctx, msg.Chat.ID, err)
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Assignment #%d now runs weekly on %s.", id, fields[1]))
}

func (b *Bot) handleSetEvery(ctx context.Context, msg *Message, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 3 || len(fields) > 4 {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /setevery <assignment id> <days> <YYYY-MM-DD> [HH:MM]")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Assignment id must be a positive number.")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "The interval must be a number of days.")
	}
	start, err := domain.ParseDate(fields[2])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Dates look like 2024-03-06.")
	}
	if _, err := b.schedules.SetEveryNDays(id, n, start, optionalDeadline(fields, 3)); err != nil {
		return b.scheduleError(ctx, msg.Chat.ID, err)
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Assignment #%d now runs every %d days from %s.", id, n, domain.FormatDate(start)))
}

func (b *Bot) handleToggle(ctx context.Context, msg *Message, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /toggle <assignment id> <mon..sun>")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Assignment id must be a positive number.")
	}
	day, ok := weekdayByName[strings.ToLower(fields[1])]
	if !ok {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Weekdays look like mon, tue, ... sun.")
	}
	a, err := b.schedules.ToggleWeekday(id, day)
	if err != nil {
		return b.scheduleError(ctx, msg.Chat.ID, err)
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Assignment #%d weekdays: %s.", id, maskNames(a.Schedule.WeekdayMask)))
}

func (b *Bot) handleActive(ctx context.Context, msg *Message, args string, active bool) error {
	id, err := parseID(strings.TrimSpace(args))
	if err != nil {
		return b.client.SendMessage(ctx, msg.Chat.ID, "Usage: /deactivate <assignment id>")
	}
	if active {
		err = b.schedules.Activate(id)
	} else {
		err = b.schedules.Deactivate(id)
	}
	if err != nil {
		return b.scheduleError(ctx, msg.Chat.ID, err)
	}
	if active {
		return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Assignment #%d is active again.", id))
	}
	return b.client.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Assignment #%d is paused, history kept.", id))
}

func (b *Bot) scheduleError(ctx context.Context, chatID int64, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return b.client.SendMessage(ctx, chatID, "No such assignment.")
	case errors.Is(err, usecase.ErrInvalidInterval):
		return b.client.SendMessage(ctx, chatID, "The interval must be at least 1 day.")
	case errors.Is(err, usecase.ErrInvalidDeadline):
		return b.client.SendMessage(ctx, chatID, "Deadlines look like 09:30.")
	default:
		return err
	}
}

// listedAssignment resolves a positional argument against the chat's last
// /today render.
func (b *Bot) listedAssignment(chatID int64, arg string) (Session, domain.Assignment, error) {
	sess, ok := b.sessions.Get(chatID)
	if !ok || len(sess.ListedIDs) == 0 {
		return Session{}, domain.Assignment{}, errors.New("no list rendered, run /today")
	}
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(sess.ListedIDs) {
		return Session{}, domain.Assignment{}, errors.New("position out of range")
	}
	a, err := b.assignments.GetAssignment(sess.ListedIDs[n-1])
	if err != nil {
		return Session{}, domain.Assignment{}, err
	}
	return sess, a, nil
}

func (b *Bot) ensureUser(msg *Message) (domain.User, error) {
	user, err := b.users.GetByTelegramID(msg.From.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.User{}, err
	}
	name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	if name == "" {
		name = msg.From.Username
	}
	return b.users.CreateUser(domain.User{
		TelegramUserID: msg.From.ID,
		ChatID:         msg.Chat.ID,
		Name:           name,
		Role:           domain.RoleWorker,
	})
}

func (b *Bot) renderDueList(day time.Time, statuses []usecase.OccurrenceStatus) string {
	if len(statuses) == 0 {
		return "Nothing due today. Enjoy."
	}
	lines := make([]string, 0, len(statuses)+1)
	lines = append(lines, "Due on "+domain.FormatDate(day)+":")
	for i, st := range statuses {
		mark := "[ ]"
		if st.Done {
			mark = "[x]"
		}
		title := fmt.Sprintf("assignment #%d", st.Assignment.ID)
		if task, err := b.assignments.GetTask(st.Assignment.TaskID); err == nil {
			title = task.Title
		}
		line := fmt.Sprintf("%d) %s %s", i+1, mark, title)
		if st.Assignment.Schedule.Deadline != nil {
			line += " (by " + *st.Assignment.Schedule.Deadline + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

var weekdayByName = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

var weekdayOrder = []struct {
	name string
	day  time.Weekday
}{
	{"mon", time.Monday},
	{"tue", time.Tuesday},
	{"wed", time.Wednesday},
	{"thu", time.Thursday},
	{"fri", time.Friday},
	{"sat", time.Saturday},
	{"sun", time.Sunday},
}

func parseWeekdayMask(s string) (uint8, error) {
	var mask uint8
	for _, part := range strings.Split(s, ",") {
		day, ok := weekdayByName[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		mask |= domain.WeekdayBit(day)
	}
	return mask, nil
}

func maskNames(mask uint8) string {
	if mask == 0 {
		return "none (paused)"
	}
	names := make([]string, 0, 7)
	for _, wd := range weekdayOrder {
		if mask&domain.WeekdayBit(wd.day) != 0 {
			names = append(names, wd.name)
		}
	}
	return strings.Join(names, ",")
}

func optionalDeadline(fields []string, idx int) *string {
	if len(fields) <= idx {
		return nil
	}
	d := fields[idx]
	return &d
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id")
	}
	return id, nil
}

func parseCommand(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return "", ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	cmd := strings.TrimPrefix(parts[0], "/")
	if idx := strings.Index(cmd, "@"); idx >= 0 {
		cmd = cmd[:idx]
	}
	cmd = strings.ToLower(cmd)
	if len(parts) == 1 {
		return cmd, ""
	}
	return cmd, strings.TrimSpace(parts[1])
}

func answerPrompt(kind domain.AnswerKind) string {
	switch kind {
	case domain.AnswerPhoto:
		return "Send a photo as proof."
	case domain.AnswerVideo:
		return "Send a video as proof."
	case domain.AnswerNumber:
		return "Send the number."
	default:
		return "Write a few words about how it went."
	}
}

func helpText(role domain.Role) string {
	lines := []string{
		"Commands:",
		"/today — what is due at your location today",
		"/done <n> — mark item n from /today as done",
		"/next <n> — when item n is due next",
	}
	if role == domain.RoleAdmin {
		lines = append(lines,
			"/move <n> <YYYY-MM-DD> — move today's item n to another date",
			"/setsingle <id> <YYYY-MM-DD> [HH:MM] — one-off schedule",
			"/setweekly <id> mon,wed,fri [HH:MM] — weekly schedule",
			"/setevery <id> <days> <YYYY-MM-DD> [HH:MM] — interval schedule",
			"/toggle <id> <mon..sun> — flip one weekday",
			"/deactivate <id>, /activate <id> — pause or resume",
		)
	}
	return strings.Join(lines, "\n")
}
