package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/storage"
	"example.com/dutyroster/internal/usecase"
	"example.com/dutyroster/pkg/response"
)

// Services is what the HTTP layer needs from the rest of the application.
type Services struct {
	Assignments *usecase.AssignmentService
	Schedules   *usecase.ScheduleService
	Resolver    *usecase.ResolverService
	Completions *usecase.CompletionService
	Locations   repository.LocationRepository
	Users       repository.UserRepository
}

type Handler struct {
	mux      *http.ServeMux
	svc      Services
	validate *validator.Validate
	log      *zap.Logger
}

func New(svc Services, log *zap.Logger) http.Handler {
	h := &Handler{
		mux:      http.NewServeMux(),
		svc:      svc,
		validate: validator.New(),
		log:      log,
	}
	h.routes()
	return h
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /healthz", h.health)

	h.mux.HandleFunc("GET /locations", h.locations)
	h.mux.HandleFunc("POST /locations", h.createLocation)
	h.mux.HandleFunc("GET /locations/{id}/due", h.due)

	h.mux.HandleFunc("GET /users", h.users)
	h.mux.HandleFunc("POST /users", h.createUser)

	h.mux.HandleFunc("GET /tasks", h.tasks)
	h.mux.HandleFunc("POST /tasks", h.createTask)

	h.mux.HandleFunc("GET /assignments", h.assignments)
	h.mux.HandleFunc("POST /assignments", h.createAssignment)
	h.mux.HandleFunc("GET /assignments/{id}", h.assignment)
	h.mux.HandleFunc("GET /assignments/{id}/next", h.next)
	h.mux.HandleFunc("POST /assignments/{id}/schedule/single", h.setSingle)
	h.mux.HandleFunc("POST /assignments/{id}/schedule/weekly", h.setWeekly)
	h.mux.HandleFunc("POST /assignments/{id}/schedule/interval", h.setInterval)
	h.mux.HandleFunc("POST /assignments/{id}/schedule/toggle", h.toggleWeekday)
	h.mux.HandleFunc("POST /assignments/{id}/move", h.move)
	h.mux.HandleFunc("POST /assignments/{id}/deactivate", h.deactivate)
	h.mux.HandleFunc("POST /assignments/{id}/activate", h.activate)
	h.mux.HandleFunc("PUT /assignments/{id}/targets", h.setTargets)
	h.mux.HandleFunc("PUT /assignments/{id}/responsibles", h.setResponsibles)
	h.mux.HandleFunc("POST /assignments/{id}/complete", h.complete)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"ok": "true"})
}

func (h *Handler) locations(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Locations.ListLocations()
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name" validate:"required"`
		Address string `json:"address"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	loc, err := h.svc.Locations.CreateLocation(domain.Location{Name: req.Name, Address: req.Address})
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, loc)
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Users.ListUsers()
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TelegramUserID int64  `json:"telegram_user_id" validate:"required"`
		ChatID         int64  `json:"chat_id" validate:"required"`
		Name           string `json:"name"`
		Role           string `json:"role" validate:"omitempty,oneof=admin worker"`
		LocationID     int64  `json:"location_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.Users.CreateUser(domain.User{
		TelegramUserID: req.TelegramUserID,
		ChatID:         req.ChatID,
		Name:           req.Name,
		Role:           domain.Role(req.Role),
		LocationID:     req.LocationID,
	})
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, user)
}

func (h *Handler) tasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Assignments.ListTasks()
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string `json:"title" validate:"required"`
		AnswerKind string `json:"answer_kind" validate:"required,oneof=acknowledge photo video number free_text"`
		CreatedBy  int64  `json:"created_by"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.svc.Assignments.CreateTask(req.Title, domain.AnswerKind(req.AnswerKind), req.CreatedBy)
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, task)
}

func (h *Handler) assignments(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Assignments.ListAssignments()
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) assignment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	item, err := h.svc.Assignments.GetAssignment(id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

type scheduleRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=single weekly every_n_days"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	WeekdayMask uint8  `json:"weekday_mask"`
	StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EveryNDays  int    `json:"every_n_days"`
	Deadline    *string `json:"deadline"`
}

func (r scheduleRequest) toSchedule() (domain.Schedule, error) {
	switch r.Kind {
	case string(domain.ScheduleSingle):
		d, err := domain.ParseDate(r.Date)
		if err != nil {
			return domain.Schedule{}, err
		}
		return domain.SingleSchedule(d, r.Deadline), nil
	case string(domain.ScheduleWeekly):
		return domain.WeeklySchedule(r.WeekdayMask, r.Deadline), nil
	default:
		d, err := domain.ParseDate(r.StartDate)
		if err != nil {
			return domain.Schedule{}, err
		}
		return domain.EveryNDaysSchedule(d, r.EveryNDays, r.Deadline), nil
	}
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID     int64           `json:"task_id" validate:"required"`
		Type       string          `json:"type" validate:"required,oneof=global individual"`
		LocationID int64           `json:"location_id"`
		Schedule   scheduleRequest `json:"schedule" validate:"required"`
		CreatedBy  int64           `json:"created_by"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	sched, err := req.Schedule.toSchedule()
	if err != nil {
		writeError(w, http.StatusBadRequest, "schedule")
		return
	}
	item, err := h.svc.Assignments.CreateAssignment(req.TaskID, domain.AssignmentType(req.Type), req.LocationID, sched, req.CreatedBy)
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, item)
}

func (h *Handler) setSingle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
		Deadline *string `json:"deadline"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	d, _ := domain.ParseDate(req.Date)
	item, err := h.svc.Schedules.SetSingle(id, d, req.Deadline)
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) setWeekly(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		WeekdayMask uint8   `json:"weekday_mask" validate:"max=127"`
		Deadline    *string `json:"deadline"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.svc.Schedules.SetWeekly(id, req.WeekdayMask, req.Deadline)
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) setInterval(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		EveryNDays int     `json:"every_n_days" validate:"required"`
		StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
		Deadline   *string `json:"deadline"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	start, _ := domain.ParseDate(req.StartDate)
	item, err := h.svc.Schedules.SetEveryNDays(id, req.EveryNDays, start, req.Deadline)
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) toggleWeekday(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		// 0 = Monday .. 6 = Sunday, same numbering as the mask bits
		Weekday *int `json:"weekday" validate:"required,min=0,max=6"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.svc.Schedules.ToggleWeekday(id, maskIndexToWeekday(*req.Weekday))
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		LocationID int64  `json:"location_id" validate:"required"`
		FromDate   string `json:"from_date" validate:"required,datetime=2006-01-02"`
		ToDate     string `json:"to_date" validate:"required,datetime=2006-01-02"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	from, _ := domain.ParseDate(req.FromDate)
	to, _ := domain.ParseDate(req.ToDate)
	o, err := h.svc.Schedules.MoveOccurrence(id, req.LocationID, from, to)
	if err != nil {
		h.usecaseError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, o)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Schedules.Deactivate(id); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Schedules.Activate(id); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setTargets(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		UserIDs []int64 `json:"user_ids" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Assignments.SetTargets(id, req.UserIDs); err != nil {
		h.usecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setResponsibles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Responsibles []domain.Responsible `json:"responsibles" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Assignments.SetResponsibles(id, req.Responsibles); err != nil {
		h.usecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) due(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	day, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date")
		return
	}
	filter := usecase.Filter(r.URL.Query().Get("filter"))
	if !usecase.ValidFilter(filter) {
		writeError(w, http.StatusBadRequest, "filter")
		return
	}
	due, err := h.svc.Resolver.DueOccurrences(id, day, filter)
	if err != nil {
		h.storeError(w, err)
		return
	}
	statuses, err := h.svc.Completions.Annotate(due, id, day)
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"date":  domain.FormatDate(day),
		"items": statuses,
	})
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	after, err := domain.ParseDate(r.URL.Query().Get("after"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "after")
		return
	}
	next, found, err := h.svc.Resolver.NextOccurrence(id, after)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !found {
		response.JSON(w, http.StatusOK, map[string]any{"next": nil})
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"next": domain.FormatDate(next)})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		LocationID int64  `json:"location_id" validate:"required"`
		Date       string `json:"date" validate:"required,datetime=2006-01-02"`
		UserID     int64  `json:"user_id" validate:"required"`
		Answer     string `json:"answer"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	day, _ := domain.ParseDate(req.Date)
	c, err := h.svc.Completions.RecordCompletion(id, req.LocationID, day, req.UserID, req.Answer)
	if err != nil {
		h.storeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, c)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "json")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation")
		return false
	}
	return true
}

func (h *Handler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	h.log.Error("store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "store")
}

func (h *Handler) usecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, usecase.ErrInvalidInterval),
		errors.Is(err, usecase.ErrInvalidDeadline),
		errors.Is(err, usecase.ErrEmptyTitle),
		errors.Is(err, usecase.ErrInvalidAnswerKind),
		errors.Is(err, usecase.ErrInvalidType),
		errors.Is(err, usecase.ErrInvalidLeadTime),
		errors.Is(err, usecase.ErrTargetsNotAllowed),
		errors.Is(err, usecase.ErrInvalidScheduleDef):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("usecase error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data")
	}
	return nil
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id")
		return 0, false
	}
	return id, true
}

func maskIndexToWeekday(i int) time.Weekday {
	if i == 6 {
		return time.Sunday
	}
	return time.Weekday(i + 1)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	response.JSON(w, code, map[string]string{"error": msg})
}
