package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"example.com/dutyroster/internal/domain"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const fkViolation = "23503"

type Store struct {
	db *sql.DB
}

func New(driver, dsn string) *Store {
	var db *sql.DB
	if driver != "" && dsn != "" {
		db, _ = sql.Open(driver, dsn)
	}
	return &Store{db: db}
}

// Migrate applies the idempotent schema. Safe to run on every start.
func (s *Store) Migrate() error {
	if s.db == nil {
		return errors.New("db")
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateTask(t domain.Task) (domain.Task, error) {
	if s.db == nil {
		return domain.Task{}, errors.New("db")
	}
	row := s.db.QueryRow(`
		insert into tasks(title, answer_kind, created_by)
		values ($1, $2, $3)
		returning id, created_at`,
		t.Title,
		string(t.AnswerKind),
		t.CreatedBy,
	)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (s *Store) GetTask(id int64) (domain.Task, error) {
	if s.db == nil {
		return domain.Task{}, errors.New("db")
	}
	var t domain.Task
	row := s.db.QueryRow(`
		select id, title, answer_kind, created_by, created_at
		from tasks
		where id = $1`,
		id,
	)
	if err := row.Scan(&t.ID, &t.Title, &t.AnswerKind, &t.CreatedBy, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, storage.ErrNotFound
		}
		return domain.Task{}, err
	}
	return t, nil
}

func (s *Store) ListTasks() ([]domain.Task, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	rows, err := s.db.Query(`
		select id, title, answer_kind, created_by, created_at
		from tasks
		order by id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.AnswerKind, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

const assignmentColumns = `
	id, task_id, type, location_id, active,
	schedule_kind, schedule_date, weekday_mask, start_date, every_n_days, deadline,
	created_by, created_at`

func (s *Store) CreateAssignment(a domain.Assignment) (domain.Assignment, error) {
	if s.db == nil {
		return domain.Assignment{}, errors.New("db")
	}
	row := s.db.QueryRow(`
		insert into assignments(
			task_id, type, location_id, active,
			schedule_kind, schedule_date, weekday_mask, start_date, every_n_days, deadline,
			created_by)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		returning id, created_at`,
		a.TaskID,
		string(a.Type),
		a.LocationID,
		a.Active,
		string(a.Schedule.Kind),
		nullDate(a.Schedule.Date),
		int16(a.Schedule.WeekdayMask),
		nullDate(a.Schedule.StartDate),
		a.Schedule.EveryN,
		a.Schedule.Deadline,
		a.CreatedBy,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return domain.Assignment{}, storage.ErrNotFound
		}
		return domain.Assignment{}, err
	}
	if err := s.replaceTargets(a.ID, a.TargetIDs); err != nil {
		return domain.Assignment{}, err
	}
	if err := s.replaceResponsibles(a.ID, a.Responsibles); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

func (s *Store) GetAssignment(id int64) (domain.Assignment, error) {
	if s.db == nil {
		return domain.Assignment{}, errors.New("db")
	}
	row := s.db.QueryRow(`
		select `+assignmentColumns+`
		from assignments
		where id = $1`,
		id,
	)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Assignment{}, storage.ErrNotFound
		}
		return domain.Assignment{}, err
	}
	if err := s.loadSets(&a); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

func (s *Store) ListAssignments() ([]domain.Assignment, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	return s.listAssignments(`
		select `+assignmentColumns+`
		from assignments
		order by id`,
	)
}

func (s *Store) ListActiveForLocation(locationID int64) ([]domain.Assignment, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	return s.listAssignments(`
		select `+assignmentColumns+`
		from assignments
		where active and (location_id = 0 or location_id = $1)
		order by id`,
		locationID,
	)
}

func (s *Store) listAssignments(query string, args ...any) ([]domain.Assignment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if err := s.loadSets(&res[i]); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// SetSchedule rewrites every schedule column in one statement so the rule
// is replaced as a whole value.
func (s *Store) SetSchedule(id int64, sched domain.Schedule) (domain.Assignment, error) {
	if s.db == nil {
		return domain.Assignment{}, errors.New("db")
	}
	res, err := s.db.Exec(`
		update assignments
		set schedule_kind = $1,
			schedule_date = $2,
			weekday_mask = $3,
			start_date = $4,
			every_n_days = $5,
			deadline = $6
		where id = $7`,
		string(sched.Kind),
		nullDate(sched.Date),
		int16(sched.WeekdayMask),
		nullDate(sched.StartDate),
		sched.EveryN,
		sched.Deadline,
		id,
	)
	if err != nil {
		return domain.Assignment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Assignment{}, err
	}
	if affected == 0 {
		return domain.Assignment{}, storage.ErrNotFound
	}
	return s.GetAssignment(id)
}

func (s *Store) SetActive(id int64, active bool) error {
	if s.db == nil {
		return errors.New("db")
	}
	res, err := s.db.Exec(`update assignments set active = $1 where id = $2`, active, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SetTargets(id int64, userIDs []int64) error {
	if s.db == nil {
		return errors.New("db")
	}
	if _, err := s.GetAssignment(id); err != nil {
		return err
	}
	return s.replaceTargets(id, userIDs)
}

func (s *Store) SetResponsibles(id int64, rs []domain.Responsible) error {
	if s.db == nil {
		return errors.New("db")
	}
	if _, err := s.GetAssignment(id); err != nil {
		return err
	}
	return s.replaceResponsibles(id, rs)
}

func (s *Store) replaceTargets(id int64, userIDs []int64) error {
	if _, err := s.db.Exec(`delete from assignment_targets where assignment_id = $1`, id); err != nil {
		return err
	}
	for _, uid := range userIDs {
		if _, err := s.db.Exec(`
			insert into assignment_targets(assignment_id, user_id)
			values ($1, $2)`,
			id, uid,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) replaceResponsibles(id int64, rs []domain.Responsible) error {
	if _, err := s.db.Exec(`delete from assignment_responsibles where assignment_id = $1`, id); err != nil {
		return err
	}
	for _, r := range rs {
		if _, err := s.db.Exec(`
			insert into assignment_responsibles(assignment_id, user_id, notify_enabled, days_before)
			values ($1, $2, $3, $4)`,
			id, r.UserID, r.NotifyEnabled, r.DaysBefore,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadSets(a *domain.Assignment) error {
	rows, err := s.db.Query(`
		select user_id from assignment_targets
		where assignment_id = $1
		order by user_id`,
		a.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return err
		}
		a.TargetIDs = append(a.TargetIDs, uid)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rrows, err := s.db.Query(`
		select user_id, notify_enabled, days_before from assignment_responsibles
		where assignment_id = $1
		order by user_id`,
		a.ID,
	)
	if err != nil {
		return err
	}
	defer rrows.Close()
	for rrows.Next() {
		var r domain.Responsible
		if err := rrows.Scan(&r.UserID, &r.NotifyEnabled, &r.DaysBefore); err != nil {
			return err
		}
		a.Responsibles = append(a.Responsibles, r)
	}
	return rrows.Err()
}

func (s *Store) CreateOverride(o domain.Override) (domain.Override, error) {
	if s.db == nil {
		return domain.Override{}, errors.New("db")
	}
	row := s.db.QueryRow(`
		insert into schedule_overrides(assignment_id, location_id, from_date, to_date)
		values ($1, $2, $3, $4)
		returning id, created_at`,
		o.AssignmentID,
		o.LocationID,
		domain.DateOf(o.FromDate),
		domain.DateOf(o.ToDate),
	)
	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return domain.Override{}, storage.ErrNotFound
		}
		return domain.Override{}, err
	}
	o.FromDate = domain.DateOf(o.FromDate)
	o.ToDate = domain.DateOf(o.ToDate)
	return o, nil
}

func (s *Store) ListForDay(locationID int64, day time.Time) (repository.DayOverrides, error) {
	res := repository.DayOverrides{
		Skip:    make(map[int64]bool),
		Include: make(map[int64]bool),
	}
	if s.db == nil {
		return res, errors.New("db")
	}
	day = domain.DateOf(day)
	rows, err := s.db.Query(`
		select assignment_id, from_date, to_date
		from schedule_overrides
		where location_id = $1 and (from_date = $2 or to_date = $2)`,
		locationID,
		day,
	)
	if err != nil {
		return res, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var from, to time.Time
		if err := rows.Scan(&id, &from, &to); err != nil {
			return res, err
		}
		if domain.DateOf(from).Equal(day) {
			res.Skip[id] = true
		}
		if domain.DateOf(to).Equal(day) {
			res.Include[id] = true
		}
	}
	return res, rows.Err()
}

func (s *Store) ListForAssignment(assignmentID int64) ([]domain.Override, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	rows, err := s.db.Query(`
		select id, assignment_id, location_id, from_date, to_date, created_at
		from schedule_overrides
		where assignment_id = $1
		order by id`,
		assignmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Override
	for rows.Next() {
		var o domain.Override
		if err := rows.Scan(&o.ID, &o.AssignmentID, &o.LocationID, &o.FromDate, &o.ToDate, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.FromDate = domain.DateOf(o.FromDate)
		o.ToDate = domain.DateOf(o.ToDate)
		res = append(res, o)
	}
	return res, rows.Err()
}

func (s *Store) CreateCompletion(c domain.Completion) (domain.Completion, error) {
	if s.db == nil {
		return domain.Completion{}, errors.New("db")
	}
	var row *sql.Row
	if c.CompletedAt.IsZero() {
		row = s.db.QueryRow(`
			insert into completions(assignment_id, location_id, day, user_id, answer)
			values ($1, $2, $3, $4, $5)
			returning id, completed_at`,
			c.AssignmentID, c.LocationID, domain.DateOf(c.Date), c.UserID, c.Answer,
		)
	} else {
		row = s.db.QueryRow(`
			insert into completions(assignment_id, location_id, day, user_id, answer, completed_at)
			values ($1, $2, $3, $4, $5, $6)
			returning id, completed_at`,
			c.AssignmentID, c.LocationID, domain.DateOf(c.Date), c.UserID, c.Answer, c.CompletedAt,
		)
	}
	if err := row.Scan(&c.ID, &c.CompletedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return domain.Completion{}, storage.ErrNotFound
		}
		return domain.Completion{}, err
	}
	c.Date = domain.DateOf(c.Date)
	return c, nil
}

func (s *Store) LatestCompletion(assignmentID, locationID int64, day time.Time) (domain.Completion, error) {
	if s.db == nil {
		return domain.Completion{}, errors.New("db")
	}
	var c domain.Completion
	row := s.db.QueryRow(`
		select id, assignment_id, location_id, day, user_id, answer, completed_at
		from completions
		where assignment_id = $1 and location_id = $2 and day = $3
		order by completed_at desc, id desc
		limit 1`,
		assignmentID,
		locationID,
		domain.DateOf(day),
	)
	if err := row.Scan(&c.ID, &c.AssignmentID, &c.LocationID, &c.Date, &c.UserID, &c.Answer, &c.CompletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Completion{}, storage.ErrNotFound
		}
		return domain.Completion{}, err
	}
	c.Date = domain.DateOf(c.Date)
	return c, nil
}

func (s *Store) ListCompletions(assignmentID, locationID int64) ([]domain.Completion, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	rows, err := s.db.Query(`
		select id, assignment_id, location_id, day, user_id, answer, completed_at
		from completions
		where assignment_id = $1 and location_id = $2
		order by completed_at, id`,
		assignmentID,
		locationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Completion
	for rows.Next() {
		var c domain.Completion
		if err := rows.Scan(&c.ID, &c.AssignmentID, &c.LocationID, &c.Date, &c.UserID, &c.Answer, &c.CompletedAt); err != nil {
			return nil, err
		}
		c.Date = domain.DateOf(c.Date)
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *Store) CreateLocation(l domain.Location) (domain.Location, error) {
	if s.db == nil {
		return domain.Location{}, errors.New("db")
	}
	row := s.db.QueryRow(`
		insert into locations(name, address)
		values ($1, $2)
		returning id, created_at`,
		l.Name,
		l.Address,
	)
	if err := row.Scan(&l.ID, &l.CreatedAt); err != nil {
		return domain.Location{}, err
	}
	return l, nil
}

func (s *Store) GetLocation(id int64) (domain.Location, error) {
	if s.db == nil {
		return domain.Location{}, errors.New("db")
	}
	var l domain.Location
	row := s.db.QueryRow(`
		select id, name, address, created_at
		from locations
		where id = $1`,
		id,
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Location{}, storage.ErrNotFound
		}
		return domain.Location{}, err
	}
	return l, nil
}

func (s *Store) ListLocations() ([]domain.Location, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	rows, err := s.db.Query(`
		select id, name, address, created_at
		from locations
		order by id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (s *Store) CreateUser(u domain.User) (domain.User, error) {
	if s.db == nil {
		return domain.User{}, errors.New("db")
	}
	if u.Role == "" {
		u.Role = domain.RoleWorker
	}
	row := s.db.QueryRow(`
		insert into users(telegram_user_id, chat_id, name, role, location_id)
		values ($1, $2, $3, $4, $5)
		returning id, created_at`,
		u.TelegramUserID,
		u.ChatID,
		u.Name,
		string(u.Role),
		u.LocationID,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(id int64) (domain.User, error) {
	if s.db == nil {
		return domain.User{}, errors.New("db")
	}
	return s.getUser(`
		select id, telegram_user_id, chat_id, name, role, location_id, created_at
		from users
		where id = $1`,
		id,
	)
}

func (s *Store) GetByTelegramID(telegramUserID int64) (domain.User, error) {
	if s.db == nil {
		return domain.User{}, errors.New("db")
	}
	return s.getUser(`
		select id, telegram_user_id, chat_id, name, role, location_id, created_at
		from users
		where telegram_user_id = $1`,
		telegramUserID,
	)
}

func (s *Store) getUser(query string, arg any) (domain.User, error) {
	var u domain.User
	row := s.db.QueryRow(query, arg)
	if err := row.Scan(&u.ID, &u.TelegramUserID, &u.ChatID, &u.Name, &u.Role, &u.LocationID, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, storage.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsersAtLocation(locationID int64) ([]domain.User, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	return s.listUsers(`
		select id, telegram_user_id, chat_id, name, role, location_id, created_at
		from users
		where location_id = $1
		order by id`,
		locationID,
	)
}

func (s *Store) ListUsers() ([]domain.User, error) {
	if s.db == nil {
		return nil, errors.New("db")
	}
	return s.listUsers(`
		select id, telegram_user_id, chat_id, name, role, location_id, created_at
		from users
		order by id`,
	)
}

func (s *Store) listUsers(query string, args ...any) ([]domain.User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TelegramUserID, &u.ChatID, &u.Name, &u.Role, &u.LocationID, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (domain.Assignment, error) {
	var a domain.Assignment
	var kind string
	var schedDate, startDate sql.NullTime
	var mask int16
	var deadline sql.NullString
	if err := row.Scan(
		&a.ID,
		&a.TaskID,
		&a.Type,
		&a.LocationID,
		&a.Active,
		&kind,
		&schedDate,
		&mask,
		&startDate,
		&a.Schedule.EveryN,
		&deadline,
		&a.CreatedBy,
		&a.CreatedAt,
	); err != nil {
		return domain.Assignment{}, err
	}
	a.Schedule.Kind = domain.ScheduleKind(kind)
	a.Schedule.WeekdayMask = uint8(mask)
	if schedDate.Valid {
		a.Schedule.Date = domain.DateOf(schedDate.Time)
	}
	if startDate.Valid {
		a.Schedule.StartDate = domain.DateOf(startDate.Time)
	}
	if deadline.Valid {
		a.Schedule.Deadline = &deadline.String
	}
	return a, nil
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return domain.DateOf(t)
}
