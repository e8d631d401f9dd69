package sqlstore

// Idempotent schema bootstrap, applied on startup. Statements are ordered
// so foreign-key targets exist before their referrers.
var schema = []string{
	`create table if not exists locations (
		id bigserial primary key,
		name text not null,
		address text not null default '',
		created_at timestamptz not null default now()
	)`,
	`create table if not exists users (
		id bigserial primary key,
		telegram_user_id bigint not null unique,
		chat_id bigint not null,
		name text not null default '',
		role text not null default 'worker',
		location_id bigint not null default 0,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists tasks (
		id bigserial primary key,
		title text not null,
		answer_kind text not null,
		created_by bigint not null default 0,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists assignments (
		id bigserial primary key,
		task_id bigint not null references tasks(id),
		type text not null,
		location_id bigint not null default 0,
		active boolean not null default true,
		schedule_kind text not null default '',
		schedule_date date,
		weekday_mask smallint not null default 0,
		start_date date,
		every_n_days int not null default 0,
		deadline text,
		created_by bigint not null default 0,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists assignment_targets (
		assignment_id bigint not null references assignments(id),
		user_id bigint not null,
		primary key (assignment_id, user_id)
	)`,
	`create table if not exists assignment_responsibles (
		assignment_id bigint not null references assignments(id),
		user_id bigint not null,
		notify_enabled boolean not null default true,
		days_before int not null default 0,
		primary key (assignment_id, user_id)
	)`,
	`create table if not exists schedule_overrides (
		id bigserial primary key,
		assignment_id bigint not null references assignments(id),
		location_id bigint not null,
		from_date date not null,
		to_date date not null,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists schedule_overrides_day_idx
		on schedule_overrides (location_id, from_date, to_date)`,
	`create table if not exists completions (
		id bigserial primary key,
		assignment_id bigint not null references assignments(id),
		location_id bigint not null,
		day date not null,
		user_id bigint not null,
		answer text not null default '',
		completed_at timestamptz not null default now()
	)`,
	`create index if not exists completions_occurrence_idx
		on completions (assignment_id, location_id, day, completed_at desc)`,
}
