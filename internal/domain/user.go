package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

// User is a staff member. Workers belong to one location; admins author
// tasks and schedules. Telegram identity is how the bot recognizes them.
type User struct {
	ID             int64     `json:"id"`
	TelegramUserID int64     `json:"telegram_user_id"`
	ChatID         int64     `json:"chat_id"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	LocationID     int64     `json:"location_id"`
	CreatedAt      time.Time `json:"created_at"`
}
