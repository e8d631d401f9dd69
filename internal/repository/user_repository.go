package repository

import "example.com/dutyroster/internal/domain"

type UserRepository interface {
	CreateUser(u domain.User) (domain.User, error)
	GetUser(id int64) (domain.User, error)
	GetByTelegramID(telegramUserID int64) (domain.User, error)
	// ListUsersAtLocation returns workers attached to the location.
	ListUsersAtLocation(locationID int64) ([]domain.User, error)
	ListUsers() ([]domain.User, error)
}
