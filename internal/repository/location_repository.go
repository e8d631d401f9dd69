package repository

import "example.com/dutyroster/internal/domain"

type LocationRepository interface {
	CreateLocation(l domain.Location) (domain.Location, error)
	GetLocation(id int64) (domain.Location, error)
	ListLocations() ([]domain.Location, error)
}
