package repository

import "example.com/dutyroster/internal/domain"

type TaskRepository interface {
	CreateTask(t domain.Task) (domain.Task, error)
	GetTask(id int64) (domain.Task, error)
	ListTasks() ([]domain.Task, error)
}
