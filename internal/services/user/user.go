// Package services реализует администрирование пользователей.
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// UserRepository хранилище пользователей.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AccountCreator создает учетные записи, реализуется сервисом аутентификации.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

// UserService операции администратора над пользователями.
type UserService struct {
	repo     UserRepository
	accounts AccountCreator
	log      *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, accounts AccountCreator, log *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		accounts: accounts,
		log:      log,
	}
}

// List возвращает всех пользователей без хэшей паролей.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

// Create заводит пользователя с указанной ролью.
func (s *UserService) Create(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	return s.accounts.CreateAccount(ctx, req)
}

// Remove удаляет пользователя. Его продажи не затрагиваются.
func (s *UserService) Remove(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid user id")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("user removed", slog.String("user_id", id))
	return nil
}
