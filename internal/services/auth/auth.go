// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/password"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Сообщения об ошибках аутентификации.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgTokenFailed        = "Not authorized, token failed"
	MsgUserNotFound       = "User not found"
	MsgEmailTaken         = "email already registered"
	MsgPasswordTooLong    = "password must be at most 72 bytes"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его с присвоенным id.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByID возвращает пользователя по id.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser сохраняет изменённого пользователя.
	UpdateUser(ctx context.Context, user models.User) (*models.User, error)
}

// AuthService отвечает за регистрацию, вход, профиль и проверку JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// CreateAccount создает пользователя с хэшированным паролем. Пустая роль становится "user".
func (s *AuthService) CreateAccount(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	const op = "services.auth.CreateAccount"

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	email := models.NormalizeEmail(req.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	role := models.NormalizeRole(req.Role)
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, apperr.Validation("role must be one of: admin, user")
	}

	if len(req.Password) > password.MaxLength {
		return nil, apperr.Validation(MsgPasswordTooLong)
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(op, req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", slog.String("user_id", user.ID), slog.String("role", user.Role))
	return publicUser(user), nil
}

// Register регистрирует пользователя и сразу выдаёт токен.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	user, err := s.CreateAccount(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	return s.issue(publicUser(user))
}

// Authenticate проверяет токен и загружает пользователя из хранилища.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		s.log.Debug("token rejected", sl.Err(err))
		return nil, apperr.Unauthorized(MsgTokenFailed)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgUserNotFound)
		}
		return nil, err
	}
	return publicUser(user), nil
}

// Profile возвращает профиль пользователя без хэша пароля.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

// UpdateProfile меняет имя, email и пароль. Пустые поля запроса не трогаются.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	const op = "services.auth.UpdateProfile"

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := models.NormalizeEmail(req.Email); email != "" && email != user.Email {
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Password != "" {
		hashed, err := hashPassword(op, req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	updated, err := s.users.UpdateUser(ctx, *user)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile updated", slog.String("user_id", updated.ID))
	return publicUser(updated), nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != ownerID:
		return apperr.Validation(MsgEmailTaken)
	default:
		return nil
	}
}

func hashPassword(op, raw string) (string, error) {
	hashed, err := password.GetHash(raw)
	if errors.Is(err, password.ErrTooLong) {
		return "", apperr.Validation(MsgPasswordTooLong)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hashed, nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResult, error) {
	const op = "services.auth.issue"
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{Token: token, User: user}, nil
}

func publicUser(u *models.User) *models.User {
	out := *u
	out.PasswordHash = ""
	return &out
}
