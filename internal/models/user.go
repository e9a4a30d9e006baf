// Package models содержит доменные модели сервиса: пользователей, продажи,
// историю платежей, параметры фильтрации и агрегированную аналитику.
// Структуры используются в бизнес‑логике, хранилище и HTTP-слое.
package models

import (
	"strings"
	"time"
)

const (
	// RoleAdmin роль администратора.
	RoleAdmin = "admin"
	// RoleUser роль по умолчанию.
	RoleUser = "user"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // никогда не отдаётся наружу
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin сравнивает роль без учёта регистра.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}

// NormalizeRole приводит роль к нижнему регистру, пустая роль становится RoleUser.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleUser
	}
	return role
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest данные регистрации.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin user Admin User ADMIN USER"`
}

// LoginRequest учетные данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest изменяемые поля профиля, пустые поля не меняются.
type UpdateProfileRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

// AuthResult ответ на успешную регистрацию или вход.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
