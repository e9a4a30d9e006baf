// Package apperr описывает классы ошибок приложения. Сервисы и хранилище
// возвращают их обёрнутыми через %w, HTTP-слой сопоставляет класс со статусом ответа.
package apperr

import (
	"errors"
)

var (
	// ErrValidation некорректные входные данные.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized отсутствующий или недействительный токен, неверные учетные данные.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden недостаточно прав.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState операция недопустима в текущем состоянии записи.
	ErrInvalidState = errors.New("invalid state")
)

// Error связывает класс ошибки с сообщением для клиента.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Validation возвращает ошибку класса ErrValidation.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// Unauthorized возвращает ошибку класса ErrUnauthorized.
func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// Forbidden возвращает ошибку класса ErrForbidden.
func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// NotFound возвращает ошибку класса ErrNotFound.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// InvalidState возвращает ошибку класса ErrInvalidState.
func InvalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

// Message достаёт из цепочки сообщение для клиента. Для ошибок без класса
// возвращает пустую строку: их текст наружу не отдаётся.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return ""
}
