// Package password хеширует пароли пользователей и сверяет их с сохранённым bcrypt-хешем.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost стоимость bcrypt, тесты могут понизить её.
var Cost = bcrypt.DefaultCost

// MaxLength предел длины пароля в байтах, дальше bcrypt не принимает.
const MaxLength = 72

// ErrTooLong пароль длиннее MaxLength байт.
var ErrTooLong = bcrypt.ErrPasswordTooLong

// GetHash возвращает bcrypt-хеш пароля для хранения в базе.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash возвращает nil, если пароль соответствует хешу.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
