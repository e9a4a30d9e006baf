// Package sl содержит вспомогательные функции для формирования
// структурированных полей лога slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to record payment", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Op поле с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
