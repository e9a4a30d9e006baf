// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// роли пользователя и ограничения частоты запросов.
//
// JWTMiddleware проверяет токен из заголовка Authorization, загружает пользователя
// и кладёт его в контекст запроса. AdminOnly пропускает только администраторов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ для пользователя в контексте.
const User Key = "user"

// Сообщения об ошибках доступа.
const (
	MsgNoToken    = "Not authorized, no token provided"
	MsgAdminsOnly = "Access denied, admin only"
)

// Authenticator описывает сервис, который проверяет токен и возвращает пользователя.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, User, user)
}

// UserFromContext достаёт пользователя, положенного JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(User).(*models.User)
	return user, ok && user != nil
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден и пользователь существует, пользователь добавляется в контекст,
// иначе возвращается 401 Unauthorized.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if !strings.HasPrefix(authHeader, "Bearer ") || tokenStr == "" {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(MsgNoToken))
				return
			}

			user, err := auth.Authenticate(r.Context(), tokenStr)
			if err != nil {
				log.Warn("authentication failed", sl.Err(err))
				response.RenderError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// AdminOnly пропускает запрос дальше, только если в контексте администратор.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("admin gate reached without authenticated user",
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.RenderError(w, r, apperr.Unauthorized(MsgNoToken))
				return
			}
			if !user.IsAdmin() {
				log.Warn("access denied",
					slog.String("user_id", user.ID),
					slog.String("role", user.Role),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.RenderError(w, r, apperr.Forbidden(MsgAdminsOnly))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
