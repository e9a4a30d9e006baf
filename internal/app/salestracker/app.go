package salestracker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/sales-tracker/internal/cache"
	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/events"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	"github.com/magabrotheeeer/sales-tracker/internal/migrations"
	authservice "github.com/magabrotheeeer/sales-tracker/internal/services/auth"
	saleservice "github.com/magabrotheeeer/sales-tracker/internal/services/sale"
	userservice "github.com/magabrotheeeer/sales-tracker/internal/services/user"
	"github.com/magabrotheeeer/sales-tracker/internal/storage/repository"
)

// App HTTP-сервер вместе с ресурсами, которые нужно закрыть при остановке.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	publisher events.Publisher
}

// New подключает хранилище, применяет миграции, подключает Redis и RabbitMQ
// и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Суммы в JSON отдаются числами.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	publisher, err := events.New(cfg.RabbitMQ)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}
	if _, ok := publisher.(events.Noop); ok {
		logger.Warn("rabbitmq url is empty, sale events are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	m := metrics.New(prometheus.DefaultRegisterer)

	authService := authservice.NewAuthService(db, jwtMaker, logger)
	userService := userservice.NewUserService(db, authService, logger)
	saleService := saleservice.NewSaleService(db, db, cacheRedis, publisher, m, cfg.Redis.CacheTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, m, Services{
		Auth:  authService,
		Users: userService,
		Sales: saleService,
		DB:    db,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		publisher: publisher,
	}, nil
}

// Run запускает сервер и ждёт отмены ctx, после чего останавливает его за 15 секунд.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis client", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
