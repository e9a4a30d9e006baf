// Package cache хранит JSON-представления записей в Redis с ограниченным временем жизни.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/sales-tracker/internal/config"
)

// Cache обёртка над клиентом Redis.
type Cache struct {
	Db *redis.Client
}

// New подключается к Redis и проверяет соединение.
func New(ctx context.Context, cfg config.Redis) (*Cache, error) {
	const op = "cache.New"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение по ключу в result. Возвращает false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение в JSON с временем жизни expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Запись пропускается, если в кеше уже лежит JSON с полем version не меньше ARGV[2].
// ARGV[3] время жизни в миллисекундах, 0 означает запись без срока.
var setIfNewerScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and type(decoded) == 'table' then
		local version = tonumber(decoded['version'])
		if version and version >= tonumber(ARGV[2]) then
			return 0
		end
	end
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// SetIfNewer сохраняет value, только если закешированная запись старее version.
// Возвращает false, когда в кеше уже есть запись той же или более новой версии.
// value должен сериализоваться в JSON-объект с полем version.
func (c *Cache) SetIfNewer(ctx context.Context, key string, value any, version int, expiration time.Duration) (bool, error) {
	const op = "cache.SetIfNewer"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	stored, err := setIfNewerScript.Run(ctx, c.Db, []string{key}, jsonData, version, expiration.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return stored == 1, nil
}

// Invalidate удаляет ключ.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	const op = "cache.Invalidate"
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает клиент.
func (c *Cache) Close() error {
	return c.Db.Close()
}
