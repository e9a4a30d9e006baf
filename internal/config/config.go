// Package config предоставляет структуры и функции для загрузки конфига.
// Значения читаются из YAML-файла, переменные окружения имеют приоритет,
// локальный .env подхватывается до чтения конфига.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string     `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string     `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string     `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              HTTPServer `yaml:"http_server"`
	Redis                   Redis      `yaml:"redis"`
	JWT                     JWT        `yaml:"jwt"`
	RabbitMQ                RabbitMQ   `yaml:"rabbitmq"`
	RateLimit               RateLimit  `yaml:"rate_limit"`
	CORS                    CORS       `yaml:"cors"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Redis структура для настройки подключения к redis
type Redis struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"1h"`
}

// JWT структура для работы с jwt-токеном
type JWT struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"720h"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"sales"`
	Retries    int           `yaml:"retries" env:"RABBITMQ_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// RateLimit ограничение числа запросов с одного адреса.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// CORS список разрешённых источников.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load читает конфиг из файла path с учётом переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", op, path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает .env (если есть) и конфиг по пути из CONFIG_PATH.
// При ошибке завершает процесс.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("cannot load .env: %s", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Address: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"  CacheTTL: %s\n"+
			"JWT:\n"+
			"  Secret: %s\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"  Exchange: %s\n"+
			"RateLimit: %.2f rps, burst %d\n",
		c.Env,
		c.MigrationsPath,
		c.HTTPServer.Address,
		c.HTTPServer.Timeout,
		c.HTTPServer.IdleTimeout,
		c.Redis.Address,
		mask(c.Redis.Password),
		c.Redis.DB,
		c.Redis.CacheTTL,
		mask(c.JWT.Secret),
		c.JWT.TokenTTL,
		c.RabbitMQ.URL != "",
		c.RabbitMQ.Exchange,
		c.RateLimit.RPS,
		c.RateLimit.Burst,
	)
}
