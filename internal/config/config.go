package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var (
	ErrReadConfig    = errors.New("config: failed to read config file")
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config корневая конфигурация сервиса
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Logs       LogsConfig       `toml:"logs"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Admission  AdmissionConfig  `toml:"admission"`
	Migrations MigrationsConfig `toml:"migrations"`
}

type ServerConfig struct {
	HTTPPort        int      `toml:"http_port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	IdleTimeout     int      `toml:"idle_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// ScheduleConfig настройки генерации слотов и управления правилами
type ScheduleConfig struct {
	Timezone             string `toml:"timezone"`
	MaxRangeDays         int    `toml:"max_range_days"`
	RejectPartialWindows bool   `toml:"reject_partial_windows"`
	RuleCacheEnabled     bool   `toml:"rule_cache_enabled"`
	RuleCacheTTLSeconds  int    `toml:"rule_cache_ttl_seconds"`
}

// Location возвращает часовой пояс расписания
func (s ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// RuleCacheTTL время жизни записи кэша правил, ноль отключает истечение
func (s ScheduleConfig) RuleCacheTTL() time.Duration {
	return time.Duration(s.RuleCacheTTLSeconds) * time.Second
}

// AdmissionConfig настройки резервирования слотов
type AdmissionConfig struct {
	TxTimeoutMs          int    `toml:"tx_timeout_ms"`
	HoldTTLMinutes       int    `toml:"hold_ttl_minutes"`
	SerializationRetries int    `toml:"serialization_retries"`
	SweepCron            string `toml:"sweep_cron"`
}

func (a AdmissionConfig) TxTimeout() time.Duration {
	return time.Duration(a.TxTimeoutMs) * time.Millisecond
}

func (a AdmissionConfig) HoldTTL() time.Duration {
	return time.Duration(a.HoldTTLMinutes) * time.Minute
}

type MigrationsConfig struct {
	AutoApply bool `toml:"auto_apply"`
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "availability",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "smc-availability-service",
		},
		Schedule: ScheduleConfig{
			Timezone:            "UTC",
			MaxRangeDays:        62,
			RuleCacheTTLSeconds: 30,
		},
		Admission: AdmissionConfig{
			TxTimeoutMs:          3000,
			HoldTTLMinutes:       15,
			SerializationRetries: 1,
			SweepCron:            "@every 1m",
		},
	}
}

// Load читает toml файл поверх значений по умолчанию и применяет переменные окружения.
// Файл .env рядом с процессом подхватывается, если существует.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReadConfig, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("%w: schedule.timezone: %w", ErrInvalidConfig, err)
	}
	if c.Schedule.MaxRangeDays <= 0 {
		return fmt.Errorf("%w: schedule.max_range_days must be positive", ErrInvalidConfig)
	}
	if c.Schedule.RuleCacheTTLSeconds < 0 {
		return fmt.Errorf("%w: schedule.rule_cache_ttl_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Admission.TxTimeoutMs <= 0 {
		return fmt.Errorf("%w: admission.tx_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Admission.HoldTTLMinutes <= 0 {
		return fmt.Errorf("%w: admission.hold_ttl_minutes must be positive", ErrInvalidConfig)
	}
	if c.Admission.SerializationRetries < 0 {
		return fmt.Errorf("%w: admission.serialization_retries must not be negative", ErrInvalidConfig)
	}
	if c.Admission.SweepCron == "" {
		return fmt.Errorf("%w: admission.sweep_cron is required", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Database.Host, "DB_HOST")
	overrideString(&c.Database.User, "DB_USER")
	overrideString(&c.Database.Password, "DB_PASSWORD")
	overrideString(&c.Database.DBName, "DB_NAME")
	overrideString(&c.Database.SSLMode, "DB_SSLMODE")
	overrideString(&c.Logs.Level, "LOG_LEVEL")
	overrideString(&c.Logs.File, "LOG_FILE")
	overrideString(&c.Schedule.Timezone, "SCHEDULE_TIMEZONE")

	if err := overrideInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := overrideInt(&c.Server.HTTPPort, "HTTP_PORT"); err != nil {
		return err
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}
