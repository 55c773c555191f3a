package config

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration. Redis is optional; when disabled
// the velocity check counts straight from Postgres.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// VelocityLimitConfig holds the velocity window for one activity type
type VelocityLimitConfig struct {
	MaxCount      int `mapstructure:"max_count"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// RiskConfig holds risk engine configuration
type RiskConfig struct {
	// Score thresholds on the 0-100 scale
	RiskyThreshold int `mapstructure:"risky_threshold"`
	BlockThreshold int `mapstructure:"block_threshold"`

	// FailClosed turns check and persistence failures into evaluation
	// errors instead of degraded scores
	FailClosed bool `mapstructure:"fail_closed"`

	EvaluationTimeout time.Duration `mapstructure:"evaluation_timeout"`

	// Velocity limits keyed by activity type
	Velocity map[string]VelocityLimitConfig `mapstructure:"velocity"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "risk_user",
			Password:        "",
			Name:            "risk_engine",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Risk: RiskConfig{
			RiskyThreshold:    60,
			BlockThreshold:    95,
			FailClosed:        false,
			EvaluationTimeout: 5 * time.Second,
			Velocity: map[string]VelocityLimitConfig{
				"LOGIN":       {MaxCount: 10, WindowMinutes: 60},
				"PAYMENT":     {MaxCount: 5, WindowMinutes: 30},
				"ORDER_PLACE": {MaxCount: 20, WindowMinutes: 60},
				"WITHDRAWAL":  {MaxCount: 3, WindowMinutes: 120},
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
