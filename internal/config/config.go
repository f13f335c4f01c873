// Package config provides centralized configuration management.
// All configuration is loaded from environment variables with sensible defaults.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Convert  ConvertConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Locale   LocaleConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:""`
	Port            int           `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds the recent-files database settings. An empty URL
// keeps recent lists in memory.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
	MigrateOnStart  bool          `env:"DB_MIGRATE_ON_START" default:"true"`
}

// ConvertConfig holds conversion and tool job settings.
type ConvertConfig struct {
	MaxInputSize      int64         `env:"CONVERT_MAX_INPUT_SIZE" default:"10485760"`  // 10MB of text
	MaxUploadSize     int64         `env:"CONVERT_MAX_UPLOAD_SIZE" default:"52428800"` // 50MB per tool upload
	MaxConcurrentJobs int           `env:"CONVERT_MAX_CONCURRENT_JOBS" default:"4"`
	MaxWaitTime       time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"10s"`
	JobTimeout        time.Duration `env:"CONVERT_JOB_TIMEOUT" default:"2m"`
	DefaultIndent     int           `env:"CONVERT_DEFAULT_INDENT" default:"2"`
	DefaultTableName  string        `env:"CONVERT_DEFAULT_TABLE_NAME"`
	DarkOpacity       float64       `env:"CONVERT_DARK_OPACITY" default:"0.85"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_RPM" default:"120"`
	Burst             int  `env:"RATE_LIMIT_BURST" default:"20"`
	ToolsPerMinute    int  `env:"RATE_LIMIT_TOOLS_RPM" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	TrustedProxies []string `env:"TRUSTED_PROXIES" default:""`
	EnableCSP      bool     `env:"ENABLE_CSP" default:"true"`
	SecureCookies  bool     `env:"SECURE_COOKIES" default:"false"`
	RequireAPIKey  bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys        []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// LocaleConfig holds the locales served by the web interface.
type LocaleConfig struct {
	Default   string   `env:"LOCALE_DEFAULT" default:"en"`
	Supported []string `env:"LOCALE_SUPPORTED" default:"en,es,fr,de,pt,it,ja,zh"`
}

// HistoryConfig holds recent-files list settings.
type HistoryConfig struct {
	Capacity      int           `env:"HISTORY_CAPACITY" default:"5"`
	Retention     time.Duration `env:"HISTORY_RETENTION" default:"720h"`
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" default:"24h"`
	SQLitePath    string        `env:"HISTORY_SQLITE_PATH" default:""`
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// Persistent reports whether recent lists go to PostgreSQL.
func (c *DatabaseConfig) Persistent() bool {
	return c.URL != ""
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}
