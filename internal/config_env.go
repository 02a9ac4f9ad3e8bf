package internal

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfigFromEnv builds the configuration from environment variables,
// used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              envInt("SERVER_PORT", 8080),
			BaseURL:           envString("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    envString("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: envDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          envString("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    envString("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   envString("REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  envDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: envDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           envInt("BCRYPT_COST", 12),
		},
		Storage: StorageConfig{
			Type:      envString("STORAGE_TYPE", "local"),
			LocalPath: envString("STORAGE_LOCAL_PATH", "uploads"),
			S3Bucket:  envString("STORAGE_S3_BUCKET", ""),
			S3Region:  envString("STORAGE_S3_REGION", ""),
		},
		Mail: MailConfig{
			Enabled:    envBool("MAIL_ENABLED", false),
			Host:       envString("MAIL_HOST", ""),
			Port:       envInt("MAIL_PORT", 587),
			Username:   envString("MAIL_USERNAME", ""),
			Password:   envString("MAIL_PASSWORD", ""),
			From:       envString("MAIL_FROM", ""),
			AdminAddrs: envList("MAIL_ADMIN_ADDRS"),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: envBool("METRICS_ENABLED", true),
				Path:    envString("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  envString("LOG_LEVEL", "info"),
				Format: envString("LOG_FORMAT", "json"),
			},
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
