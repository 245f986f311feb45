package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	aws_pkg "readify/pkg/aws"
)

// Config holds all configuration for the readify service.
type Config struct {
	Env  string
	Port string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	JWTSecret    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieDomain string
	CookieSecure bool

	AllowedOrigins []string

	MediaBucket        string
	MediaPublicBaseURL string
	EventsTopicARN     string
	OrderEventsQueue   string
	StockTable         string
	CloudWatchEnabled  bool
	CloudWatchLogGroup string
	MetricsNamespace   string

	CartTTL         time.Duration
	CacheTTL        time.Duration
	GuardTTL        time.Duration
	LowStockDefault int
}

// PostgresDSN builds the gorm postgres DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

// Load reads configuration from the environment (and .env when present). When
// AWS_USE_SECRETS=true, DB credentials and the JWT secret are overridden from
// Secrets Manager; lookup failures there fall back to the environment.
func Load(ctx context.Context, secrets aws_pkg.SecretGetter) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file found, using process environment")
	}

	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Ho_Chi_Minh"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTTL:    getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:   getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieDomain: os.Getenv("COOKIE_DOMAIN"),
		CookieSecure: getBool("COOKIE_SECURE", false),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		MediaBucket:        getEnv("MEDIA_BUCKET", "readify-media"),
		MediaPublicBaseURL: os.Getenv("MEDIA_PUBLIC_BASE_URL"),
		EventsTopicARN:     os.Getenv("EVENTS_SNS_TOPIC_ARN"),
		OrderEventsQueue:   os.Getenv("ORDER_EVENTS_QUEUE_URL"),
		StockTable:         getEnv("STOCK_TABLE", "readify-stock"),
		CloudWatchEnabled:  getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchLogGroup: os.Getenv("CLOUDWATCH_LOG_GROUP"),
		MetricsNamespace:   getEnv("CLOUDWATCH_NAMESPACE", "Readify"),

		CartTTL:         getDuration("CART_TTL", 7*24*time.Hour),
		CacheTTL:        getDuration("CACHE_TTL", 10*time.Minute),
		GuardTTL:        getDuration("ITEM_GUARD_TTL", 5*time.Second),
		LowStockDefault: getInt("LOW_STOCK_THRESHOLD", 5),
	}

	if getBool("AWS_USE_SECRETS", false) && secrets != nil {
		applySecrets(ctx, cfg, secrets)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applySecrets(ctx context.Context, cfg *Config, secrets aws_pkg.SecretGetter) {
	if m, err := aws_pkg.GetJSONSecret(ctx, secrets, "readify/DB_CREDENTIALS"); err == nil {
		overrides := map[string]*string{
			"POSTGRES_USER":     &cfg.PostgresUser,
			"POSTGRES_PASSWORD": &cfg.PostgresPassword,
			"POSTGRES_DB":       &cfg.PostgresDB,
			"POSTGRES_HOST":     &cfg.PostgresHost,
			"POSTGRES_PORT":     &cfg.PostgresPort,
		}
		for key, dst := range overrides {
			if v := m[key]; v != "" {
				*dst = v
			}
		}
	} else {
		zap.L().Warn("DB credentials secret unavailable, using environment", zap.Error(err))
	}

	if jwt, err := secrets.GetSecret(ctx, "readify/JWT_SECRET"); err == nil && jwt != "" {
		cfg.JWTSecret = strings.TrimSpace(jwt)
	} else if err != nil {
		zap.L().Warn("JWT secret unavailable, using environment", zap.Error(err))
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{"JWT_SECRET", c.JWTSecret},
		{"POSTGRES_USER", c.PostgresUser},
		{"POSTGRES_PASSWORD", c.PostgresPassword},
		{"POSTGRES_DB", c.PostgresDB},
		{"POSTGRES_HOST", c.PostgresHost},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSuffix(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
