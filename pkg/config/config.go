package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Portal       PortalConfig
	Outings      OutingsConfig
	Attestations AttestationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PortalConfig carries association-wide settings. Timezone is the single
// civil time zone every date computation in the portal uses (school-year
// bounds, attendance days, calendar views); it is resolved once at startup.
type PortalConfig struct {
	Timezone        string
	AssociationName string
}

// OutingsConfig tunes the outing/consent subsystem.
type OutingsConfig struct {
	SignedCountsCacheTTL time.Duration
	ReminderTemplate     string
}

// AttestationsConfig controls consent attestation rendering and batch exports.
type AttestationsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Portal = PortalConfig{
		Timezone:        v.GetString("PORTAL_TIMEZONE"),
		AssociationName: v.GetString("PORTAL_ASSOCIATION_NAME"),
	}

	cfg.Outings = OutingsConfig{
		SignedCountsCacheTTL: parseDuration(v.GetString("OUTINGS_SIGNED_COUNTS_TTL"), 5*time.Minute),
		ReminderTemplate:     v.GetString("OUTINGS_REMINDER_TEMPLATE"),
	}

	cfg.Attestations = AttestationsConfig{
		Enabled:           v.GetBool("ENABLE_ATTESTATIONS"),
		StorageDir:        v.GetString("ATTESTATIONS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("ATTESTATIONS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("ATTESTATIONS_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("ATTESTATIONS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("ATTESTATIONS_WORKER_RETRIES"),
	}

	return cfg, nil
}

// Location resolves the configured portal time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Portal.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "parent_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PORTAL_TIMEZONE", "Europe/Paris")
	v.SetDefault("PORTAL_ASSOCIATION_NAME", "Stains Espoir")

	v.SetDefault("OUTINGS_SIGNED_COUNTS_TTL", "5m")
	v.SetDefault("OUTINGS_REMINDER_TEMPLATE", "")

	v.SetDefault("ENABLE_ATTESTATIONS", true)
	v.SetDefault("ATTESTATIONS_STORAGE_DIR", "./attestations")
	v.SetDefault("ATTESTATIONS_SIGNED_URL_SECRET", "dev_attestations_secret")
	v.SetDefault("ATTESTATIONS_SIGNED_URL_TTL", "24h")
	v.SetDefault("ATTESTATIONS_WORKER_CONCURRENCY", 1)
	v.SetDefault("ATTESTATIONS_WORKER_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
