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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Selection   SelectionConfig
	Pinning     PinningConfig
	Assignments AssignmentsConfig
	Letters     LettersConfig
	Logbook     LogbookConfig
	Mail        MailConfig
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
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SelectionConfig tunes the school selection workflow.
type SelectionConfig struct {
	// PendingTTL bounds how long an unconfirmed selection holds a seat.
	PendingTTL time.Duration
	// SweepInterval is how often expired pending selections are reclaimed.
	SweepInterval time.Duration
	// FailOpenNoActiveYear treats every region and school as unpinned when no
	// academic year is active. When false, pin checks fail closed instead.
	FailOpenNoActiveYear bool
	AvailabilityCacheTTL time.Duration
}

// PinningConfig gates the region/school pinning admin endpoints.
type PinningConfig struct {
	Enabled bool
}

// AssignmentsConfig tunes assessor assignment processing.
type AssignmentsConfig struct {
	WorkerConcurrency int
	WorkerMaxAttempts int
	NotifyAssessors   bool
}

// LettersConfig controls approval letter generation and archiving.
type LettersConfig struct {
	Enabled    bool
	GroupQuota int
	// StorageDir is where rendered letters are archived for signed downloads.
	StorageDir string
	// DownloadTTL bounds how long a signed download token stays valid.
	DownloadTTL time.Duration
	// SigningSecret signs download tokens; falls back to the JWT secret.
	SigningSecret string
}

// LogbookConfig controls logbook submission and location verification.
type LogbookConfig struct {
	Enabled              bool
	LocationRadiusMeters float64
}

// MailConfig configures outbound email delivery.
type MailConfig struct {
	SendgridAPIKey string
	FromName       string
	FromAddress    string
	LoginURL       string
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
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Selection = SelectionConfig{
		PendingTTL:           parseDuration(v.GetString("SELECTION_PENDING_TTL"), 30*time.Minute),
		SweepInterval:        parseDuration(v.GetString("SELECTION_SWEEP_INTERVAL"), time.Minute),
		FailOpenNoActiveYear: v.GetBool("SELECTION_FAIL_OPEN_NO_ACTIVE_YEAR"),
		AvailabilityCacheTTL: parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), time.Minute),
	}

	cfg.Pinning = PinningConfig{
		Enabled: v.GetBool("ENABLE_PINNING"),
	}

	cfg.Assignments = AssignmentsConfig{
		WorkerConcurrency: v.GetInt("ASSIGNMENTS_WORKER_CONCURRENCY"),
		WorkerMaxAttempts: v.GetInt("ASSIGNMENTS_WORKER_MAX_ATTEMPTS"),
		NotifyAssessors:   v.GetBool("ASSIGNMENTS_NOTIFY_ASSESSORS"),
	}

	cfg.Letters = LettersConfig{
		Enabled:       v.GetBool("ENABLE_LETTERS"),
		GroupQuota:    v.GetInt("LETTERS_GROUP_QUOTA"),
		StorageDir:    v.GetString("LETTERS_STORAGE_DIR"),
		DownloadTTL:   parseDuration(v.GetString("LETTERS_DOWNLOAD_TTL"), 24*time.Hour),
		SigningSecret: v.GetString("LETTERS_SIGNING_SECRET"),
	}

	cfg.Logbook = LogbookConfig{
		Enabled:              v.GetBool("ENABLE_LOGBOOK"),
		LocationRadiusMeters: v.GetFloat64("LOGBOOK_LOCATION_RADIUS_METERS"),
	}

	cfg.Mail = MailConfig{
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		LoginURL:       v.GetString("MAIL_LOGIN_URL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "field_placement")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SELECTION_PENDING_TTL", "30m")
	v.SetDefault("SELECTION_SWEEP_INTERVAL", "1m")
	v.SetDefault("SELECTION_FAIL_OPEN_NO_ACTIVE_YEAR", true)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "1m")

	v.SetDefault("ENABLE_PINNING", true)

	v.SetDefault("ASSIGNMENTS_WORKER_CONCURRENCY", 2)
	v.SetDefault("ASSIGNMENTS_WORKER_MAX_ATTEMPTS", 4)
	v.SetDefault("ASSIGNMENTS_NOTIFY_ASSESSORS", true)

	v.SetDefault("ENABLE_LETTERS", true)
	v.SetDefault("LETTERS_GROUP_QUOTA", 5)
	v.SetDefault("LETTERS_STORAGE_DIR", "./letters")
	v.SetDefault("LETTERS_DOWNLOAD_TTL", "24h")
	v.SetDefault("LETTERS_SIGNING_SECRET", "")

	v.SetDefault("ENABLE_LOGBOOK", true)
	v.SetDefault("LOGBOOK_LOCATION_RADIUS_METERS", 500)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Field Placement Office")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@placement.local")
	v.SetDefault("MAIL_LOGIN_URL", "http://localhost:8080/login")
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
