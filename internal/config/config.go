package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration.
// Giá trị lấy từ file YAML (APP_CONFIG_FILE, optional) rồi bị override bởi environment variables.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Email     EmailConfig
	MinIO     MinIOConfig
	Fine      FineConfig
	Loan      LoanConfig
	RateLimit RateLimitConfig
	Jobs      JobConfig
}

type AppConfig struct {
	Name           string
	Environment    string // development, staging, production
	Port           string
	Version        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// AuthConfig chọn AuthProvider lúc startup.
type AuthConfig struct {
	Provider          string // supabase | local
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort string
	From     string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// =====================================================
// FINE POLICY
// =====================================================

// FineConfig là canonical fine policy. MaxFine = 0 nghĩa là không giới hạn.
type FineConfig struct {
	DailyRate       decimal.Decimal
	MaxFine         decimal.Decimal
	GracePeriodDays int
}

type LoanConfig struct {
	DefaultPeriodDays int
	ReservationDays   int
	DueSoonDays       int
	MemberTermDays    int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// JobConfig chứa cron spec cho scheduled jobs của worker.
type JobConfig struct {
	OverdueSweepCron       string
	DueReminderCron        string
	ReservationExpiryCron  string
	MembershipReminderCron string
}

// Load đọc config: defaults -> YAML overlay -> environment variables.
func Load() (*Config, error) {
	file, err := loadFile(os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", file.App.Name, "Library Lite API"),
			Environment:    getEnv("APP_ENV", file.App.Environment, "development"),
			Port:           getEnv("APP_PORT", file.App.Port, "8080"),
			Version:        getEnv("APP_VERSION", file.App.Version, "1.0.0"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", strings.Join(file.App.AllowedOrigins, ","), "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", file.Database.Host, "localhost"),
			Port:        getEnvInt("DB_PORT", file.Database.Port, 5432),
			User:        getEnv("DB_USER", file.Database.User, "postgres"),
			Password:    getEnv("DB_PASSWORD", file.Database.Password, ""),
			Database:    getEnv("DB_NAME", file.Database.Name, "library_lite"),
			SSLMode:     getEnv("DB_SSLMODE", file.Database.SSLMode, "disable"),
			MaxConns:    getEnvInt("DB_MAX_CONNS", file.Database.MaxConns, 25),
			MinConns:    getEnvInt("DB_MIN_CONNS", file.Database.MinConns, 5),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", file.Database.AutoMigrate),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", file.Redis.Host, "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", file.Redis.Password, ""),
			DB:       getEnvInt("REDIS_DB", file.Redis.DB, 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", file.JWT.Secret, defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", file.JWT.AccessExpiry, 60),
		},
		Auth: AuthConfig{
			Provider:          getEnv("AUTH_PROVIDER", file.Auth.Provider, ""),
			SupabaseURL:       getEnv("SUPABASE_URL", file.Auth.SupabaseURL, ""),
			SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", file.Auth.SupabaseAnonKey, ""),
			SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", file.Auth.SupabaseJWTSecret, ""),
		},
		Email: EmailConfig{
			SMTPHost: getEnv("SMTP_HOST", file.Email.SMTPHost, "localhost"),
			SMTPPort: getEnv("SMTP_PORT", file.Email.SMTPPort, "1025"),
			From:     getEnv("EMAIL_FROM", file.Email.From, "noreply@librarylite.dev"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", file.MinIO.Endpoint, "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", file.MinIO.AccessKey, "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", file.MinIO.SecretKey, "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", file.MinIO.Bucket, "library"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", file.MinIO.UseSSL),
		},
		Loan: LoanConfig{
			DefaultPeriodDays: getEnvInt("LOAN_PERIOD_DAYS", file.Loan.PeriodDays, 14),
			ReservationDays:   getEnvInt("RESERVATION_DAYS", file.Loan.ReservationDays, 7),
			DueSoonDays:       getEnvInt("LOAN_DUE_SOON_DAYS", file.Loan.DueSoonDays, 2),
			MemberTermDays:    getEnvInt("MEMBER_TERM_DAYS", file.Loan.MemberTermDays, 30),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", file.RateLimit.Requests, 120),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", file.RateLimit.Window, time.Minute),
		},
		Jobs: JobConfig{
			OverdueSweepCron:       getEnv("JOB_OVERDUE_SWEEP_CRON", file.Jobs.OverdueSweep, "0 * * * *"),
			DueReminderCron:        getEnv("JOB_DUE_REMINDER_CRON", file.Jobs.DueReminder, "0 8 * * *"),
			ReservationExpiryCron:  getEnv("JOB_RESERVATION_EXPIRY_CRON", file.Jobs.ReservationExpiry, "30 * * * *"),
			MembershipReminderCron: getEnv("JOB_MEMBERSHIP_REMINDER_CRON", file.Jobs.MembershipReminder, "0 9 * * *"),
		},
	}

	fine, err := loadFine(file.Fine)
	if err != nil {
		return nil, err
	}
	cfg.Fine = fine

	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = "local"
		if cfg.Auth.SupabaseURL != "" && cfg.Auth.SupabaseAnonKey != "" {
			cfg.Auth.Provider = "supabase"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func loadFine(file fileFine) (FineConfig, error) {
	rate, err := decimal.NewFromString(getEnv("FINE_DAILY_RATE", file.DailyRate, "5.00"))
	if err != nil {
		return FineConfig{}, fmt.Errorf("invalid FINE_DAILY_RATE: %w", err)
	}
	maxFine, err := decimal.NewFromString(getEnv("FINE_MAX", file.MaxFine, "0"))
	if err != nil {
		return FineConfig{}, fmt.Errorf("invalid FINE_MAX: %w", err)
	}
	return FineConfig{
		DailyRate:       rate,
		MaxFine:         maxFine,
		GracePeriodDays: getEnvInt("FINE_GRACE_DAYS", file.GracePeriodDays, 0),
	}, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.Fine.DailyRate.IsNegative() || c.Fine.MaxFine.IsNegative() || c.Fine.GracePeriodDays < 0 {
		return fmt.Errorf("fine policy values must not be negative")
	}
	if c.Loan.DefaultPeriodDays <= 0 || c.Loan.ReservationDays <= 0 {
		return fmt.Errorf("loan and reservation periods must be positive")
	}

	switch c.Auth.Provider {
	case "local":
	case "supabase":
		if c.Auth.SupabaseURL == "" || c.Auth.SupabaseAnonKey == "" || c.Auth.SupabaseJWTSecret == "" {
			return fmt.Errorf("SUPABASE_URL, SUPABASE_ANON_KEY and SUPABASE_JWT_SECRET are required for the supabase auth provider")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.Auth.Provider)
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// =====================================================
// HELPERS
// =====================================================

func getEnv(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func getEnvInt(key string, fileValue, defaultValue int) int {
	if fileValue != 0 {
		defaultValue = fileValue
	}
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, fileValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fileValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fileValue
	}
	return value
}

func getEnvDuration(key, fileValue string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, fileValue, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
