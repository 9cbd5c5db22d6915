package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig là layout của file YAML optional (APP_CONFIG_FILE).
// Mọi field đều có thể bỏ trống; environment variables luôn được ưu tiên.
type fileConfig struct {
	App struct {
		Name           string   `yaml:"name"`
		Environment    string   `yaml:"environment"`
		Port           string   `yaml:"port"`
		Version        string   `yaml:"version"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"app"`
	Database struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		User        string `yaml:"user"`
		Password    string `yaml:"password"`
		Name        string `yaml:"dbname"`
		SSLMode     string `yaml:"sslmode"`
		MaxConns    int    `yaml:"max_conns"`
		MinConns    int    `yaml:"min_conns"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`
	Redis struct {
		Host     string `yaml:"host"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	JWT struct {
		Secret       string `yaml:"secret"`
		AccessExpiry int    `yaml:"access_expiry_minutes"`
	} `yaml:"jwt"`
	Auth struct {
		Provider          string `yaml:"provider"`
		SupabaseURL       string `yaml:"supabase_url"`
		SupabaseAnonKey   string `yaml:"supabase_anon_key"`
		SupabaseJWTSecret string `yaml:"supabase_jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort string `yaml:"smtp_port"`
		From     string `yaml:"from"`
	} `yaml:"email"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
	Fine fileFine `yaml:"fine"`
	Loan struct {
		PeriodDays      int `yaml:"period_days"`
		ReservationDays int `yaml:"reservation_days"`
		DueSoonDays     int `yaml:"due_soon_days"`
		MemberTermDays  int `yaml:"member_term_days"`
	} `yaml:"loan"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
	Jobs struct {
		OverdueSweep       string `yaml:"overdue_sweep"`
		DueReminder        string `yaml:"due_reminder"`
		ReservationExpiry  string `yaml:"reservation_expiry"`
		MembershipReminder string `yaml:"membership_reminder"`
	} `yaml:"jobs"`
}

type fileFine struct {
	DailyRate       string `yaml:"daily_rate"`
	MaxFine         string `yaml:"max_fine"`
	GracePeriodDays int    `yaml:"grace_period_days"`
}

// loadFile đọc YAML overlay. Path rỗng trả về config rỗng.
func loadFile(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
