package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"spa_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port        string
	GinMode     string
	ServiceName string
	LogLevel    string
	LogPretty   bool

	DatabaseURL        string
	DBSchemaPath       string
	DBMaxOpenConns     int
	CORSAllowedOrigins []string

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	Location           *time.Location
	AutoAssignStrategy string

	Notify NotifyConfig
	Mail   MailConfig
	MoMo   MoMoConfig
}

type NotifyConfig struct {
	EmailProvider string
	SMSProvider   string
	WebhookURL    string
	WebhookToken  string
	Interval      time.Duration
	BatchSize     int
	MaxAttempts   int
}

type MailConfig struct {
	Server        string
	Port          int
	Username      string
	Password      string
	DefaultSender string
}

type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
}

// Enabled reports whether enough gateway settings are present to sign requests.
func (m MoMoConfig) Enabled() bool {
	return m.PartnerCode != "" && m.AccessKey != "" && m.SecretKey != "" && m.Endpoint != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:           utils.Getenv("PORT", "8080"),
		GinMode:        utils.Getenv("GIN_MODE", "debug"),
		ServiceName:    utils.Getenv("SERVICE_NAME", "spa-backend"),
		LogLevel:       utils.Getenv("LOG_LEVEL", "info"),
		LogPretty:      utils.GetenvBool("LOG_PRETTY", true),
		DatabaseURL:    databaseURL(),
		DBSchemaPath:   utils.Getenv("DB_SCHEMA_PATH", ""),
		DBMaxOpenConns: utils.GetenvInt("DB_MAX_OPEN_CONNS", 20),
		CORSAllowedOrigins: splitList(utils.Getenv("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://localhost:5173")),
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
		JWTAccessTTL:       utils.GetenvDuration("JWT_ACCESS_TTL", 24*time.Hour),
		JWTRefreshTTL:      utils.GetenvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		AutoAssignStrategy: strings.ToLower(utils.Getenv("AUTO_ASSIGN_STRATEGY", "random")),
		Notify: NotifyConfig{
			EmailProvider: utils.Getenv("NOTIFY_EMAIL_PROVIDER", "log"),
			SMSProvider:   utils.Getenv("NOTIFY_SMS_PROVIDER", "log"),
			WebhookURL:    os.Getenv("NOTIFY_WEBHOOK_URL"),
			WebhookToken:  os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
			Interval:      utils.GetenvDuration("NOTIFY_INTERVAL", 10*time.Second),
			BatchSize:     utils.GetenvInt("NOTIFY_BATCH_SIZE", 50),
			MaxAttempts:   utils.GetenvInt("NOTIFY_MAX_ATTEMPTS", 3),
		},
		Mail: MailConfig{
			Server:        os.Getenv("MAIL_SERVER"),
			Port:          utils.GetenvInt("MAIL_PORT", 587),
			Username:      os.Getenv("MAIL_USERNAME"),
			Password:      os.Getenv("MAIL_PASSWORD"),
			DefaultSender: utils.Getenv("MAIL_DEFAULT_SENDER", os.Getenv("MAIL_USERNAME")),
		},
		MoMo: MoMoConfig{
			PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
			AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
			SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
			Endpoint:    utils.Getenv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
			RedirectURL: os.Getenv("MOMO_REDIRECT_URL"),
			IPNURL:      os.Getenv("MOMO_IPN_URL"),
		},
	}

	loc, err := time.LoadLocation(utils.Getenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh"))
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" && c.GinMode != "debug" && c.GinMode != "test" {
		return errors.New("JWT_SECRET_KEY is required outside debug mode")
	}
	switch c.AutoAssignStrategy {
	case "random", "least_busy":
	default:
		return fmt.Errorf("AUTO_ASSIGN_STRATEGY must be random or least_busy, got %q", c.AutoAssignStrategy)
	}
	return nil
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		utils.Getenv("DB_HOST", "localhost"),
		utils.Getenv("DB_PORT", "5432"),
		utils.Getenv("DB_USER", "spa_user"),
		utils.Getenv("DB_PASSWORD", "spa_password"),
		utils.Getenv("DB_NAME", "spa_db"),
		utils.Getenv("DB_SSLMODE", "disable"),
	)
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
