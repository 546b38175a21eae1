package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/danielhkuo/interpoll/db"
)

// Mail transports
const (
	MailLog  = "log"
	MailSMTP = "smtp"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"5000"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"` // one of the db.Type* constants
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:5000"`

	MailTransport string `env:"MAIL_TRANSPORT" envDefault:"log"`
	MailFrom      string `env:"MAIL_FROM" envDefault:"interpoll@localhost"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	MailLogBody   bool   `env:"MAIL_LOG_BODY"`
	RedisURL      string `env:"REDIS_URL"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	TrustProxy     bool    `env:"TRUST_PROXY"`

	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"interpoll"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding what is already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ParseFlags reads the environment, then lets flags override it
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("interpoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or pgx)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Public base URL used in emailed links")

	// Mail
	fs.StringVar(&cfg.MailTransport, "mail", cfg.MailTransport, "Mail transport (log or smtp)")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for the mail outbox")
	fs.BoolVar(&cfg.MailLogBody, "mail-log-body", cfg.MailLogBody, "Log full message bodies with the log transport (development only)")

	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "Identify clients by X-Real-IP / X-Forwarded-For")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if !db.ValidType(cfg.DatabaseType) {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid BASE_URL %q", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	switch cfg.MailTransport {
	case MailLog:
	case MailSMTP:
		if cfg.SMTPHost == "" {
			return Config{}, errors.New("SMTP_HOST required for smtp mail transport")
		}
	default:
		return Config{}, fmt.Errorf("unsupported mail transport %q", cfg.MailTransport)
	}

	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, errors.New("rate limit must be positive")
	}

	return cfg, nil
}
