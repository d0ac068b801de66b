package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	JWTSecret         string
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	Issuer            string
	Audience          string
	PasswordPepper    string

	HTTPAddress   string
	HTTPSCertFile string
	HTTPSKeyFile  string
	GRPCAddress   string
	StaticDir     string

	AllowedOrigins   []string
	AllowCredentials bool

	RevocationBackend       string
	RevocationSweepInterval time.Duration
	RedisAddress            string
	RedisPassword           string
	RedisDB                 int

	MailBackend  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	ResetURLBase string

	LogLevel string
}

const (
	RevocationMemory = "memory"
	RevocationRedis  = "redis"

	MailLog  = "log"
	MailSMTP = "smtp"
)

var keys = []string{
	"DATABASE_URL",
	"JWT_SECRET_KEY", "JWT_PRIVATE_KEY_PATH", "JWT_PUBLIC_KEY_PATH",
	"JWT_ISSUER", "JWT_AUDIENCE", "PASSWORD_PEPPER",
	"HTTP_ADDRESS", "HTTPS_CERT_FILE", "HTTPS_KEY_FILE", "GRPC_ADDRESS", "STATIC_DIR",
	"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	"REVOCATION_BACKEND", "REVOCATION_SWEEP_INTERVAL",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
	"MAIL_BACKEND", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM",
	"RESET_URL_BASE", "LOG_LEVEL",
}

// Load reads ./config.json when present and lets the environment override it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("JWT_ISSUER", "usiu-auth")
	v.SetDefault("JWT_AUDIENCE", "usiu-app")
	v.SetDefault("HTTP_ADDRESS", ":5000")
	v.SetDefault("STATIC_DIR", "client")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("REVOCATION_BACKEND", RevocationMemory)
	v.SetDefault("REVOCATION_SWEEP_INTERVAL", "10m")
	v.SetDefault("MAIL_BACKEND", MailLog)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RESET_URL_BASE", "http://localhost:5000/client/resetpassword.html")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:             v.GetString("DATABASE_URL"),
		JWTSecret:               v.GetString("JWT_SECRET_KEY"),
		JWTPrivateKeyPath:       v.GetString("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:        v.GetString("JWT_PUBLIC_KEY_PATH"),
		Issuer:                  v.GetString("JWT_ISSUER"),
		Audience:                v.GetString("JWT_AUDIENCE"),
		PasswordPepper:          v.GetString("PASSWORD_PEPPER"),
		HTTPAddress:             v.GetString("HTTP_ADDRESS"),
		HTTPSCertFile:           v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:            v.GetString("HTTPS_KEY_FILE"),
		GRPCAddress:             v.GetString("GRPC_ADDRESS"),
		StaticDir:               v.GetString("STATIC_DIR"),
		AllowedOrigins:          splitList(v.GetString("ALLOWED_ORIGINS")),
		AllowCredentials:        v.GetBool("ALLOW_CREDENTIALS"),
		RevocationBackend:       strings.ToLower(v.GetString("REVOCATION_BACKEND")),
		RevocationSweepInterval: v.GetDuration("REVOCATION_SWEEP_INTERVAL"),
		RedisAddress:            v.GetString("REDIS_ADDRESS"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		MailBackend:             strings.ToLower(v.GetString("MAIL_BACKEND")),
		SMTPHost:                v.GetString("SMTP_HOST"),
		SMTPPort:                v.GetInt("SMTP_PORT"),
		SMTPUsername:            v.GetString("SMTP_USERNAME"),
		SMTPPassword:            v.GetString("SMTP_PASSWORD"),
		MailFrom:                v.GetString("MAIL_FROM"),
		ResetURLBase:            v.GetString("RESET_URL_BASE"),
		LogLevel:                v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.UseRSA() {
		if c.JWTPrivateKeyPath == "" || c.JWTPublicKeyPath == "" {
			return errors.New("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
		}
	} else if c.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY or an RSA key pair is required")
	}

	switch c.RevocationBackend {
	case RevocationMemory:
		if c.RevocationSweepInterval <= 0 {
			return errors.New("REVOCATION_SWEEP_INTERVAL must be positive")
		}
	case RevocationRedis:
		if c.RedisAddress == "" {
			return errors.New("REDIS_ADDRESS is required for the redis revocation backend")
		}
	default:
		return fmt.Errorf("unknown REVOCATION_BACKEND %q", c.RevocationBackend)
	}

	switch c.MailBackend {
	case MailLog:
	case MailSMTP:
		if c.SMTPHost == "" || c.MailFrom == "" {
			return errors.New("SMTP_HOST and MAIL_FROM are required for the smtp mail backend")
		}
	default:
		return fmt.Errorf("unknown MAIL_BACKEND %q", c.MailBackend)
	}

	if (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == "") {
		return errors.New("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	}
	return nil
}

// UseRSA reports whether tokens are signed with RS256 instead of HS256.
func (c *Config) UseRSA() bool {
	return c.JWTPrivateKeyPath != "" || c.JWTPublicKeyPath != ""
}

func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
