package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	Store       string // mysql | memory
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	AuthProvider    string // local | remote
	IdentityBase    string
	IdentityKey     string
	IdentityRPS     int
	BcryptCost      int
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
	S3AccessKeyID   string
	S3SecretKey     string
	SendGridKey     string
	SendGridHost    string
	MailFrom        string
	SupportEmail    string
	ImportWorkers   int
	ImportCurrency  string
}

const devSecret = "dev-insecure-secret-change-me"

// Load reads configuration from the environment. A .env file in the working
// directory is applied first and never overrides variables already set.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		Store:       strings.ToLower(env("STORE", "mysql")),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hostel_hub?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		JWTSecret:    env("JWT_SECRET", ""),
		SessionTTL:   time.Duration(atoi("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieSecure: envBool("COOKIE_SECURE", true),

		AuthProvider:    strings.ToLower(env("AUTH_PROVIDER", "local")),
		IdentityBase:    env("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
		IdentityKey:     env("IDENTITY_API_KEY", ""),
		IdentityRPS:     atoi("IDENTITY_RPS", 5),
		BcryptCost:      atoi("BCRYPT_COST", 12),
		S3Bucket:        env("S3_BUCKET", ""),
		S3Region:        env("S3_REGION", ""),
		S3Endpoint:      env("S3_ENDPOINT", ""),
		S3PublicBaseURL: env("S3_PUBLIC_BASE_URL", ""),
		S3AccessKeyID:   env("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:     env("S3_SECRET_ACCESS_KEY", ""),
		SendGridKey:     env("SENDGRID_API_KEY", ""),
		SendGridHost:    env("SENDGRID_HOST", ""),
		MailFrom:        env("MAIL_FROM", "no-reply@hostelhub.local"),
		SupportEmail:    env("SUPPORT_EMAIL", "support@hostelhub.local"),
		ImportWorkers:   atoi("IMPORT_WORKERS", 4),
		ImportCurrency:  env("IMPORT_CURRENCY", "USD"),
	}
	if c.JWTSecret == "" {
		if c.AppEnv != "dev" && c.AppEnv != "test" {
			log.Warn().Msg("JWT_SECRET is empty; sessions are signed with an insecure development secret")
		}
		c.JWTSecret = devSecret
	}
	if c.AuthProvider == "remote" && c.IdentityKey == "" {
		log.Warn().Msg("AUTH_PROVIDER=remote but IDENTITY_API_KEY is empty")
	}
	if c.S3Bucket == "" {
		log.Warn().Msg("S3_BUCKET is empty; image uploads are disabled")
	}
	if c.SendGridKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY is empty; mails are only logged")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
