package config

import (
	"net"
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

	Timeout            time.Duration
	MaxPages           int
	PageDelay          time.Duration
	MaxConcurrentPages int
	Headless           bool
	Render             bool
	ChromePath         string
	CookieFile         string

	RateLimitWindow time.Duration
	RateLimitMax    int
	TrustProxy      bool

	RedisAddr string
	RedisPass string
	RedisDB   int
	CacheTTL  time.Duration
	MySQLDSN  string
}

// Load reads the environment, after loading a .env file when one exists.
// Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("reading .env failed")
	}

	appEnv := env("APP_ENV", "production")
	c := Config{
		AppEnv:      appEnv,
		HTTPAddr:    httpAddr(),
		MetricsAddr: env("METRICS_ADDR", ""),

		Timeout:            time.Duration(atoi("DEFAULT_TIMEOUT", 30000)) * time.Millisecond,
		MaxPages:           atoi("MAX_PAGES", 5),
		PageDelay:          time.Duration(atoi("PAGE_DELAY_MS", 1000)) * time.Millisecond,
		MaxConcurrentPages: atoi("MAX_CONCURRENT_PAGES", 2),
		Headless:           boolean("HEADLESS", IsProduction(appEnv)),
		Render:             boolean("RENDER", false),
		ChromePath:         env("CHROME_PATH", ""),
		CookieFile:         env("COOKIE_FILE", ""),

		RateLimitWindow: time.Duration(atoi("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond,
		RateLimitMax:    atoi("RATE_LIMIT_MAX_REQUESTS", 1000),
		TrustProxy:      boolean("TRUST_PROXY", false),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		MySQLDSN:  env("MYSQL_DSN", ""),
	}
	if c.MaxPages <= 0 {
		log.Warn().Int("max_pages", c.MaxPages).Msg("MAX_PAGES must be positive, using 5")
		c.MaxPages = 5
	}
	return c
}

// IsProduction reports whether env names a production deployment.
func IsProduction(env string) bool {
	env = strings.ToLower(env)
	return env == "production" || env == "prod"
}

// httpAddr prefers HTTP_ADDR, then HOST and PORT.
func httpAddr() string {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		return v
	}
	return net.JoinHostPort(os.Getenv("HOST"), env("PORT", "3000"))
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
	}
	return def
}
