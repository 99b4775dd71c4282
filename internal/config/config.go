package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Guest cart handling when a session signs in.
const (
	GuestCartDiscard = "discard"
	GuestCartMerge   = "merge"
)

type Config struct {
	Port            string
	DBDriver        string
	DBDSN           string
	LogFile         string
	LogLevel        string
	TemplatesDir    string
	GuestCartPolicy string
	GuestCartTTL    time.Duration
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("config: could not parse .env")
	}

	cfg := Config{
		Port:            getenv("PORT", "8081"),
		DBDriver:        strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBDSN:           getenv("DB_DSN", "minimarket.db"), // sqlite file in project root
		LogFile:         getenv("LOG_FILE", "./minimarket.log"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		TemplatesDir:    getenv("TEMPLATES_DIR", "./web/templates"),
		GuestCartPolicy: strings.ToLower(getenv("GUEST_CART_POLICY", GuestCartDiscard)),
	}
	cfg.GuestCartTTL = 2 * time.Hour
	if raw := getenv("GUEST_CART_TTL", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.GuestCartTTL = d
		} else {
			log.Warn().Str("value", raw).Msg("config: bad GUEST_CART_TTL, using default")
		}
	}
	if cfg.GuestCartPolicy != GuestCartMerge {
		cfg.GuestCartPolicy = GuestCartDiscard
	}
	log.Info().
		Str("port", cfg.Port).
		Str("db_driver", cfg.DBDriver).
		Str("db_dsn", cfg.DBDSN).
		Str("log_file", cfg.LogFile).
		Str("guest_cart_policy", cfg.GuestCartPolicy).
		Dur("guest_cart_ttl", cfg.GuestCartTTL).
		Msg("config loaded")
	return cfg
}
