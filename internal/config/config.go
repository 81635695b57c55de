package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	AMQPURL        string        `envconfig:"AMQP_URL"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`

	JWTSecret                string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL                 time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	RequireEmailConfirmation bool          `envconfig:"REQUIRE_EMAIL_CONFIRMATION" default:"false"`

	// Writes the order row and its items in one transaction.
	OrderAtomicWrites bool `envconfig:"ORDER_ATOMIC_WRITES" default:"false"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`

	// Sessions untouched for SessionIdleTTL are dropped from memory; their
	// cart stays in the database.
	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	SettingsFile string `envconfig:"SETTINGS_FILE"`
}

// Load reads the environment and, when SETTINGS_FILE is set, the storefront
// settings file. Without a file the built-in settings apply.
func Load() (Config, Settings, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, Settings{}, fmt.Errorf("process env: %w", err)
	}
	cfg.CORSAllowOrigins = trimCSV(cfg.CORSAllowOrigins)

	settings := DefaultSettings()
	if cfg.SettingsFile != "" {
		s, err := LoadSettings(cfg.SettingsFile)
		if err != nil {
			return Config{}, Settings{}, err
		}
		settings = s
	}
	return cfg, settings, nil
}

func trimCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
