package config

import (
	"errors"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig wraps env parsing failures.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")

	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config: nil pointer provided")
)

// Config is the storefront client configuration. A single base URL
// selects the backend origin; everything else has working defaults.
type Config struct {
	// BaseURL is the backend origin. The default points at a local
	// development backend.
	BaseURL string `env:"STOREFRONT_API_BASE_URL" envDefault:"http://localhost:4000"`

	// HTTPTimeout bounds every request, connect through response.
	HTTPTimeout time.Duration `env:"STOREFRONT_HTTP_TIMEOUT" envDefault:"10s"`

	// StatePath, when set, switches credential storage from memory to
	// a JSON file at this path.
	StatePath string `env:"STOREFRONT_STATE_PATH"`

	// RedisURL, when set, stores credentials in Redis instead of the
	// file or memory backends, letting several processes share one
	// session. Takes precedence over StatePath.
	RedisURL string `env:"STOREFRONT_REDIS_URL"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`

	// LogFormat is json or text.
	LogFormat string `env:"STOREFRONT_LOG_FORMAT" envDefault:"text"`
}

var loadDotenv sync.Once

// Load fills cfg from the environment, reading a .env file first if
// one exists.
func Load[T any](cfg *T) error {
	loadDotenv.Do(func() {
		// Missing .env files are fine; the environment wins anyway.
		_ = godotenv.Load()
	})
	if cfg == nil {
		return ErrNilPointer
	}
	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is Load that panics on failure, for configuration the
// process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
