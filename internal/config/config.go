package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server needs at startup. It is built once and
// passed explicitly to the database, token service, logger and router.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	Port     string `envconfig:"PORT" default:"5000" validate:"required,numeric"`
	GinMode  string `envconfig:"GIN_MODE" default:"debug" validate:"oneof=debug release test"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres" validate:"oneof=postgres mysql"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true" validate:"required"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true" validate:"required,min=16"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"1h" validate:"gt=0"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
}

// Load reads an optional .env file, then the process environment, and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AIEnabled reports whether an OpenAI key is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}
