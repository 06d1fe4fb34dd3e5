package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pairsync/pairsync/internal/services"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Addr          string `env:"PAIRSYNC_ADDR" env-default:":8080"`
	SQLitePath    string `env:"PAIRSYNC_SQLITE_PATH"`
	MigrationsDir string `env:"PAIRSYNC_MIGRATIONS_DIR"`
	StaticDir     string `env:"PAIRSYNC_STATIC_DIR"`
	JWTSecret     string `env:"PAIRSYNC_JWT_SECRET" env-default:"pairsync-dev-secret"`

	// DailyQuestionCount is the size of the daily check-in.
	DailyQuestionCount int `env:"PAIRSYNC_DAILY_QUESTION_COUNT" env-default:"6"`

	// EncryptionMode selects the private channel's key sourcing, process-wide:
	// "ephemeral" or "passphrase".
	EncryptionMode string `env:"PAIRSYNC_ENCRYPTION_MODE" env-default:"ephemeral"`
	KDFIterations  int    `env:"PAIRSYNC_KDF_ITERATIONS" env-default:"100000"`
}

// Load reads configuration from ENV with defaults and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch services.KeyMode(c.EncryptionMode) {
	case services.KeyModeEphemeral, services.KeyModePassphrase:
	default:
		return fmt.Errorf("unknown encryption mode %q", c.EncryptionMode)
	}
	if c.DailyQuestionCount < 1 {
		return fmt.Errorf("daily question count must be positive, got %d", c.DailyQuestionCount)
	}
	if c.KDFIterations < 1 {
		return fmt.Errorf("kdf iterations must be positive, got %d", c.KDFIterations)
	}
	return nil
}

// KeyMode returns the typed encryption mode.
func (c *Config) KeyMode() services.KeyMode {
	return services.KeyMode(c.EncryptionMode)
}
