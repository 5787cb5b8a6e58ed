package config

import (
	"fmt"
	"os"
	"time"

	"cardforge/internal/roomcode"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                  string        `env:"PORT"`
	DatabaseURL           string        `env:"DATABASE_URL"`
	DBMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME"`
	DBConnMaxIdleTime     time.Duration `env:"DB_CONN_MAX_IDLE_TIME"`
	PartyHostURL          string        `env:"PARTY_HOST_URL"`
	PartyHandoffTimeout   time.Duration `env:"PARTY_HANDOFF_TIMEOUT"`
	RoomCodeLength        int           `env:"ROOM_CODE_LENGTH"`
	RoomCodeMaxAttempts   int           `env:"ROOM_CODE_MAX_ATTEMPTS"`
	SessionCreateAttempts int           `env:"SESSION_CREATE_ATTEMPTS"`
	PublicBaseURL         string        `env:"PUBLIC_BASE_URL"`
	LogLevel              string        `env:"LOG_LEVEL"`
}

func Default() Config {
	return Config{
		Port:                  "8080",
		DBMaxOpenConns:        10,
		DBMaxIdleConns:        10,
		DBConnMaxLifetime:     5 * time.Minute,
		DBConnMaxIdleTime:     time.Minute,
		PartyHandoffTimeout:   3 * time.Second,
		RoomCodeLength:        4,
		RoomCodeMaxAttempts:   20,
		SessionCreateAttempts: 3,
		PublicBaseURL:         "http://localhost:8080",
		LogLevel:              "info",
	}
}

// Load overlays environment variables on top of Default. Unset variables keep
// their default value.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RoomCodeLength < roomcode.MinLength || cfg.RoomCodeLength > roomcode.MaxLength {
		return Config{}, fmt.Errorf("parse env: ROOM_CODE_LENGTH must be between %d and %d, got %d",
			roomcode.MinLength, roomcode.MaxLength, cfg.RoomCodeLength)
	}
	if cfg.RoomCodeMaxAttempts <= 0 {
		cfg.RoomCodeMaxAttempts = Default().RoomCodeMaxAttempts
	}
	if cfg.SessionCreateAttempts <= 0 {
		cfg.SessionCreateAttempts = Default().SessionCreateAttempts
	}
	return cfg, nil
}
