package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	DatabasePath    string        `validate:"required"`
	DatabaseTimeout time.Duration `validate:"gte=0"`
	DataDir         string        `validate:"required"`
	RoutesPath      string        // empty uses the built-in routing table
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogFormat       string        `validate:"oneof=json text"`
	LogFile         string        // empty disables the log file
	CommitMode      string        `validate:"oneof=per-row per-file"`

	MaxRowsPerSecond int `validate:"gte=0"`
}

// LoadConfig reads .env (when present) and the environment. Flags are applied on top by the caller.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Info: error loading .env file, relying on OS environment variables and defaults:", err)
	}

	cfg := &AppConfig{
		DatabasePath:     getEnv("DATABASE_PATH", "./pricefolio.db"),
		DatabaseTimeout:  getEnvAsDuration("DATABASE_TIMEOUT", 30*time.Second),
		DataDir:          getEnv("DATA_DIR", "data"),
		RoutesPath:       getEnv("ROUTES_PATH", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		LogFile:          getEnv("LOG_FILE", "import_log.txt"),
		CommitMode:       getEnv("COMMIT_MODE", "per-row"),
		MaxRowsPerSecond: getEnvAsInt("MAX_ROWS_PER_SECOND", 0),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values, including any flag overrides.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
