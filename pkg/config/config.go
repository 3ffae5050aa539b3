package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string `validate:"required,numeric"`
	Environment     string `validate:"oneof=development staging production test"`
	FirebaseProject string `validate:"required"`
	StorageBucket   string

	ServiceAccountJSON string
	ServiceAccountPath string

	BackendBaseURL string        `validate:"required,url"`
	BackendTimeout time.Duration `validate:"gt=0"`

	OrderPollInterval time.Duration `validate:"gte=1s"`
	OrderPollMaxSkip  int           `validate:"gte=0"`

	ChatCollection string `validate:"required"`
	MaxUploadSize  int64  `validate:"gt=0"`
	PushEnabled    bool

	AllowedOrigins []string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		StorageBucket:      getEnv("FIREBASE_STORAGE_BUCKET", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		BackendBaseURL:     strings.TrimRight(getEnv("BACKEND_BASE_URL", "https://rikoapi.onrender.com"), "/"),
		BackendTimeout:     getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		OrderPollInterval:  getEnvAsDuration("ORDER_POLL_INTERVAL", 10*time.Second),
		OrderPollMaxSkip:   getEnvAsInt("ORDER_POLL_MAX_SKIP", 0),
		ChatCollection:     getEnv("CHAT_COLLECTION", "RikoChat"),
		MaxUploadSize:      int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,
		PushEnabled:        getEnvAsBool("PUSH_ENABLED", true),
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Accepts Go durations ("10s") or a bare number of milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
