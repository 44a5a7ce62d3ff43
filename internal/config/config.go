package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort            = "8080"
	defaultRetrainSchedule = "@monthly"
	minSecretKeyLength     = 32
)

var (
	ErrMissingSecretKey  = errors.New("SECRET_KEY is not set")
	ErrInsecureSecretKey = errors.New("SECRET_KEY is insecure")
	ErrMissingPassphrase = errors.New("DATA_PASSPHRASE is not set")
)

var placeholderSecrets = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	Port            string
	DBPath          string
	SecretKey       string
	DataPassphrase  string
	LogLevel        string
	LogFormat       string
	RetrainSchedule string
	Location        *time.Location
}

// Load reads the process environment after merging a .env file from the
// working directory, if one exists. Variables already set win over .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	port, err := resolvePort()
	if err != nil {
		return Config{}, err
	}

	schedule, set := os.LookupEnv("RETRAIN_SCHEDULE")
	if !set {
		schedule = defaultRetrainSchedule
	}
	if strings.EqualFold(strings.TrimSpace(schedule), "off") {
		schedule = ""
	}

	return Config{
		Port:            port,
		DBPath:          getEnv("DB_PATH", filepath.Join("data", "flux.db")),
		SecretKey:       strings.TrimSpace(os.Getenv("SECRET_KEY")),
		DataPassphrase:  os.Getenv("DATA_PASSPHRASE"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		RetrainSchedule: strings.TrimSpace(schedule),
		Location:        loadLocation(getEnv("TZ", "UTC")),
	}, nil
}

// RequireSecretKey checks that the token signing key is long enough and not
// one of the documented placeholders.
func (cfg Config) RequireSecretKey() (string, error) {
	if cfg.SecretKey == "" {
		return "", ErrMissingSecretKey
	}
	if _, placeholder := placeholderSecrets[strings.ToLower(cfg.SecretKey)]; placeholder {
		return "", fmt.Errorf("%w: placeholder value", ErrInsecureSecretKey)
	}
	if len(cfg.SecretKey) < minSecretKeyLength {
		return "", fmt.Errorf("%w: must be at least %d characters", ErrInsecureSecretKey, minSecretKeyLength)
	}
	return cfg.SecretKey, nil
}

func (cfg Config) RequirePassphrase() (string, error) {
	if cfg.DataPassphrase == "" {
		return "", ErrMissingPassphrase
	}
	return cfg.DataPassphrase, nil
}

func resolvePort() (string, error) {
	raw := strings.TrimSpace(getEnv("PORT", defaultPort))
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return strconv.Itoa(port), nil
}

func loadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
