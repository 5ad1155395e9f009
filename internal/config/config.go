// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Optional: when empty the server runs on the in-memory
	// task repository (development and tests).
	DatabaseURL string `koanf:"database_url"`

	// Redis. Optional: enables the response cache and the shared rate
	// limit store; when empty both degrade to in-process equivalents.
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"`

	// AI ranking service
	AIRankURL        string `koanf:"ai_rank_url"`
	AIAPIKey         string `koanf:"ai_api_key"`
	AIRankTimeoutSec int    `koanf:"ai_rank_timeout_sec"` // Default: 3

	// Urgency scoring calibration file (JSON), optional.
	UrgencyCalibrationPath string `koanf:"urgency_calibration_path"`

	// Response cache TTL for the urgent-tasks endpoint, seconds.
	UrgentCacheTTLSec int `koanf:"urgent_cache_ttl_sec"` // Default: 60

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporter     string  `koanf:"tracing_exporter"` // otlp-http or otlp-grpc
	TracingOTLPEndpoint string  `koanf:"tracing_otlp_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"` // Default: 0.1
	TracingInsecure     bool    `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET is required")
	ErrMissingAIRankURL  = errors.New("AI_RANK_URL is required")
	ErrInvalidPort       = errors.New("PORT must be a valid integer")
	ErrInvalidAITimeout  = errors.New("AI_RANK_TIMEOUT_SEC must be a positive integer")
	ErrInvalidCacheTTL   = errors.New("URGENT_CACHE_TTL_SEC must be a positive integer")
	ErrInvalidSampling   = errors.New("TRACING_SAMPLING_RATE must be between 0 and 1")
)

// Default values for non-secret configuration.
const (
	DefaultPort              = 8080
	DefaultEnv               = "development"
	DefaultAIRankTimeoutSec  = 3
	DefaultUrgentCacheTTLSec = 60
	DefaultTracingExporter   = "otlp-http"
	DefaultSamplingRate      = 0.1
)

// AIRankTimeout returns the configured ranking timeout as a duration.
func (c *Config) AIRankTimeout() time.Duration {
	return time.Duration(c.AIRankTimeoutSec) * time.Second
}

// UrgentCacheTTL returns the configured response cache TTL as a duration.
func (c *Config) UrgentCacheTTL() time.Duration {
	return time.Duration(c.UrgentCacheTTLSec) * time.Second
}

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort, ErrInvalidPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	aiTimeout, aiTimeoutErr := getEnvIntOrDefault("AI_RANK_TIMEOUT_SEC", k.Int("ai_rank_timeout_sec"), DefaultAIRankTimeoutSec, ErrInvalidAITimeout)
	if aiTimeoutErr != nil {
		loadErrs = append(loadErrs, aiTimeoutErr)
	}

	cacheTTL, cacheTTLErr := getEnvIntOrDefault("URGENT_CACHE_TTL_SEC", k.Int("urgent_cache_ttl_sec"), DefaultUrgentCacheTTLSec, ErrInvalidCacheTTL)
	if cacheTTLErr != nil {
		loadErrs = append(loadErrs, cacheTTLErr)
	}

	samplingRate, samplingErr := getEnvFloatOrDefault("TRACING_SAMPLING_RATE", k.Float64("tracing_sampling_rate"), DefaultSamplingRate)
	if samplingErr != nil {
		loadErrs = append(loadErrs, samplingErr)
	}

	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DatabaseURL:            getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:               getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:              getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTPreviousSecret:      getEnvOrKoanf("JWT_PREVIOUS_SECRET", k, "jwt_previous_secret"),
		AIRankURL:              getEnvOrKoanf("AI_RANK_URL", k, "ai_rank_url"),
		AIAPIKey:               getEnvOrKoanf("AI_API_KEY", k, "ai_api_key"),
		AIRankTimeoutSec:       aiTimeout,
		UrgencyCalibrationPath: getEnvOrKoanf("URGENCY_CALIBRATION_PATH", k, "urgency_calibration_path"),
		UrgentCacheTTLSec:      cacheTTL,
		TracingEnabled:         getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		TracingExporter:        getEnvOrDefault("TRACING_EXPORTER", k.String("tracing_exporter"), DefaultTracingExporter),
		TracingOTLPEndpoint:    getEnvOrKoanf("TRACING_OTLP_ENDPOINT", k, "tracing_otlp_endpoint"),
		TracingSamplingRate:    samplingRate,
		TracingInsecure:        getEnvBoolOrKoanf("TRACING_INSECURE", k, "tracing_insecure"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvBoolOrKoanf returns the environment variable as bool if set, otherwise the koanf value.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		default:
			return false
		}
	}
	return k.Bool(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns the sentinel wrapped in an error if the environment variable is set but cannot be parsed.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int, sentinel error) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, sentinel)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.AIRankURL == "" {
		errs = append(errs, ErrMissingAIRankURL)
	}
	if c.AIRankTimeoutSec <= 0 {
		errs = append(errs, ErrInvalidAITimeout)
	}
	if c.UrgentCacheTTLSec <= 0 {
		errs = append(errs, ErrInvalidCacheTTL)
	}
	if c.TracingSamplingRate < 0 || c.TracingSamplingRate > 1 {
		errs = append(errs, ErrInvalidSampling)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                     fmt.Sprintf("%d", c.Port),
		"env":                      c.Env,
		"database_url":             maskConnectionURL(c.DatabaseURL),
		"redis_url":                maskConnectionURL(c.RedisURL),
		"jwt_secret":               maskSecret(c.JWTSecret),
		"jwt_previous_secret":      maskSecret(c.JWTPreviousSecret),
		"ai_rank_url":              c.AIRankURL,
		"ai_api_key":               maskSecret(c.AIAPIKey),
		"ai_rank_timeout_sec":      fmt.Sprintf("%d", c.AIRankTimeoutSec),
		"urgency_calibration_path": c.UrgencyCalibrationPath,
		"urgent_cache_ttl_sec":     fmt.Sprintf("%d", c.UrgentCacheTTLSec),
		"tracing_enabled":          fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter":         c.TracingExporter,
		"tracing_otlp_endpoint":    c.TracingOTLPEndpoint,
		"tracing_sampling_rate":    fmt.Sprintf("%.2f", c.TracingSamplingRate),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskConnectionURL masks the password in a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskConnectionURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
