// Package logger configures structured logging with zerolog.
//
// Components receive a child logger from WithComponent at construction time.
// The level is process wide, so SetLevel also affects loggers handed out
// earlier.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var globalLogger zerolog.Logger

// Config controls log output
type Config struct {
	Level      string `yaml:"level"`
	Debug      bool   `yaml:"debug"`
	Output     string `yaml:"output"` // stdout, stderr or console
	TimeFormat string `yaml:"time_format"`
}

func init() {
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
}

// DefaultConfig returns the configuration used when none is provided
func DefaultConfig() Config {
	return Config{Level: "info", Output: "stdout"}
}

// ApplyEnv overrides cfg from LOG_LEVEL, DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT
func ApplyEnv(cfg Config) Config {
	cfg.Level = getEnvOrDefault("LOG_LEVEL", cfg.Level)
	cfg.Output = getEnvOrDefault("LOG_OUTPUT", cfg.Output)
	cfg.TimeFormat = getEnvOrDefault("LOG_TIME_FORMAT", cfg.TimeFormat)
	cfg.Debug = getEnvBoolOrDefault("DEBUG", cfg.Debug)
	return cfg
}

// Init installs the global logger
func Init(config Config) error {
	level, err := ParseLevel(config)
	if err != nil {
		return err
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	globalLogger = zerolog.New(writer(config.Output)).
		With().
		Timestamp().
		Logger()
	zerolog.SetGlobalLevel(level)

	log.Logger = globalLogger

	return nil
}

// ParseLevel resolves the effective level of config
func ParseLevel(config Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}
	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(config.Level))
}

// SetLevel changes the level of every logger in the process
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// GetLogger returns the global logger
func GetLogger() zerolog.Logger {
	return globalLogger
}

// WithComponent returns a child logger tagged with the component name
func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}

func writer(output string) io.Writer {
	switch output {
	case "stderr":
		return os.Stderr
	case "console":
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	default:
		return os.Stdout
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	value = strings.ToLower(value)

	return value == "true" || value == "1" || value == "yes" || value == "on"
}
