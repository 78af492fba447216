// Package config loads process settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AnthropicAPIKey   string
	AnthropicModel    string
	ChatMaxTokens     int64
	AnalysisMaxTokens int64
	MaxIterations     int
	HistoryLimit      int
	Workers           int
	RequestTimeout    time.Duration

	DatabasePath    string
	UploadDir       string
	MaxUploadSizeMB int64
	SearchBaseURL   string

	SlackBotToken string
	SlackAppToken string

	LogLevel slog.Level
}

func Default() Config {
	return Config{
		AnthropicModel:    "claude-sonnet-4-20250514",
		ChatMaxTokens:     4096,
		AnalysisMaxTokens: 2048,
		MaxIterations:     10,
		HistoryLimit:      20,
		Workers:           4,
		RequestTimeout:    2 * time.Minute,
		DatabasePath:      "./caseai.db",
		UploadDir:         "./uploads",
		MaxUploadSizeMB:   50,
		LogLevel:          slog.LevelInfo,
	}
}

// Load applies defaults, then the dotenv files, then the process
// environment. Variables already set in the environment win over dotenv.
func Load(dotenvPaths ...string) (Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg := Default()
	var errs []error

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	setString(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.SearchBaseURL, "SEARCH_BASE_URL")
	setString(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	setString(&cfg.SlackAppToken, "SLACK_APP_TOKEN")

	errs = append(errs,
		setInt64(&cfg.ChatMaxTokens, "ANTHROPIC_MAX_TOKENS"),
		setInt64(&cfg.AnalysisMaxTokens, "ANALYSIS_MAX_TOKENS"),
		setInt(&cfg.MaxIterations, "MAX_ITERATIONS"),
		setInt(&cfg.HistoryLimit, "HISTORY_LIMIT"),
		setInt(&cfg.Workers, "WORKERS"),
		setInt64(&cfg.MaxUploadSizeMB, "MAX_UPLOAD_SIZE_MB"),
		setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT"),
	)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.AnthropicAPIKey == "" {
		errs = append(errs, errors.New("ANTHROPIC_API_KEY is required"))
	}
	if c.ChatMaxTokens <= 0 || c.AnalysisMaxTokens <= 0 {
		errs = append(errs, errors.New("max tokens must be positive"))
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, errors.New("MAX_ITERATIONS must be positive"))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, errors.New("HISTORY_LIMIT must be positive"))
	}
	if c.Workers <= 0 {
		errs = append(errs, errors.New("WORKERS must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.MaxUploadSizeMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE_MB must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateSlack checks the tokens needed by the socket-mode assistant.
func (c Config) ValidateSlack() error {
	var errs []error
	if c.SlackBotToken == "" {
		errs = append(errs, errors.New("SLACK_BOT_TOKEN is required"))
	}
	if c.SlackAppToken == "" {
		errs = append(errs, errors.New("SLACK_APP_TOKEN is required"))
	}
	return errors.Join(errs...)
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
