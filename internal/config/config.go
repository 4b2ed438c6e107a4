package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURI     = "https://www.mywx.live/"
	DefaultInterval    = 10
	DefaultHTTPTimeout = 30 * time.Second
)

// AppConfig holds every option of the push daemon. Field tags name the CLI
// flag that sets each option.
type AppConfig struct {
	// Station sources. Only the primary station controller is required.
	Host          string `flag:"host" validate:"required"`
	OutdoorAQHost string `flag:"outdoor-aq-host"`
	IndoorAQHost  string `flag:"indoor-aq-host"`

	// Remote endpoint.
	BaseURI   string `flag:"base-uri" validate:"required,url"`
	Slug      string `flag:"slug" validate:"required"`
	SecretKey string `flag:"secret-key" validate:"required"`

	// IntervalSeconds is the pause between cycles.
	IntervalSeconds int           `flag:"interval" validate:"min=1"`
	HTTPTimeout     time.Duration `flag:"http-timeout"`

	StatusAddr string `flag:"status-addr"`
	Debug      bool   `flag:"debug"`
	LogFormat  string `flag:"log-format" validate:"oneof=text json"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("flag"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads defaults from the environment (and a .env file when present).
// Flags parsed later override these values; call Validate afterwards.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("could not load .env file", "err", err)
	}

	cfg := &AppConfig{
		Host:          os.Getenv("MYWX_HOST"),
		OutdoorAQHost: os.Getenv("MYWX_OUTDOOR_AQ_HOST"),
		IndoorAQHost:  os.Getenv("MYWX_INDOOR_AQ_HOST"),
		BaseURI:       getenvDefault("MYWX_BASE_URI", DefaultBaseURI),
		Slug:          os.Getenv("MYWX_SLUG"),
		SecretKey:     os.Getenv("MYWX_SECRET_KEY"),
		StatusAddr:    os.Getenv("MYWX_STATUS_ADDR"),
		LogFormat:     strings.ToLower(getenvDefault("MYWX_LOG_FORMAT", "text")),
	}

	interval, err := getenvInt("MYWX_INTERVAL", DefaultInterval)
	if err != nil {
		return nil, err
	}
	cfg.IntervalSeconds = interval

	timeoutStr := getenvDefault("MYWX_HTTP_TIMEOUT", DefaultHTTPTimeout.String())
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MYWX_HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if v := os.Getenv("MYWX_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MYWX_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	return cfg, nil
}

// Validate returns a configuration error naming every offending flag.
func (c *AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("--%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("--%s must be an absolute URL, got %q", fe.Field(), fe.Value())
	case "min":
		return fmt.Sprintf("--%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("--%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("--%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// Interval returns the pause between cycles.
func (c *AppConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LogLevel maps the debug flag onto a slog level.
func (c *AppConfig) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
