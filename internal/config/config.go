package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/example/vicroadsq/internal/alert"
	"github.com/example/vicroadsq/internal/crypto"
	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "vicroadsq.yaml"

	placeholderLicense  = "012345678"
	placeholderLastName = "LE SMITH"
	dateLayout          = "2006-01-02"
)

// ErrDefaultConfig is returned when no config file existed and a default
// one has been written in its place.
var ErrDefaultConfig = errors.New("default configuration written, edit it before running")

type Config struct {
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`

	QueryDelayMs           int  `yaml:"query_delay_ms" validate:"gte=0"`
	RetryDelayMs           int  `yaml:"retry_delay_ms" validate:"gte=0"`
	MaxRetryAttempts       int  `yaml:"max_retry_attempts" validate:"gte=1"`
	PrintResponseSummaries bool `yaml:"print_response_summaries"`
	AlreadyBooked          bool `yaml:"already_booked"`

	LicenseNumber string `yaml:"license_number" validate:"required"`
	LastName      string `yaml:"last_name" validate:"required"`

	MinAlertDate       string `yaml:"min_alert_date" validate:"required,datetime=2006-01-02"`
	MaxAlertDate       string `yaml:"max_alert_date" validate:"required,datetime=2006-01-02"`
	MinAlertTime       string `yaml:"min_alert_time" validate:"required,datetime=15:04"`
	MaxAlertTime       string `yaml:"max_alert_time" validate:"required,datetime=15:04"`
	TimeRangeExclusive bool   `yaml:"time_range_exclusive"`

	OfficesToQuery []string `yaml:"offices_to_query" validate:"dive,required"`
	OfficesFile    string   `yaml:"offices_file" validate:"required"`

	AlertBeep   alert.BeepInfo `yaml:"alert_beep"`
	WarningBeep alert.BeepInfo `yaml:"warning_beep"`

	BaseURL     string `yaml:"base_url" validate:"omitempty,url"`
	Timezone    string `yaml:"timezone"`
	DatabaseURL string `yaml:"database_url"`
	StatusAddr  string `yaml:"status_addr"`

	// SealKey only comes from the environment.
	SealKey string `yaml:"-"`
}

func Defaults() Config {
	return Config{
		LogFile:            "vicroadsq.log",
		LogLevel:           "info",
		QueryDelayMs:       30000,
		RetryDelayMs:       5000,
		MaxRetryAttempts:   5,
		LicenseNumber:      placeholderLicense,
		LastName:           placeholderLastName,
		MinAlertDate:       "2022-04-20",
		MaxAlertDate:       "2022-05-15",
		MinAlertTime:       "09:15",
		MaxAlertTime:       "15:00",
		TimeRangeExclusive: true,
		OfficesToQuery:     []string{},
		OfficesFile:        "vicroadsq.offices.json",
		AlertBeep:          alert.DefaultAlert,
		WarningBeep:        alert.DefaultWarning,
	}
}

// Load reads path, applying .env and environment overrides on top. A
// missing file is replaced by the defaults and ErrDefaultConfig returned
// together with them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return &cfg, ErrDefaultConfig
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.openSealed(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LicenseNumber = getenv("VICROADSQ_LICENSE_NUMBER", c.LicenseNumber)
	c.LastName = getenv("VICROADSQ_LAST_NAME", c.LastName)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.StatusAddr = getenv("VICROADSQ_STATUS_ADDR", c.StatusAddr)
	c.SealKey = getenv("VICROADSQ_SEAL_KEY", c.SealKey)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	w, err := c.Window()
	if err != nil {
		return err
	}
	if w.MinDate.After(w.MaxDate) {
		return fmt.Errorf("min_alert_date %s is after max_alert_date %s", c.MinAlertDate, c.MaxAlertDate)
	}
	return nil
}

func (c *Config) openSealed() error {
	if !crypto.IsSealed(c.LicenseNumber) {
		return nil
	}
	var a *crypto.AEAD
	if c.SealKey != "" {
		var err error
		if a, err = crypto.NewFromBase64(c.SealKey); err != nil {
			return err
		}
	}
	v, err := crypto.Open(a, c.LicenseNumber)
	if err != nil {
		return fmt.Errorf("license_number: %w", err)
	}
	c.LicenseNumber = v
	return nil
}

// IsDefault reports whether the identity is still the placeholder one.
func (c *Config) IsDefault() bool {
	return c.LicenseNumber == placeholderLicense && c.LastName == placeholderLastName
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window builds the alert window; dates are midnight in Location.
func (c *Config) Window() (booking.AlertWindow, error) {
	loc, err := c.Location()
	if err != nil {
		return booking.AlertWindow{}, err
	}
	var w booking.AlertWindow
	if w.MinDate, err = time.ParseInLocation(dateLayout, c.MinAlertDate, loc); err != nil {
		return w, fmt.Errorf("min_alert_date: %w", err)
	}
	if w.MaxDate, err = time.ParseInLocation(dateLayout, c.MaxAlertDate, loc); err != nil {
		return w, fmt.Errorf("max_alert_date: %w", err)
	}
	if w.MinTime, err = booking.ParseClock(c.MinAlertTime); err != nil {
		return w, fmt.Errorf("min_alert_time: %w", err)
	}
	if w.MaxTime, err = booking.ParseClock(c.MaxAlertTime); err != nil {
		return w, fmt.Errorf("max_alert_time: %w", err)
	}
	w.Exclusive = c.TimeRangeExclusive
	return w, nil
}

func (c *Config) QueryDelay() time.Duration { return time.Duration(c.QueryDelayMs) * time.Millisecond }
func (c *Config) RetryDelay() time.Duration { return time.Duration(c.RetryDelayMs) * time.Millisecond }

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
