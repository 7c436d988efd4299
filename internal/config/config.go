package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/bulkspeed/bulkspeed/internal/pagespeed"
)

type Config struct {
	APIKey   string             `yaml:"api_key" validate:"required"`
	Endpoint string             `yaml:"endpoint" validate:"omitempty,url"`
	Devices  []pagespeed.Device `yaml:"devices" validate:"min=1,dive,oneof=mobile desktop"`
	Delay    string             `yaml:"delay"`
	Retries  *int               `yaml:"retries" validate:"omitempty,min=0"`
	Output   string             `yaml:"output" validate:"required"`
	Notify   Notify             `yaml:"notify"`
	Schedule Schedule           `yaml:"schedule"`
}

type Notify struct {
	Template string    `yaml:"template"`
	Services []Service `yaml:"services"`
}

// Service handles both a plain Shoutrrr URL string and an object with params.
type Service struct {
	URL    string            `yaml:"url"`
	Params map[string]string `yaml:"params"`
}

func (s *Service) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		s.URL = str
		return nil
	}

	type serviceAlias Service
	var obj serviceAlias
	if err := unmarshal(&obj); err != nil {
		return fmt.Errorf("notify service: must be a shoutrrr URL string or an object with url/params")
	}
	*s = Service(obj)
	return nil
}

// Schedule configures `bulkspeed start`. Durations are strings ("30m") per
// time.ParseDuration; cron is a standard 5-field spec.
type Schedule struct {
	Cron     string `yaml:"cron"`
	Interval string `yaml:"interval"`
	Watch    string `yaml:"watch"`
}

// Default returns the built-in configuration: both devices, 1s delay,
// 2 retries, CSV next to the working directory. The API key falls back to
// the PAGESPEED_API_KEY environment variable so flag-only runs work without
// a config file.
func Default() *Config {
	retries := 2
	return &Config{
		APIKey:   os.Getenv("PAGESPEED_API_KEY"),
		Endpoint: pagespeed.DefaultEndpoint,
		Devices:  []pagespeed.Device{pagespeed.DeviceMobile, pagespeed.DeviceDesktop},
		Delay:    "1s",
		Retries:  &retries,
		Output:   "pagespeed_results.csv",
	}
}

// Load reads a config file, expanding ${ENV_VAR} references before
// unmarshalling. Omitted fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Devices) == 0 {
		cfg.Devices = Default().Devices
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks the assembled config (file plus flag overlays).
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config: %s", describeFieldError(verrs[0]))
		}
		return fmt.Errorf("config: %w", err)
	}

	if _, err := c.DelayDuration(); err != nil {
		return err
	}
	if c.Schedule.Interval != "" {
		if _, err := time.ParseDuration(c.Schedule.Interval); err != nil {
			return fmt.Errorf("config: invalid schedule interval %q: %w", c.Schedule.Interval, err)
		}
	}

	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		if field == "apikey" {
			return "api_key is required (set it in the config file, --api-key, or PAGESPEED_API_KEY)"
		}
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of %s", field, fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// MaxRetries returns the retry budget (extra attempts after the first).
func (c *Config) MaxRetries() int {
	if c.Retries == nil {
		return 0
	}
	return *c.Retries
}

// DelayDuration parses the inter-request delay.
func (c *Config) DelayDuration() (time.Duration, error) {
	if c.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("config: invalid delay %q: %w", c.Delay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: delay must not be negative")
	}
	return d, nil
}

// ScheduleInterval parses the schedule interval, zero when unset.
func (c *Config) ScheduleInterval() time.Duration {
	if c.Schedule.Interval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Schedule.Interval)
	return d
}
