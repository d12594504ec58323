package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/example/studybot/pkg/models"
)

// ErrInvalid is wrapped by every validation failure returned from Validate
var ErrInvalid = errors.New("config: invalid configuration")

// Database drivers understood by the composition root
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ReminderConfig controls the periodic reminder job
type ReminderConfig struct {
	Enabled bool `yaml:"enabled"`
	// Cron is a standard 5-field cron expression, e.g. "*/5 * * * *"
	Cron string `yaml:"cron"`
	// LeadMinutes is how long before a session starts its reminder goes out
	LeadMinutes int `yaml:"lead_minutes"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type TelegramConfig struct {
	Token    string  `yaml:"token"`
	AdminIDs []int64 `yaml:"admin_ids"`
	Debug    bool    `yaml:"debug"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	// GenerateDelay is an artificial pause added to offline content generation
	GenerateDelay time.Duration `yaml:"generate_delay"`
}

// Config is the top-level application configuration
type Config struct {
	// Timezone is the IANA zone sessions and reminders are computed in
	Timezone string `yaml:"timezone"`
	// WeekStart is "sunday" (default) or "monday"
	WeekStart string `yaml:"week_start"`
	// DefaultTime is the start time of sessions created without one, "HH:MM"
	DefaultTime     string `yaml:"default_time"`
	DefaultDuration int    `yaml:"default_duration"`

	Reminders ReminderConfig `yaml:"reminders"`
	Database  DatabaseConfig `yaml:"database"`
	Telegram  TelegramConfig `yaml:"telegram"`
	OpenAI    OpenAIConfig   `yaml:"openai"`
}

// DefaultConfig returns an in-memory default configuration
func DefaultConfig() *Config {
	return &Config{
		Timezone:        "UTC",
		WeekStart:       "sunday",
		DefaultTime:     "09:00",
		DefaultDuration: 60,
		Reminders: ReminderConfig{
			Enabled:     true,
			Cron:        "*/5 * * * *",
			LeadMinutes: 15,
		},
		Database: DatabaseConfig{
			Driver: DriverMemory,
		},
		OpenAI: OpenAIConfig{
			Model:         "gpt-3.5-turbo",
			GenerateDelay: 1500 * time.Millisecond,
		},
	}
}

// Normalize fills zero values with defaults so partial files still work
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart == "" {
		c.WeekStart = def.WeekStart
	}
	if c.DefaultTime == "" {
		c.DefaultTime = def.DefaultTime
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = def.DefaultDuration
	}
	if c.Reminders.Cron == "" {
		c.Reminders.Cron = def.Reminders.Cron
	}
	if c.Reminders.LeadMinutes <= 0 {
		c.Reminders.LeadMinutes = def.Reminders.LeadMinutes
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = def.OpenAI.Model
	}
	if c.OpenAI.GenerateDelay < 0 {
		c.OpenAI.GenerateDelay = 0
	}
}

// Validate reports the first setting the application cannot run with
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	switch c.WeekStart {
	case "sunday", "monday":
	default:
		return fmt.Errorf("%w: week_start must be sunday or monday, got %q", ErrInvalid, c.WeekStart)
	}
	if _, err := models.ParseClock(c.DefaultTime); err != nil {
		return fmt.Errorf("%w: default_time: %v", ErrInvalid, err)
	}
	if _, err := cron.ParseStandard(c.Reminders.Cron); err != nil {
		return fmt.Errorf("%w: reminders.cron %q: %v", ErrInvalid, c.Reminders.Cron, err)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for driver %s", ErrInvalid, c.Database.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalid, c.Database.Driver)
	}
	return nil
}

// Location returns the configured zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// DefaultClock returns DefaultTime parsed, or 09:00 when it does not parse
func (c *Config) DefaultClock() models.Clock {
	clock, err := models.ParseClock(c.DefaultTime)
	if err != nil {
		return models.NewClock(9, 0)
	}
	return clock
}

// IsAdmin reports whether a Telegram user id is listed in AdminIDs
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ApplyEnv overrides file settings with environment variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("TIMEZONE", &c.Timezone)
	str("REMINDER_CRON", &c.Reminders.Cron)

	if v, ok := lookup("ENABLE_SCHEDULER"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: ENABLE_SCHEDULER: %v", ErrInvalid, err)
		}
		c.Reminders.Enabled = enabled
	}
	if v, ok := lookup("ADMIN_USER_IDS"); ok && v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("%w: ADMIN_USER_IDS: %v", ErrInvalid, err)
		}
		c.Telegram.AdminIDs = ids
	}
	c.Normalize()
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Load reads a YAML config. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg as YAML through a temp file and rename, with 0600 permissions
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".studybot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
