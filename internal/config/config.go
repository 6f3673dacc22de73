package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Wedding  WeddingConfig  `mapstructure:"wedding"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Log      LogConfig      `mapstructure:"log"`
}

// WeddingConfig holds the couple and venue details used in messages
type WeddingConfig struct {
	Date     string `mapstructure:"date"`
	Location string `mapstructure:"location"`
	Bride    string `mapstructure:"bride"`
	Groom    string `mapstructure:"groom"`
	TimeZone string `mapstructure:"timezone"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AdminToken     string   `mapstructure:"admin_token"`
	// AuthRateLimit is requests per second per client IP on signup/signin; 0 disables
	AuthRateLimit float64 `mapstructure:"auth_rate_limit"`
}

// DatabaseConfig selects the gorm driver and DSN
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// AuthConfig configures session tokens
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// PromptConfig configures the daily RSVP prompt and its flag store
type PromptConfig struct {
	// Store is "memory" or "redis"
	Store         string `mapstructure:"store"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	CacheBytes    int    `mapstructure:"cache_bytes"`
}

// WhatsAppConfig configures the WhatsApp bot and reminder job
type WhatsAppConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	DataDir          string `mapstructure:"data_dir"`
	CountryCode      string `mapstructure:"country_code"`
	ReminderSpec     string `mapstructure:"reminder_spec"`
	RemindersEnabled bool   `mapstructure:"reminders_enabled"`
}

// LogConfig sets the log level and output format
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"wedding.date":               "Saturday, January 1, 2025",
	"wedding.location":           "Venue TBD",
	"wedding.bride":              "Bride",
	"wedding.groom":              "Groom",
	"wedding.timezone":           "Local",
	"http.addr":                  ":8080",
	"http.allowed_origins":       []string{"*"},
	"http.admin_token":           "",
	"http.auth_rate_limit":       1.0,
	"database.driver":            "sqlite",
	"database.dsn":               "data/wedding.db",
	"auth.jwt_secret":            "",
	"auth.issuer":                "wedding-rsvp",
	"auth.token_expiry":          "720h",
	"prompt.store":               "memory",
	"prompt.redis_addr":          "localhost:6379",
	"prompt.redis_password":      "",
	"prompt.redis_db":            0,
	"prompt.cache_bytes":         32 * 1024 * 1024,
	"whatsapp.enabled":           false,
	"whatsapp.data_dir":          "data",
	"whatsapp.country_code":      "972",
	"whatsapp.reminder_spec":     "0 0 18 * * *",
	"whatsapp.reminders_enabled": false,
	"log.level":                  "info",
	"log.format":                 "console",
}

// LoadConfig loads configuration from an optional file and environment
// variables (WEDDING_HTTP_ADDR, WEDDING_DATABASE_DSN, ...). Missing keys fall
// back to defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("WEDDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no safe default
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Prompt.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported prompt store %q", c.Prompt.Store)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone that defines the wedding's calendar day
func (c *Config) Location() (*time.Location, error) {
	if c.Wedding.TimeZone == "" || c.Wedding.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Wedding.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", c.Wedding.TimeZone, err)
	}
	return loc, nil
}
