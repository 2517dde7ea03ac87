package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Telegram TelegramConfig
	Watcher  WatcherConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	Production     bool
}

// AppConfig holds shop settings
type AppConfig struct {
	JWTSecret             string
	TransportKey          string
	AdminIDs              []int64
	Plans                 Plans
	ReferralCommission    decimal.Decimal
	CivilUTCOffsetMinutes int
}

// TelegramConfig holds the notifier transport settings. BotUsername is
// replaced by the name the Bot API reports when a token is set.
type TelegramConfig struct {
	BotToken    string
	BotUsername string
}

// WatcherConfig holds expiry watcher settings
type WatcherConfig struct {
	Interval  time.Duration
	Lookahead time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	plans, err := ParsePlans(getEnv("PLANS", "2:150000,4:265000,6:350000,12:600000"))
	if err != nil {
		return nil, err
	}

	rate, err := decimal.NewFromString(getEnv("REFERRAL_COMMISSION", "0.15"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_COMMISSION: %w", err)
	}

	adminIDs, err := ParseIDs(getEnv("ADMIN_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	offset, err := strconv.Atoi(getEnv("CIVIL_UTC_OFFSET_MINUTES", "210"))
	if err != nil {
		return nil, fmt.Errorf("invalid CIVIL_UTC_OFFSET_MINUTES: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("WATCHER_INTERVAL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCHER_INTERVAL: %w", err)
	}
	lookahead, err := time.ParseDuration(getEnv("WATCHER_LOOKAHEAD", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCHER_LOOKAHEAD: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			DBName:       getEnv("DB_NAME", "subscription_shop"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "shop.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  getEnv("DB_AUTO_MIGRATE", "true") == "true",
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
			Production:     getEnv("APP_ENV", "production") == "production",
		},
		App: AppConfig{
			JWTSecret:             getEnv("JWT_SECRET", ""),
			TransportKey:          getEnv("TRANSPORT_KEY", ""),
			AdminIDs:              adminIDs,
			Plans:                 plans,
			ReferralCommission:    rate,
			CivilUTCOffsetMinutes: offset,
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			BotUsername: strings.TrimPrefix(getEnv("TELEGRAM_BOT_USERNAME", ""), "@"),
		},
		Watcher: WatcherConfig{
			Interval:  interval,
			Lookahead: lookahead,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the invariants Load cannot express while parsing
func (c *Config) Validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.App.Plans) == 0 {
		return fmt.Errorf("at least one plan is required")
	}
	if c.App.ReferralCommission.IsNegative() || c.App.ReferralCommission.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("REFERRAL_COMMISSION must be in [0,1), got %s", c.App.ReferralCommission)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Watcher.Interval <= 0 || c.Watcher.Lookahead <= 0 {
		return fmt.Errorf("watcher interval and lookahead must be positive")
	}
	return nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// CivilLocation is the fixed zone civil dates are computed in
func (c *Config) CivilLocation() *time.Location {
	return time.FixedZone("civil", c.App.CivilUTCOffsetMinutes*60)
}

// IsAdmin reports whether the user is a configured operator
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.App.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Plans maps a plan length in months to its price
type Plans map[int]int64

// Price returns the price of a plan
func (p Plans) Price(months int) (int64, bool) {
	price, ok := p[months]
	return price, ok
}

// Months returns plan lengths in ascending order
func (p Plans) Months() []int {
	months := make([]int, 0, len(p))
	for m := range p {
		months = append(months, m)
	}
	sort.Ints(months)
	return months
}

// ParsePlans parses "months:price" pairs separated by commas
func ParsePlans(raw string) (Plans, error) {
	plans := make(Plans)
	for _, item := range splitList(raw) {
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid plan %q: expected months:price", item)
		}
		months, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || months <= 0 {
			return nil, fmt.Errorf("invalid plan months in %q", item)
		}
		price, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("invalid plan price in %q", item)
		}
		plans[months] = price
	}
	return plans, nil
}

// ParseIDs parses a comma separated list of user ids
func ParseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, item := range splitList(raw) {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
