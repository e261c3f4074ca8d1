package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"

	"github.com/joho/godotenv"
)

const (
	defaultPollInterval      = 60 * time.Second
	defaultLookupTimeout     = 10 * time.Second
	defaultLookupConcurrency = 4
	defaultRetentionDays     = 14
	minRetentionDays         = 7
	defaultPruneThreshold    = 1000
	defaultDispatchRate      = 20
)

// Default trigger times per stream, site-local.
var defaultTriggers = map[notification.Stream]string{
	notification.StreamAttendanceReminder: "18:00,20:00",
	notification.StreamPaymentDue:         "10:00",
	notification.StreamAbsenceStreak:      "12:00",
	notification.StreamUnprocessedBacklog: "10:00,16:00",
}

var triggerEnv = map[notification.Stream]string{
	notification.StreamAttendanceReminder: "TRIGGERS_ATTENDANCE",
	notification.StreamPaymentDue:         "TRIGGERS_PAYMENT",
	notification.StreamAbsenceStreak:      "TRIGGERS_ABSENCE",
	notification.StreamUnprocessedBacklog: "TRIGGERS_BACKLOG",
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string
	LogLevel      string
	Environment   string

	Location          *time.Location // site timezone for trigger matching and dedup days
	PollInterval      time.Duration
	LookupTimeout     time.Duration
	LookupConcurrency int

	LedgerRetentionDays  int
	LedgerPruneThreshold int // attendance partition size that triggers pruning
	DispatchRatePerSec   int

	Triggers map[notification.Stream][]calendar.Clock
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a variable lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.Location = time.Local
	if tz := getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	if cfg.PollInterval, err = durationEnv(getenv, "POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.PollInterval > time.Minute {
		// Trigger matching works on whole minutes; a longer interval can skip one.
		return nil, fmt.Errorf("POLL_INTERVAL must not exceed 1m, got %s", cfg.PollInterval)
	}
	if cfg.LookupTimeout, err = durationEnv(getenv, "LOOKUP_TIMEOUT", defaultLookupTimeout); err != nil {
		return nil, err
	}
	if cfg.LookupConcurrency, err = intEnv(getenv, "LOOKUP_CONCURRENCY", defaultLookupConcurrency); err != nil {
		return nil, err
	}

	if cfg.LedgerRetentionDays, err = intEnv(getenv, "LEDGER_RETENTION_DAYS", defaultRetentionDays); err != nil {
		return nil, err
	}
	if cfg.LedgerRetentionDays < minRetentionDays {
		return nil, fmt.Errorf("LEDGER_RETENTION_DAYS must be at least %d, got %d", minRetentionDays, cfg.LedgerRetentionDays)
	}
	if cfg.LedgerPruneThreshold, err = intEnv(getenv, "LEDGER_PRUNE_THRESHOLD", defaultPruneThreshold); err != nil {
		return nil, err
	}
	if cfg.DispatchRatePerSec, err = intEnv(getenv, "DISPATCH_RATE_PER_SEC", defaultDispatchRate); err != nil {
		return nil, err
	}

	cfg.Triggers = make(map[notification.Stream][]calendar.Clock, len(notification.Streams))
	for _, stream := range notification.Streams {
		key := triggerEnv[stream]
		raw := getenv(key)
		if raw == "" {
			raw = defaultTriggers[stream]
		}
		clocks, err := calendar.ParseClocks(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		cfg.Triggers[stream] = clocks
	}

	return cfg, nil
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
