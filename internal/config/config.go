package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken   string
	BaseAdminChatID int64
	DatabaseURL     string
	Debug           bool

	LogLevel string
	LogFile  string

	Location *time.Location

	OfficeLatitude       float64
	OfficeLongitude      float64
	OfficeRadiusMeters   float64
	MaxFixAccuracyMeters float64
	EnterDwell           time.Duration
	ExitDwell            time.Duration
	MaxSessionDuration   time.Duration
	StaleSweepInterval   time.Duration
	PipelineQueueSize    int

	HolidaysFile      string
	RecomputeSchedule string
}

var instance *BotConfig
var once sync.Once

// GetBotConfig loads the configuration once and exits on invalid values.
func GetBotConfig() *BotConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load reads the configuration from the environment.
func Load() (*BotConfig, error) {
	cfg := &BotConfig{
		TelegramToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		BaseAdminChatID:      getEnvAsInt("BASE_ADMIN_CHAT_ID", 0),
		DatabaseURL:          getEnv("DATABASE_URL", "go2office.db"),
		Debug:                getEnvAsBool("BOT_DEBUG", false),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", ""),
		OfficeRadiusMeters:   getEnvAsFloat("OFFICE_RADIUS_METERS", 150),
		MaxFixAccuracyMeters: getEnvAsFloat("MAX_FIX_ACCURACY_METERS", 100),
		EnterDwell:           getEnvAsDuration("ENTER_DWELL", 3*time.Minute),
		ExitDwell:            getEnvAsDuration("EXIT_DWELL", 5*time.Minute),
		MaxSessionDuration:   getEnvAsDuration("MAX_SESSION_DURATION", 16*time.Hour),
		StaleSweepInterval:   getEnvAsDuration("STALE_SWEEP_INTERVAL", 15*time.Minute),
		PipelineQueueSize:    int(getEnvAsInt("PIPELINE_QUEUE_SIZE", 64)),
		HolidaysFile:         getEnv("HOLIDAYS_FILE", ""),
		RecomputeSchedule:    getEnv("RECOMPUTE_SCHEDULE", "5 0 * * *"),
	}

	if cfg.TelegramToken == "" {
		return nil, errors.New("could not get bot token")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("could not get db url")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	lat, latOK := lookupFloat("OFFICE_LATITUDE")
	lon, lonOK := lookupFloat("OFFICE_LONGITUDE")
	if !latOK || !lonOK {
		return nil, errors.New("OFFICE_LATITUDE and OFFICE_LONGITUDE are required")
	}
	cfg.OfficeLatitude, cfg.OfficeLongitude = lat, lon

	if cfg.OfficeRadiusMeters <= 0 {
		return nil, errors.New("OFFICE_RADIUS_METERS must be positive")
	}
	if cfg.MaxFixAccuracyMeters <= 0 {
		return nil, errors.New("MAX_FIX_ACCURACY_METERS must be positive")
	}
	if cfg.EnterDwell < 0 || cfg.ExitDwell < 0 {
		return nil, errors.New("dwell durations must not be negative")
	}
	if cfg.MaxSessionDuration <= 0 || cfg.StaleSweepInterval <= 0 {
		return nil, errors.New("MAX_SESSION_DURATION and STALE_SWEEP_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	if val, ok := lookupFloat(name); ok {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultVal
}

func lookupFloat(name string) (float64, bool) {
	val, err := strconv.ParseFloat(getEnv(name, ""), 64)
	if err != nil {
		return 0, false
	}
	return val, true
}
