package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"partner/internal/core/application/engine"
	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/jobs"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	LogLevel        string
	ShutdownTimeout time.Duration
	PartnerID       string

	// Postgres is optional; without DBHost delivery history is not kept.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// Redis is optional; without RedisAddr state lives in process memory only.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	// Kafka is optional; without brokers samples are not streamed upstream.
	KafkaBrokers       []string
	KafkaLocationTopic string

	OSRMEndpoint  string
	RouteTimeout  time.Duration
	WalletURL     string
	WalletToken   string
	WalletTimeout time.Duration

	OfferCountdown int
	ArrivalPolicy  engine.ArrivalPolicy
	ArrivalRadius  float64
	Dwell          time.Duration
	SettleDelay    time.Duration

	AlertGap  time.Duration
	AlertClip time.Duration

	DemoOffers bool
	Schedules  jobs.Schedules
}

func defaultConfig() Config {
	return Config{
		HTTPPort:           "8080",
		LogLevel:           "info",
		ShutdownTimeout:    15 * time.Second,
		PartnerID:          "partner-local",
		DBPort:             "5432",
		DBSslMode:          "disable",
		KafkaLocationTopic: "partner-locations",
		OSRMEndpoint:       "https://router.project-osrm.org",
		RouteTimeout:       engine.DefaultRouteTimeout,
		WalletURL:          "http://localhost:8081",
		WalletTimeout:      5 * time.Second,
		OfferCountdown:     lifecycle.DefaultCountdown,
		ArrivalPolicy:      engine.ArrivalDwell,
		ArrivalRadius:      engine.DefaultArrivalRadius,
		Dwell:              engine.DefaultDwell,
		SettleDelay:        gesture.SettleDelay,
		AlertGap:           500 * time.Millisecond,
		AlertClip:          2 * time.Second,
		DemoOffers:         true,
		Schedules:          jobs.DefaultSchedules(),
	}
}

// LoadConfig reads envFile when it exists, then the environment. Every malformed
// variable is reported, not just the first.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := defaultConfig()
	var problems []error

	setStringFromEnv(&cfg.HTTPPort, "HTTP_PORT")
	setStringFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	setDurationFromEnv(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", &problems)
	setStringFromEnv(&cfg.PartnerID, "PARTNER_ID")

	setStringFromEnv(&cfg.DBHost, "DB_HOST")
	setStringFromEnv(&cfg.DBPort, "DB_PORT")
	setStringFromEnv(&cfg.DBUser, "DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	setStringFromEnv(&cfg.DBName, "DB_NAME")
	setStringFromEnv(&cfg.DBSslMode, "DB_SSLMODE")

	setStringFromEnv(&cfg.RedisAddr, "REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setIntFromEnv(&cfg.RedisDB, "REDIS_DB", &problems)
	setStringFromEnv(&cfg.RedisChannel, "REDIS_CHANNEL")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaLocationTopic, "KAFKA_LOCATION_TOPIC")

	setStringFromEnv(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")
	setDurationFromEnv(&cfg.RouteTimeout, "ROUTE_TIMEOUT", &problems)
	setStringFromEnv(&cfg.WalletURL, "WALLET_URL")
	cfg.WalletToken = os.Getenv("WALLET_TOKEN")
	setDurationFromEnv(&cfg.WalletTimeout, "WALLET_TIMEOUT", &problems)

	setIntFromEnv(&cfg.OfferCountdown, "OFFER_COUNTDOWN", &problems)
	if v := os.Getenv("ARRIVAL_POLICY"); v != "" {
		p, err := engine.ParseArrivalPolicy(v)
		if err != nil {
			problems = append(problems, fmt.Errorf("invalid ARRIVAL_POLICY: %w", err))
		} else {
			cfg.ArrivalPolicy = p
		}
	}
	setFloatFromEnv(&cfg.ArrivalRadius, "ARRIVAL_RADIUS_METERS", &problems)
	setDurationFromEnv(&cfg.Dwell, "ARRIVAL_DWELL", &problems)
	setDurationFromEnv(&cfg.SettleDelay, "SWIPE_SETTLE_DELAY", &problems)

	setDurationFromEnv(&cfg.AlertGap, "ALERT_GAP", &problems)
	setDurationFromEnv(&cfg.AlertClip, "ALERT_CLIP", &problems)

	setBoolFromEnv(&cfg.DemoOffers, "DEMO_OFFERS", &problems)
	setStringFromEnv(&cfg.Schedules.OfferPoll, "OFFER_POLL_SCHEDULE")
	setStringFromEnv(&cfg.Schedules.PresencePoll, "PRESENCE_POLL_SCHEDULE")
	setStringFromEnv(&cfg.Schedules.MarkerHealth, "MARKER_HEALTH_SCHEDULE")
	setStringFromEnv(&cfg.Schedules.WalletRefresh, "WALLET_REFRESH_SCHEDULE")

	if cfg.OfferCountdown <= 0 {
		problems = append(problems, errors.New("OFFER_COUNTDOWN must be > 0"))
	}
	if cfg.ArrivalRadius <= 0 {
		problems = append(problems, errors.New("ARRIVAL_RADIUS_METERS must be > 0"))
	}
	if cfg.DBHost != "" && (cfg.DBUser == "" || cfg.DBName == "") {
		problems = append(problems, errors.New("DB_USER and DB_NAME are required with DB_HOST"))
	}

	return cfg, errors.Join(problems...)
}

// DSN is the postgres connection string, or "" when no database is configured.
func (c Config) DSN() string {
	if c.DBHost == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Countdown = c.OfferCountdown
	cfg.ArrivalPolicy = c.ArrivalPolicy
	cfg.ArrivalRadius = c.ArrivalRadius
	cfg.Dwell = c.Dwell
	cfg.SettleDelay = c.SettleDelay
	cfg.RouteTimeout = c.RouteTimeout
	return cfg
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func setDurationFromEnv(target *time.Duration, key string, problems *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*problems = append(*problems, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setIntFromEnv(target *int, key string, problems *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*problems = append(*problems, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setFloatFromEnv(target *float64, key string, problems *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*problems = append(*problems, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setBoolFromEnv(target *bool, key string, problems *[]error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*problems = append(*problems, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
