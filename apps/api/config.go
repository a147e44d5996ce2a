package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"` // json | console

	DatabaseURL      string `env:"DATABASE_URL,required"`
	DatabaseSchema   string `env:"DATABASE_SCHEMA"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	AutoMigrate      bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	AuthProvider   string `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | hmac | dev
	AuthHMACSecret string `env:"AUTH_HMAC_SECRET"`
	FirebaseConfig string `env:"FIREBASE_CONFIG"` // service account file; empty uses application default credentials

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	RedisURL         string        `env:"REDIS_URL"`
	ReportCacheTTL   time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`
	ExportRateLimit  int           `env:"EXPORT_RATE_LIMIT" envDefault:"1"`
	ExportRateWindow time.Duration `env:"EXPORT_RATE_WINDOW" envDefault:"1m"`

	EventsBackend string   `env:"EVENTS_BACKEND" envDefault:"none"` // none | rabbitmq | kafka
	RabbitMQURL   string   `env:"RABBITMQ_URL"`
	RabbitMQQueue string   `env:"RABBITMQ_QUEUE" envDefault:"wedding-admin.events"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic    string   `env:"KAFKA_TOPIC" envDefault:"wedding-admin.events"`

	StorageBackend  string `env:"STORAGE_BACKEND" envDefault:"none"` // none | gcs | local
	StorageBucket   string `env:"STORAGE_BUCKET"`                    // required when STORAGE_BACKEND=gcs
	StoragePrefix   string `env:"STORAGE_PREFIX"`
	StorageLocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./.data/storage"`

	CapacityAlertSchedule  string  `env:"CAPACITY_ALERT_SCHEDULE" envDefault:"@every 15m"` // empty disables the job
	CapacityAlertThreshold float64 `env:"CAPACITY_ALERT_THRESHOLD" envDefault:"0.9"`
}

// loadConfig reads an optional .env file and then the process environment.
func loadConfig(envFiles ...string) (config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	var errs []error
	switch c.AuthProvider {
	case "firebase", "dev":
	case "hmac":
		if c.AuthHMACSecret == "" {
			errs = append(errs, errors.New("AUTH_HMAC_SECRET is required when AUTH_PROVIDER=hmac"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_PROVIDER %q (use firebase, hmac or dev)", c.AuthProvider))
	}

	switch c.EventsBackend {
	case "none":
	case "rabbitmq":
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required when EVENTS_BACKEND=rabbitmq"))
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENTS_BACKEND=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported EVENTS_BACKEND %q (use none, rabbitmq or kafka)", c.EventsBackend))
	}

	switch c.StorageBackend {
	case "none", "local":
	case "gcs":
		if c.StorageBucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required when STORAGE_BACKEND=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q (use none, gcs or local)", c.StorageBackend))
	}

	if c.CapacityAlertThreshold <= 0 {
		errs = append(errs, errors.New("CAPACITY_ALERT_THRESHOLD must be positive"))
	}
	return errors.Join(errs...)
}
