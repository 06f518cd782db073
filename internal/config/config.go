package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	FaxAPIURL      string `env:"FAX_API_URL,default="`
	FaxAPIUsername string `env:"FAX_API_USERNAME,default="`
	FaxAPIPassword string `env:"FAX_API_PASSWORD,default="`

	FCLDir        string `env:"FCL_DIR,default=/mnt/rightfax/fcl"`
	InboundXMLDir string `env:"INBOUND_XML_DIR,default=/mnt/rightfax/xml"`
	XMLArchiveDir string `env:"XML_ARCHIVE_DIR,default=/var/lib/faxrelay/xml_archive"`

	XMLRetentionDays     int `env:"XML_RETENTION_DAYS,default=90"`
	MaxBatchSize         int `env:"MAX_BATCH_SIZE,default=100000"`
	MaxIntervalSeconds   int `env:"MAX_INTERVAL_SECONDS,default=300"`
	SubmitTimeoutSeconds int `env:"SUBMIT_TIMEOUT_SECONDS,default=30"`
	SettleDelayMillis    int `env:"SETTLE_DELAY_MILLIS,default=1000"`
	StabilityPollMillis  int `env:"STABILITY_POLL_MILLIS,default=500"`
	StabilityTimeoutSecs int `env:"STABILITY_TIMEOUT_SECONDS,default=30"`
	SweepIntervalHours   int `env:"SWEEP_INTERVAL_HOURS,default=24"`
	RateLimitPerSec      int `env:"RATE_LIMIT_PER_SEC,default=100"`
	WorkerConcurrency    int `env:"WORKER_CONCURRENCY,default=8"`
	APIPort              int `env:"API_PORT,default=8080"`
	WorkerMetricsPort    int `env:"WORKER_METRICS_PORT,default=9090"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
