package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted by STORE_DRIVER
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type App struct {
	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Storage
	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	// RabbitMQ; publishing is disabled when RabbitURL is empty
	RabbitURL       string `envconfig:"RABBIT_URL"`
	AuctionExchange string `envconfig:"AUCTION_EXCHANGE" default:"auction.exchange"`

	// Bidding
	LockWait           time.Duration `envconfig:"LOCK_WAIT" default:"2s"`
	MaxConflictRetries int           `envconfig:"MAX_CONFLICT_RETRIES" default:"3"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"1s"`
	HistoryMaxLimit    int           `envconfig:"HISTORY_MAX_LIMIT" default:"200"`

	// Observability
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"proxybid"`
	Env          string `envconfig:"ENV" default:"dev"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate rejects settings the service cannot start with
func (c App) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.LockWait <= 0 {
		return fmt.Errorf("LOCK_WAIT must be positive, got %s", c.LockWait)
	}
	if c.MaxConflictRetries < 0 {
		return fmt.Errorf("MAX_CONFLICT_RETRIES must not be negative, got %d", c.MaxConflictRetries)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.HistoryMaxLimit <= 0 {
		return fmt.Errorf("HISTORY_MAX_LIMIT must be positive, got %d", c.HistoryMaxLimit)
	}
	return nil
}
