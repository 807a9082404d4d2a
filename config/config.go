/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config holds the recognized options of an entityflow runtime. They
// are read from an optional YAML file, then a .env file, then ENTITYFLOW_*
// environment variables, each layer overriding the one before.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	sterrors "github.com/suparena/entityflow/errors"
	"gopkg.in/yaml.v3"
)

// Queue kinds.
const (
	QueueFIFO     = "fifo"
	QueuePriority = "priority"
)

// Notifier backends.
const (
	BackendDirect   = "direct"
	BackendLocal    = "local"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// Config is the configuration of an entityflow runtime. Every option may be
// overridden by an ENTITYFLOW_* environment variable named by its env tag.
type Config struct {
	Batch   Batch   `yaml:"batch" group:"Batch" namespace:"batch" env-namespace:"BATCH"`
	Queue   Queue   `yaml:"queue" group:"Queue" namespace:"queue" env-namespace:"QUEUE"`
	Cache   Cache   `yaml:"cache" group:"Cache" namespace:"cache" env-namespace:"CACHE"`
	Storage Storage `yaml:"storage" group:"Storage" namespace:"storage" env-namespace:"STORAGE"`
	Notify  Notify  `yaml:"notify" group:"Notify" namespace:"notify"`
	Log     Log     `yaml:"log" group:"Log" namespace:"log" env-namespace:"LOG"`
	Metrics Metrics `yaml:"metrics" group:"Metrics" namespace:"metrics" env-namespace:"METRICS"`
}

// Batch configures batch accumulators.
type Batch struct {
	// Threshold is the buffer size beyond which a flush starts at once.
	Threshold int `yaml:"threshold" long:"threshold" env:"THRESHOLD" description:"Buffered records which start a flush"`
	// IdleInterval is the longest a record waits in the buffer.
	IdleInterval time.Duration `yaml:"idle_interval" long:"idle-interval" env:"IDLE_INTERVAL" description:"Longest a record waits in the buffer"`
}

// Queue configures the default transaction queue and units built through it.
type Queue struct {
	Kind                  string `yaml:"kind" long:"kind" env:"KIND" description:"Queue ordering (fifo, priority)"`
	RunInTransaction      bool   `yaml:"run_in_transaction" long:"run-in-transaction" env:"RUN_IN_TRANSACTION" description:"Run units in a storage transaction"`
	CallbacksOnSameThread bool   `yaml:"callbacks_on_same_thread" long:"callbacks-on-same-thread" env:"CALLBACKS_ON_SAME_THREAD" description:"Run callbacks on the queue worker"`
}

// Cache configures model caches. A Size of 0 leaves caches unbounded.
type Cache struct {
	Size int `yaml:"size" long:"size" env:"SIZE" description:"Records cached per table, 0 for unbounded"`
}

// Storage configures the sqlite database.
type Storage struct {
	Path string `yaml:"path" long:"path" env:"PATH" description:"SQLite DSN"`
}

// Notify selects and configures the change notifier backend.
type Notify struct {
	Backend  string   `yaml:"backend" long:"backend" env:"NOTIFY_BACKEND" description:"Notifier backend (direct, local, redis, dynamodb)"`
	Redis    Redis    `yaml:"redis" group:"Redis" namespace:"redis" env-namespace:"REDIS"`
	DynamoDB DynamoDB `yaml:"dynamodb" group:"DynamoDB" namespace:"dynamodb" env-namespace:"DYNAMODB"`
}

// Redis configures the Redis broadcast bus.
type Redis struct {
	Address  string `yaml:"address" long:"address" env:"ADDRESS" description:"Redis host:port"`
	Password string `yaml:"password" long:"password" env:"PASSWORD" description:"Redis password"`
	DB       int    `yaml:"db" long:"db" env:"DB" description:"Redis database number"`
}

// DynamoDB configures the DynamoDB change journal.
type DynamoDB struct {
	Table        string        `yaml:"table" long:"table" env:"TABLE" description:"Journal table name"`
	Region       string        `yaml:"region" long:"region" env:"REGION" description:"AWS region"`
	AccessKey    string        `yaml:"access_key" long:"access-key" env:"ACCESS_KEY" description:"AWS access key"`
	SecretKey    string        `yaml:"secret_key" long:"secret-key" env:"SECRET_KEY" description:"AWS secret key"`
	PollInterval time.Duration `yaml:"poll_interval" long:"poll-interval" env:"POLL_INTERVAL" description:"Delay between journal polls"`
}

// Log configures logrus.
type Log struct {
	Level string `yaml:"level" long:"level" env:"LEVEL" description:"Logging level (debug, info, warn, error)"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Address string `yaml:"address" long:"address" env:"ADDRESS" description:"Address serving /metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Batch: Batch{
			Threshold:    50,
			IdleInterval: 30 * time.Second,
		},
		Queue: Queue{
			Kind:             QueueFIFO,
			RunInTransaction: true,
		},
		Storage: Storage{Path: "file::memory:"},
		Notify: Notify{
			Backend: BackendDirect,
			Redis:   Redis{Address: "localhost:6379"},
			DynamoDB: DynamoDB{
				Region:       "us-east-1",
				PollInterval: 5 * time.Second,
			},
		},
		Log:     Log{Level: "info"},
		Metrics: Metrics{Address: ":9090"},
	}
}

// Load builds a Config from Default, the YAML file at path if path is not
// empty, the given .env files (or ./.env if present), and the environment.
// The result is validated.
func Load(path string, dotenv ...string) (Config, error) {
	var cfg = Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.WithMessage(err, "reading config")
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.WithMessagef(err, "parsing config %s", path)
		}
	}

	if len(dotenv) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			dotenv = []string{".env"}
		}
	}
	if len(dotenv) != 0 {
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(dotenv...); err != nil {
			return cfg, errors.WithMessage(err, "loading .env")
		}
		log.WithField("files", dotenv).Debug("loaded environment files")
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides c with every ENTITYFLOW_* variable which is set. Options
// without a variable keep their current value.
func (c *Config) applyEnv() error {
	var opts = struct {
		Config *Config `group:"entityflow" env-namespace:"ENTITYFLOW"`
	}{c}

	if _, err := flags.NewParser(&opts, flags.None).ParseArgs(nil); err != nil {
		return sterrors.NewValidationError("environment", err.Error())
	}
	return nil
}

// Validate returns a ValidationError for the first invalid option.
func (c Config) Validate() error {
	if c.Batch.Threshold <= 0 {
		return sterrors.NewValidationError("batch.threshold", "must be positive")
	} else if c.Batch.IdleInterval <= 0 {
		return sterrors.NewValidationError("batch.idle_interval", "must be positive")
	} else if c.Queue.Kind != QueueFIFO && c.Queue.Kind != QueuePriority {
		return sterrors.NewValidationError("queue.kind", "must be fifo or priority, not "+strconv.Quote(c.Queue.Kind))
	} else if c.Cache.Size < 0 {
		return sterrors.NewValidationError("cache.size", "must not be negative")
	} else if c.Storage.Path == "" {
		return sterrors.NewValidationError("storage.path", "is required")
	} else if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return sterrors.NewValidationError("log.level", err.Error())
	}

	switch c.Notify.Backend {
	case BackendDirect, BackendLocal:
	case BackendRedis:
		if c.Notify.Redis.Address == "" {
			return sterrors.NewValidationError("notify.redis.address", "is required")
		}
	case BackendDynamoDB:
		if c.Notify.DynamoDB.Table == "" {
			return sterrors.NewValidationError("notify.dynamodb.table", "is required")
		} else if c.Notify.DynamoDB.Region == "" {
			return sterrors.NewValidationError("notify.dynamodb.region", "is required")
		} else if c.Notify.DynamoDB.PollInterval <= 0 {
			return sterrors.NewValidationError("notify.dynamodb.poll_interval", "must be positive")
		}
	default:
		return sterrors.NewValidationError("notify.backend", "unknown backend "+strconv.Quote(c.Notify.Backend))
	}
	return nil
}

// ApplyLogging sets the logrus level from c.
func (c Config) ApplyLogging() error {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return sterrors.NewValidationError("log.level", err.Error())
	}
	log.SetLevel(lvl)
	return nil
}
