package config

import (
	"corequeue/internal/domain"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Redis     Redis
	Postgres  Postgres
	Scheduler Scheduler
	Exchange  Exchange
	Log       Log
	Metrics   Metrics
	Tracing   Tracing
	API       API
}

type Redis struct {
	Addr            string `env:"Redis_Address" envDefault:"localhost:6379"`
	Password        string `env:"Redis_Password"`
	DB              int    `env:"Redis_DB"`
	QueueKey        string `env:"Redis_QueueKey" envDefault:"core:requests"`
	ResultNamespace string `env:"Redis_ResultNamespace" envDefault:"request_queue_handler"`
}

type Postgres struct {
	DSN string `env:"Postgres_DSN"`
}

type Scheduler struct {
	MaxRequestsPerSecond     int    `env:"Scheduler_MaxRequestsPerSecond" envDefault:"20"`
	DefaultPriorityClass     int    `env:"Scheduler_DefaultPriorityClass" envDefault:"5"`
	QueueWaitTimeoutSeconds  int    `env:"Scheduler_QueueWaitTimeoutSeconds" envDefault:"30"`
	ResultTTLSeconds         int    `env:"Scheduler_ResultTTLSeconds" envDefault:"7200"`
	IngestorPollIntervalMs   int    `env:"Scheduler_IngestorPollIntervalMs" envDefault:"100"`
	InterDispatchDelayMs     int    `env:"Scheduler_InterDispatchDelayMs" envDefault:"15"`
	ShutdownGraceSeconds     int    `env:"Scheduler_ShutdownGraceSeconds" envDefault:"10"`
	PrioritiesFile           string `env:"Scheduler_PrioritiesFile"`
	RendezvousPollIntervalMs int    `env:"Scheduler_RendezvousPollIntervalMs" envDefault:"100"`
}

func (s Scheduler) QueueWaitTimeout() time.Duration {
	return time.Duration(s.QueueWaitTimeoutSeconds) * time.Second
}

func (s Scheduler) ResultTTL() time.Duration { return time.Duration(s.ResultTTLSeconds) * time.Second }

func (s Scheduler) IngestorPollInterval() time.Duration {
	return time.Duration(s.IngestorPollIntervalMs) * time.Millisecond
}

func (s Scheduler) InterDispatchDelay() time.Duration {
	return time.Duration(s.InterDispatchDelayMs) * time.Millisecond
}

func (s Scheduler) ShutdownGrace() time.Duration {
	return time.Duration(s.ShutdownGraceSeconds) * time.Second
}

func (s Scheduler) RendezvousPollInterval() time.Duration {
	return time.Duration(s.RendezvousPollIntervalMs) * time.Millisecond
}

type Exchange struct {
	BaseURL        string        `env:"Exchange_BaseURL" envDefault:"https://api.coinex.com/"`
	RequestTimeout time.Duration `env:"Exchange_RequestTimeout" envDefault:"10s"`
}

type Log struct {
	Level      string `env:"Log_Level" envDefault:"info"`
	Format     string `env:"Log_Format" envDefault:"console"`
	File       string `env:"Log_File"`
	MaxSizeMB  int    `env:"Log_MaxSizeMB" envDefault:"100"`
	MaxBackups int    `env:"Log_MaxBackups" envDefault:"7"`
	MaxAgeDays int    `env:"Log_MaxAgeDays" envDefault:"30"`
	Compress   bool   `env:"Log_Compress" envDefault:"true"`
}

type Metrics struct {
	Address string `env:"Metrics_Address" envDefault:":9090"`
}

type Tracing struct {
	// Exporter is "none" or "stdout".
	Exporter    string `env:"Tracing_Exporter" envDefault:"none"`
	ServiceName string `env:"Tracing_ServiceName" envDefault:"corequeue"`
}

type API struct {
	Port int `env:"API_Port" envDefault:"8080"`
}

// ConfigurationError is fatal at startup.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigurationError) Unwrap() error { return domain.ErrInvalidConfig }

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", errors.Join(domain.ErrInvalidConfig, err))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	var problems []string
	s := c.Scheduler
	if strings.TrimSpace(c.Redis.Addr) == "" {
		problems = append(problems, "Redis_Address is required")
	}
	if strings.TrimSpace(c.Redis.QueueKey) == "" {
		problems = append(problems, "Redis_QueueKey is required")
	}
	if s.MaxRequestsPerSecond <= 0 {
		problems = append(problems, "Scheduler_MaxRequestsPerSecond must be > 0")
	}
	if s.DefaultPriorityClass < 0 {
		problems = append(problems, "Scheduler_DefaultPriorityClass must be >= 0")
	}
	if s.QueueWaitTimeoutSeconds <= 0 {
		problems = append(problems, "Scheduler_QueueWaitTimeoutSeconds must be > 0")
	}
	if s.ResultTTLSeconds <= 0 {
		problems = append(problems, "Scheduler_ResultTTLSeconds must be > 0")
	}
	if s.IngestorPollIntervalMs <= 0 {
		problems = append(problems, "Scheduler_IngestorPollIntervalMs must be > 0")
	}
	if s.InterDispatchDelayMs < 0 {
		problems = append(problems, "Scheduler_InterDispatchDelayMs must be >= 0")
	}
	if s.RendezvousPollIntervalMs <= 0 {
		problems = append(problems, "Scheduler_RendezvousPollIntervalMs must be > 0")
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// ValidateWorker adds the checks only the worker process needs.
func (c *Config) ValidateWorker() error {
	var problems []string
	if err := c.Validate(); err != nil {
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) {
			return err
		}
		problems = append(problems, cerr.Problems...)
	}
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		problems = append(problems, "Postgres_DSN is required for credential lookups")
	}
	if strings.TrimSpace(c.Exchange.BaseURL) == "" {
		problems = append(problems, "Exchange_BaseURL is required")
	}
	if c.Scheduler.ShutdownGraceSeconds < 0 {
		problems = append(problems, "Scheduler_ShutdownGraceSeconds must be >= 0")
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}
