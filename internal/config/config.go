package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// Config holds configuration settings for the approval engine
	Config struct {
		// Data files & definitions
		DataDir  string
		LogLevel string

		// Stores & Archiving
		StoreBackend string
		RunStore     timebox.StoreConfig
		ArchiveURL   string

		// Risk Evaluation
		Risk  RiskConfig
		Retry api.RetryConfig

		// Notifications
		ERPEndpoint string
		ERPTimeout  int64
		NotifyBatch int

		// Engine
		MaxSteps        int
		BatchWorkers    int
		RiskCacheSize   int
		RunCacheSize    int
		NotifyWorkers   int
		EvalTimeout     int64
		ShutdownTimeout time.Duration
		WatchDebounce   time.Duration
		ArchiveInterval time.Duration
		ArchiveAge      time.Duration
		ArchivePoll     time.Duration
	}

	// RiskConfig holds credentials and provider selection for the LLM
	// backed risk evaluator
	RiskConfig struct {
		Provider    string
		OpenAIKey   string
		DeepSeekKey string
	}
)

const (
	DefaultEvalTimeout     = 30 * api.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultWatchDebounce   = 250 * time.Millisecond
	DefaultArchiveInterval = time.Hour
	DefaultArchiveAge      = 30 * 24 * time.Hour
	DefaultArchivePoll     = 5 * time.Second

	DefaultDataDir      = "data"
	DefaultRedisDB      = 0
	DefaultProvider     = "openai"
	DefaultStoreBackend = "file"

	DefaultRedisEndpoint       = "localhost:6379"
	DefaultRedisPrefix         = "signoff"
	DefaultSnapshotWorkers     = 4
	DefaultSnapshotQueueSize   = 1000
	DefaultSnapshotSaveTimeout = 30 * time.Second

	DefaultMaxSteps      = 100
	DefaultBatchWorkers  = 4
	DefaultRiskCacheSize = 4096
	DefaultRunCacheSize  = 4096
	DefaultNotifyWorkers = 2
	DefaultNotifyBatch   = 16
	DefaultERPTimeout    = 10 * api.Second

	DefaultRetryMaxRetries  = 3
	DefaultRetryInitBackoff = 1 * api.Second
	DefaultMaxRetryBackoff  = 30 * api.Second
	DefaultRetryBackoffType = api.BackoffTypeExponential

	MaxMaxSteps         = 10_000
	MaxBatchWorkers     = 256
	MaxRiskCacheSize    = 1_000_000
	MaxRunCacheSize     = 1_000_000
	MaxNotifyWorkers    = 64
	MaxNotifyBatch      = 1024
	MaxEvalTimeout      = api.Hour
	MaxERPTimeout       = api.Hour
	MaxRetryMaxRetries  = 100
	MaxRetryInitBackoff = 24 * 60 * api.Minute // 1 day in ms
	MaxRetryMaxBackoff  = MaxRetryInitBackoff
)

var (
	ErrDataDirEmpty      = errors.New("data directory cannot be empty")
	ErrInvalidMaxSteps   = errors.New("max steps must be positive")
	ErrInvalidWorkers    = errors.New("worker count must be positive")
	ErrInvalidBatchSize  = errors.New("notify batch size must be positive")
	ErrInvalidTimeout    = errors.New("eval timeout must be positive")
	ErrInvalidERPTimeout = errors.New("erp timeout must be positive")
	ErrInvalidRetryCount = errors.New("retry max retries cannot be negative")
	ErrInvalidProvider   = errors.New("invalid risk provider")
	ErrInvalidBackend    = errors.New("invalid store backend")
)

var (
	validProviders = map[string]bool{
		"openai":    true,
		"deepseek":  true,
		"heuristic": true,
	}

	validBackends = map[string]bool{
		"file":  true,
		"redis": true,
	}
)

// NewDefaultConfig creates a configuration with sensible defaults for all
// engine settings, stores, and retry behavior
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:      DefaultDataDir,
		LogLevel:     "info",
		StoreBackend: DefaultStoreBackend,
		// TrimEvents stays off: archived runs ship their full trails
		RunStore: timebox.StoreConfig{
			Addr:         DefaultRedisEndpoint,
			Password:     "",
			DB:           DefaultRedisDB,
			Prefix:       DefaultRedisPrefix,
			WorkerCount:  DefaultSnapshotWorkers,
			MaxQueueSize: DefaultSnapshotQueueSize,
			SaveTimeout:  DefaultSnapshotSaveTimeout,
		},
		Risk: RiskConfig{
			Provider: DefaultProvider,
		},
		Retry: api.RetryConfig{
			MaxRetries:  DefaultRetryMaxRetries,
			InitBackoff: DefaultRetryInitBackoff,
			MaxBackoff:  DefaultMaxRetryBackoff,
			BackoffType: DefaultRetryBackoffType,
		},
		ERPTimeout:      DefaultERPTimeout,
		NotifyBatch:     DefaultNotifyBatch,
		MaxSteps:        DefaultMaxSteps,
		BatchWorkers:    DefaultBatchWorkers,
		RiskCacheSize:   DefaultRiskCacheSize,
		RunCacheSize:    DefaultRunCacheSize,
		NotifyWorkers:   DefaultNotifyWorkers,
		EvalTimeout:     DefaultEvalTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		WatchDebounce:   DefaultWatchDebounce,
		ArchiveInterval: DefaultArchiveInterval,
		ArchiveAge:      DefaultArchiveAge,
		ArchivePoll:     DefaultArchivePoll,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	LoadStoreConfigFromEnv(&c.RunStore, "RUN")

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.DataDir = dataDir
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if archiveURL := os.Getenv("ARCHIVE_URL"); archiveURL != "" {
		c.ArchiveURL = archiveURL
	}
	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		c.StoreBackend = backend
	}
	if endpoint := os.Getenv("ERP_ENDPOINT"); endpoint != "" {
		c.ERPEndpoint = endpoint
	}
	if provider := os.Getenv("RISK_PROVIDER"); provider != "" {
		c.Risk.Provider = provider
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Risk.OpenAIKey = key
	}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		c.Risk.DeepSeekKey = key
	}
	if backoffType := os.Getenv("RETRY_BACKOFF_TYPE"); backoffType != "" {
		c.Retry.BackoffType = backoffType
	}

	if err := loadEnvInt("MAX_STEPS", &c.MaxSteps, 0, MaxMaxSteps); err != nil {
		return err
	}
	if err := loadEnvInt(
		"BATCH_WORKERS", &c.BatchWorkers, 0, MaxBatchWorkers,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"RISK_CACHE_SIZE", &c.RiskCacheSize, 0, MaxRiskCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"RUN_CACHE_SIZE", &c.RunCacheSize, 0, MaxRunCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"NOTIFY_WORKERS", &c.NotifyWorkers, 0, MaxNotifyWorkers,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EVAL_TIMEOUT", &c.EvalTimeout, 0, MaxEvalTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"ERP_TIMEOUT", &c.ERPTimeout, 0, MaxERPTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"NOTIFY_BATCH", &c.NotifyBatch, 0, MaxNotifyBatch,
	); err != nil {
		return err
	}

	if err := loadEnvInt(
		"RETRY_MAX_RETRIES", &c.Retry.MaxRetries, 0, MaxRetryMaxRetries,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"RETRY_INITIAL_BACKOFF", &c.Retry.InitBackoff, 0, MaxRetryInitBackoff,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"RETRY_MAX_BACKOFF", &c.Retry.MaxBackoff, 0, MaxRetryMaxBackoff,
	); err != nil {
		return err
	}

	if err := loadEnvDuration(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvDuration("WATCH_DEBOUNCE", &c.WatchDebounce); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"ARCHIVE_INTERVAL", &c.ArchiveInterval,
	); err != nil {
		return err
	}
	if err := loadEnvDuration("ARCHIVE_AGE", &c.ArchiveAge); err != nil {
		return err
	}
	if err := loadEnvDuration("ARCHIVE_POLL", &c.ArchivePoll); err != nil {
		return err
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}

	if c.MaxSteps <= 0 {
		return ErrInvalidMaxSteps
	}

	if c.BatchWorkers <= 0 || c.NotifyWorkers <= 0 {
		return ErrInvalidWorkers
	}

	if c.NotifyBatch <= 0 {
		return ErrInvalidBatchSize
	}

	if c.EvalTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ERPTimeout <= 0 {
		return ErrInvalidERPTimeout
	}

	if c.Retry.MaxRetries < 0 {
		return ErrInvalidRetryCount
	}

	if err := c.Retry.Validate(); err != nil {
		return err
	}

	if !validProviders[c.Risk.Provider] {
		return fmt.Errorf("%w: %s", ErrInvalidProvider, c.Risk.Provider)
	}

	if !validBackends[c.StoreBackend] {
		return fmt.Errorf("%w: %s", ErrInvalidBackend, c.StoreBackend)
	}

	return nil
}

// LoadStoreConfigFromEnv loads Redis store configuration from environment
// variables with the given prefix (e.g., "RUN")
func LoadStoreConfigFromEnv(s *timebox.StoreConfig, prefix string) {
	if addr := os.Getenv(prefix + "_REDIS_ADDR"); addr != "" {
		s.Addr = addr
	}
	if password := os.Getenv(prefix + "_REDIS_PASSWORD"); password != "" {
		s.Password = password
	}
	if dbStr := os.Getenv(prefix + "_REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err == nil {
			s.DB = db
		}
	}
	if envPrefix := os.Getenv(prefix + "_REDIS_PREFIX"); envPrefix != "" {
		s.Prefix = envPrefix
	}
	if envCount := os.Getenv(prefix + "_SNAPSHOT_WORKERS"); envCount != "" {
		if wc, err := strconv.Atoi(envCount); err == nil && wc >= 0 {
			s.WorkerCount = wc
		}
	}
}

// loadEnvDuration reads key from the environment, parses it with
// time.ParseDuration, and sets *dst when the value is positive
func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s: %s must be positive", key, d)
	}
	*dst = d
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
