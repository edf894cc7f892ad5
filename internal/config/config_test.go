package config_test

import (
	"os"
	"testing"

	"github.com/kode4food/timebox"
	testify "github.com/stretchr/testify/assert"

	"github.com/kode4food/signoff/internal/assert"
	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/pkg/api"
)

func TestConfigValidation(t *testing.T) {
	as := assert.New(t)

	t.Run("valid_default_config", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		as.ConfigValid(cfg)
	})

	t.Run("valid_test_config", func(t *testing.T) {
		cfg := helpers.NewTestConfig()
		as.ConfigValid(cfg)
	})

	tests := []struct {
		name          string
		configMod     func(*config.Config)
		errorContains string
	}{
		{
			name: "empty_data_dir",
			configMod: func(c *config.Config) {
				c.DataDir = ""
			},
			errorContains: "data directory cannot be empty",
		},
		{
			name: "zero_max_steps",
			configMod: func(c *config.Config) {
				c.MaxSteps = 0
			},
			errorContains: "max steps must be positive",
		},
		{
			name: "negative_max_steps",
			configMod: func(c *config.Config) {
				c.MaxSteps = -5
			},
			errorContains: "max steps must be positive",
		},
		{
			name: "zero_batch_workers",
			configMod: func(c *config.Config) {
				c.BatchWorkers = 0
			},
			errorContains: "worker count must be positive",
		},
		{
			name: "zero_notify_workers",
			configMod: func(c *config.Config) {
				c.NotifyWorkers = 0
			},
			errorContains: "worker count must be positive",
		},
		{
			name: "zero_eval_timeout",
			configMod: func(c *config.Config) {
				c.EvalTimeout = 0
			},
			errorContains: "eval timeout must be positive",
		},
		{
			name: "zero_notify_batch",
			configMod: func(c *config.Config) {
				c.NotifyBatch = 0
			},
			errorContains: "notify batch size must be positive",
		},
		{
			name: "zero_erp_timeout",
			configMod: func(c *config.Config) {
				c.ERPTimeout = 0
			},
			errorContains: "erp timeout must be positive",
		},
		{
			name: "negative_retry_count",
			configMod: func(c *config.Config) {
				c.Retry.MaxRetries = -1
			},
			errorContains: "retry max retries cannot be negative",
		},
		{
			name: "max_backoff_below_initial",
			configMod: func(c *config.Config) {
				c.Retry.InitBackoff = 5000
				c.Retry.MaxBackoff = 1000
			},
			errorContains: "max backoff must be >= initial backoff",
		},
		{
			name: "unknown_backoff_type",
			configMod: func(c *config.Config) {
				c.Retry.BackoffType = "randomized"
			},
			errorContains: "invalid backoff type",
		},
		{
			name: "unknown_risk_provider",
			configMod: func(c *config.Config) {
				c.Risk.Provider = "oracle"
			},
			errorContains: "invalid risk provider",
		},
		{
			name: "unknown_store_backend",
			configMod: func(c *config.Config) {
				c.StoreBackend = "postgres"
			},
			errorContains: "invalid store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.NewTestConfig()
			tt.configMod(cfg)
			as.ConfigInvalid(cfg, tt.errorContains)
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()

	as.Equal(config.DefaultDataDir, cfg.DataDir)
	as.Equal(config.DefaultMaxSteps, cfg.MaxSteps)
	as.Equal(config.DefaultEvalTimeout, cfg.EvalTimeout)
	as.Equal(config.DefaultShutdownTimeout, cfg.ShutdownTimeout)
	as.Equal(config.DefaultProvider, cfg.Risk.Provider)
	as.Equal(config.DefaultRedisEndpoint, cfg.RunStore.Addr)
	as.Equal(api.BackoffTypeExponential, cfg.Retry.BackoffType)
	as.Equal("info", cfg.LogLevel)
	as.False(cfg.RunStore.TrimEvents)
	as.Equal(config.DefaultRunCacheSize, cfg.RunCacheSize)
}

func TestStoreLoadFromEnv(t *testing.T) {
	tests := []struct {
		envVars          map[string]string
		name             string
		envPrefix        string
		checkAddr        string
		checkPassword    string
		checkPrefix      string
		checkDB          int
		checkWorkerCount *int
	}{
		{
			name:      "load_all_fields",
			envPrefix: "TEST",
			envVars: map[string]string{
				"TEST_REDIS_ADDR":       "redis.example.com:6379",
				"TEST_REDIS_PASSWORD":   "secret123",
				"TEST_REDIS_DB":         "5",
				"TEST_REDIS_PREFIX":     "custom-prefix",
				"TEST_SNAPSHOT_WORKERS": "6",
			},
			checkAddr:        "redis.example.com:6379",
			checkPassword:    "secret123",
			checkDB:          5,
			checkPrefix:      "custom-prefix",
			checkWorkerCount: func() *int { v := 6; return &v }(),
		},
		{
			name:      "load_addr_only",
			envPrefix: "APP",
			envVars: map[string]string{
				"APP_REDIS_ADDR": "localhost:9999",
			},
			checkAddr:     "localhost:9999",
			checkPassword: "",
			checkDB:       0,
			checkPrefix:   "",
		},
		{
			name:      "load_worker_zero",
			envPrefix: "ZERO",
			envVars: map[string]string{
				"ZERO_SNAPSHOT_WORKERS": "0",
			},
			checkWorkerCount: func() *int { v := 0; return &v }(),
		},
		{
			name:      "load_with_invalid_db",
			envPrefix: "INVALID",
			envVars: map[string]string{
				"INVALID_REDIS_DB": "not_a_number",
			},
			checkDB: 0,
		},
		{
			name:      "invalid_worker_ignored",
			envPrefix: "BADWORKER",
			envVars: map[string]string{
				"BADWORKER_SNAPSHOT_WORKERS": "not_a_number",
			},
		},
		{
			name:      "no_env_vars",
			envPrefix: "NONE",
			envVars:   map[string]string{},
			checkAddr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := assert.New(t)

			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
				t.Cleanup(func() { _ = os.Unsetenv(key) })
			}

			storeConfig := &timebox.StoreConfig{}
			config.LoadStoreConfigFromEnv(storeConfig, tt.envPrefix)

			if tt.checkAddr != "" {
				as.Equal(tt.checkAddr, storeConfig.Addr)
			}
			if tt.checkPassword != "" {
				as.Equal(tt.checkPassword, storeConfig.Password)
			}
			if tt.envVars[tt.envPrefix+"_REDIS_DB"] != "" {
				as.Equal(tt.checkDB, storeConfig.DB)
			}
			if tt.checkPrefix != "" {
				as.Equal(tt.checkPrefix, storeConfig.Prefix)
			}
			if tt.checkWorkerCount != nil {
				as.Equal(*tt.checkWorkerCount, storeConfig.WorkerCount)
			}
		})
	}
}

func TestConfigLoadFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *config.Config)
	}{
		{
			name: "load_data_dir",
			envVars: map[string]string{
				"DATA_DIR": "/var/lib/signoff",
			},
			check: func(t *testing.T, c *config.Config) {
				testify.Equal(t, "/var/lib/signoff", c.DataDir)
			},
		},
		{
			name: "load_max_steps",
			envVars: map[string]string{
				"MAX_STEPS": "250",
			},
			check: func(t *testing.T, c *config.Config) {
				testify.Equal(t, 250, c.MaxSteps)
			},
		},
		{
			name: "load_risk_provider",
			envVars: map[string]string{
				"RISK_PROVIDER":    "deepseek",
				"DEEPSEEK_API_KEY": "test-api-key",
			},
			check: func(t *testing.T, c *config.Config) {
				testify.Equal(t, "deepseek", c.Risk.Provider)
				testify.Equal(t, "test-api-key", c.Risk.DeepSeekKey)
			},
		},
		{
			name: "load_retry_settings",
			envVars: map[string]string{
				"RETRY_MAX_RETRIES":     "5",
				"RETRY_INITIAL_BACKOFF": "2000",
				"RETRY_MAX_BACKOFF":     "20000",
				"RETRY_BACKOFF_TYPE":    "linear",
			},
			check: func(t *testing.T, c *config.Config) {
				testify.Equal(t, 5, c.Retry.MaxRetries)
				testify.Equal(t, int64(2000), c.Retry.InitBackoff)
				testify.Equal(t, int64(20000), c.Retry.MaxBackoff)
				testify.Equal(t, api.BackoffTypeLinear, c.Retry.BackoffType)
			},
		},
		{
			name: "load_run_store",
			envVars: map[string]string{
				"RUN_REDIS_ADDR":   "redis.internal:6380",
				"RUN_REDIS_PREFIX": "signoff-prod",
			},
			check: func(t *testing.T, c *config.Config) {
				testify.Equal(t, "redis.internal:6380", c.RunStore.Addr)
				testify.Equal(t, "signoff-prod", c.RunStore.Prefix)
			},
		},
		{
			name:    "defaults_untouched",
			envVars: map[string]string{},
			check: func(t *testing.T, c *config.Config) {
				testify.Equal(t, config.DefaultMaxSteps, c.MaxSteps)
				testify.Equal(t, config.DefaultDataDir, c.DataDir)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
				t.Cleanup(func() { _ = os.Unsetenv(key) })
			}

			cfg := config.NewDefaultConfig()
			testify.NoError(t, cfg.LoadFromEnv())
			tt.check(t, cfg)
		})
	}
}

func TestConfigLoadFromEnvErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name: "unparseable_max_steps",
			envVars: map[string]string{
				"MAX_STEPS": "lots",
			},
		},
		{
			name: "max_steps_out_of_range",
			envVars: map[string]string{
				"MAX_STEPS": "99999",
			},
		},
		{
			name: "negative_eval_timeout",
			envVars: map[string]string{
				"EVAL_TIMEOUT": "-100",
			},
		},
		{
			name: "batch_workers_out_of_range",
			envVars: map[string]string{
				"BATCH_WORKERS": "1000",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
				t.Cleanup(func() { _ = os.Unsetenv(key) })
			}

			cfg := config.NewDefaultConfig()
			testify.Error(t, cfg.LoadFromEnv())
		})
	}
}
