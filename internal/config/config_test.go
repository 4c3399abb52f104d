package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "zaapar", cfg.Database.Database)
				assert.Equal(t, "zaapar.jobs", cfg.RabbitMQ.Exchange)
				assert.Equal(t, "extract_profile", cfg.RabbitMQ.Queue)
				assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
				assert.Equal(t, 40, cfg.Listings.MaxResults)
				assert.Equal(t, WorkerModeConsume, cfg.Worker.Mode)
				assert.Equal(t, 3*time.Second, cfg.Worker.PollInterval)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "env-db-pass")
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("ADZUNA_APP_ID", "env-app-id")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "env-db-pass", cfg.Database.Password)
	assert.Equal(t, "env-gemini-key", cfg.Gemini.APIKey)
	assert.Equal(t, "env-app-id", cfg.Listings.AppID)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "zaapar",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: "zaapar.jobs",
			Queue:    "extract_profile",
		},
		Worker: WorkerConfig{
			Mode:           WorkerModeConsume,
			PollInterval:   3 * time.Second,
			ExtractTimeout: 45 * time.Second,
		},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "missing database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "missing database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "rabbitmq host set but queue missing",
			mutate:    func(c *Config) { c.RabbitMQ.Queue = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name: "rabbitmq host empty skips rabbitmq checks",
			mutate: func(c *Config) {
				c.RabbitMQ = RabbitMQConfig{}
			},
			wantErr: false,
		},
		{
			name:      "negative listings max_results",
			mutate:    func(c *Config) { c.Listings.MaxResults = -1 },
			wantErr:   true,
			errString: "max_results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid consume mode",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid poll mode without rabbitmq",
			mutate: func(c *Config) {
				c.Worker.Mode = WorkerModePoll
				c.RabbitMQ = RabbitMQConfig{}
			},
			wantErr: false,
		},
		{
			name:      "unknown mode",
			mutate:    func(c *Config) { c.Worker.Mode = "cron" },
			wantErr:   true,
			errString: "invalid worker mode",
		},
		{
			name: "poll mode requires positive interval",
			mutate: func(c *Config) {
				c.Worker.Mode = WorkerModePoll
				c.Worker.PollInterval = 0
			},
			wantErr:   true,
			errString: "poll_interval",
		},
		{
			name: "consume mode requires rabbitmq host",
			mutate: func(c *Config) {
				c.RabbitMQ = RabbitMQConfig{}
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "extract timeout must be positive",
			mutate:    func(c *Config) { c.Worker.ExtractTimeout = 0 },
			wantErr:   true,
			errString: "extract_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
