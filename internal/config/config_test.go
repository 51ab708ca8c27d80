package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.AuthMode != DefaultAuthMode {
		t.Errorf("AuthMode = %s, want %s", cfg.AuthMode, DefaultAuthMode)
	}
	if cfg.IDField != DefaultIDField {
		t.Errorf("IDField = %s, want %s", cfg.IDField, DefaultIDField)
	}
	if cfg.MaxStates != DefaultMaxStates {
		t.Errorf("MaxStates = %d, want %d", cfg.MaxStates, DefaultMaxStates)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name:    "custom server port",
			envVars: map[string]string{EnvServerPort: "9090"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name:    "custom log level",
			envVars: map[string]string{EnvLogLevel: "debug"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "custom shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "5s"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 5*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name:    "metrics disabled",
			envVars: map[string]string{EnvMetricsEnabled: "false"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
			},
		},
		{
			name: "apikey auth",
			envVars: map[string]string{
				EnvAuthMode: "apikey",
				EnvAPIKeys:  "k1:svc:write",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.AuthMode != "apikey" || cfg.APIKeys != "k1:svc:write" {
					t.Errorf("auth = %s/%s", cfg.AuthMode, cfg.APIKeys)
				}
			},
		},
		{
			name: "multi auth with basic users",
			envVars: map[string]string{
				EnvAuthMode:       "multi",
				EnvBasicAuthUsers: "alice:hash",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.BasicAuthUsers != "alice:hash" {
					t.Errorf("BasicAuthUsers = %s, want alice:hash", cfg.BasicAuthUsers)
				}
			},
		},
		{
			name: "state settings",
			envVars: map[string]string{
				EnvIDField:   "id",
				EnvMaxStates: "0",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.IDField != "id" {
					t.Errorf("IDField = %s, want id", cfg.IDField)
				}
				if cfg.MaxStates != 0 {
					t.Errorf("MaxStates = %d, want 0", cfg.MaxStates)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "invalid server port - zero",
			envVars: map[string]string{EnvServerPort: "0"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid server port - too high",
			envVars: map[string]string{EnvServerPort: "65536"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "verbose"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "invalid shutdown timeout - zero",
			envVars: map[string]string{EnvShutdownTimeout: "0s"},
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "unknown auth mode",
			envVars: map[string]string{EnvAuthMode: "oidc"},
			wantErr: ErrInvalidAuthMode,
		},
		{
			name:    "basic without users",
			envVars: map[string]string{EnvAuthMode: "basic"},
			wantErr: ErrInvalidBasicAuthConfig,
		},
		{
			name:    "apikey without keys",
			envVars: map[string]string{EnvAuthMode: "apikey"},
			wantErr: ErrInvalidAPIKeyConfig,
		},
		{
			name:    "multi without any config",
			envVars: map[string]string{EnvAuthMode: "multi"},
			wantErr: ErrInvalidMultiAuthConfig,
		},
		{
			name:    "blank id field",
			envVars: map[string]string{EnvIDField: "  "},
			wantErr: ErrInvalidIDField,
		},
		{
			name:    "negative max states",
			envVars: map[string]string{EnvMaxStates: "-1"},
			wantErr: ErrInvalidMaxStates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "server port not a number",
			envVars: map[string]string{EnvServerPort: "abc"},
		},
		{
			name:    "shutdown timeout bad format",
			envVars: map[string]string{EnvShutdownTimeout: "invalid"},
		},
		{
			name:    "metrics enabled not a bool",
			envVars: map[string]string{EnvMetricsEnabled: "notabool"},
		},
		{
			name:    "max states not a number",
			envVars: map[string]string{EnvMaxStates: "many"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServerPort:      8080,
			LogLevel:        "info",
			ShutdownTimeout: time.Second,
			IDField:         "_id",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid, empty auth mode means none", mutate: func(*Config) {}},
		{name: "multi with api keys", mutate: func(c *Config) {
			c.AuthMode = "multi"
			c.APIKeys = "k:n"
		}},
		{name: "bad port", mutate: func(c *Config) { c.ServerPort = 70000 }, wantErr: ErrInvalidServerPort},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "" }, wantErr: ErrInvalidLogLevel},
		{name: "empty id field", mutate: func(c *Config) { c.IDField = "" }, wantErr: ErrInvalidIDField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := valid()
			tt.mutate(&cfg)

			// Act
			err := cfg.Validate()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{ServerPort: 8443}

	if got := cfg.Address(); got != ":8443" {
		t.Errorf("Address() = %s, want :8443", got)
	}
}

// clearEnvVars unsets every variable Load reads and restores them after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvAuthMode,
		EnvBasicAuthUsers,
		EnvAPIKeys,
		EnvIDField,
		EnvMaxStates,
	}
	for _, env := range envVars {
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
