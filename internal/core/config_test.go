package core

import (
	"os"
	"path/filepath"
	"testing"
)

var configEnv = []string{"LOG_LEVEL", "DEBUG", "VISITS_RULEBOOK", "VISITS_DATA_DIR", "VISITS_STORE", "VISITS_CONFIG"}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name          string
		envVars       map[string]string
		expectedLevel string
		expectedDir   string
		expectedStore string
		expectedBook  string
		expectError   bool
	}{
		{
			name:          "default values",
			envVars:       map[string]string{},
			expectedLevel: "info",
			expectedDir:   ".visits",
			expectedStore: StoreYAML,
		},
		{
			name: "custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "warn",
			},
			expectedLevel: "warn",
			expectedDir:   ".visits",
			expectedStore: StoreYAML,
		},
		{
			name: "debug flag overrides log level",
			envVars: map[string]string{
				"LOG_LEVEL": "warn",
				"DEBUG":     "1",
			},
			expectedLevel: "debug",
			expectedDir:   ".visits",
			expectedStore: StoreYAML,
		},
		{
			name: "sqlite store with rulebook",
			envVars: map[string]string{
				"VISITS_STORE":    "sqlite",
				"VISITS_DATA_DIR": "/srv/visits",
				"VISITS_RULEBOOK": "rules.yaml",
			},
			expectedLevel: "info",
			expectedDir:   "/srv/visits",
			expectedStore: StoreSQLite,
			expectedBook:  "rules.yaml",
		},
		{
			name: "unknown store",
			envVars: map[string]string{
				"VISITS_STORE": "postgres",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range configEnv {
				t.Setenv(key, "")
			}
			t.Setenv("VISITS_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if cfg.LogLevel != tt.expectedLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.expectedLevel)
			}
			if cfg.DataDir != tt.expectedDir {
				t.Errorf("DataDir = %v, want %v", cfg.DataDir, tt.expectedDir)
			}
			if cfg.Store != tt.expectedStore {
				t.Errorf("Store = %v, want %v", cfg.Store, tt.expectedStore)
			}
			if cfg.RulebookPath != tt.expectedBook {
				t.Errorf("RulebookPath = %v, want %v", cfg.RulebookPath, tt.expectedBook)
			}
		})
	}
}

func TestLoadConfig_File(t *testing.T) {
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "visits.toml")
	content := `log_level = "error"
data_dir = "/var/lib/visits"
store = "sqlite"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Setenv("VISITS_CONFIG", path)
	t.Setenv("VISITS_DATA_DIR", "/from/env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %v, want error", cfg.LogLevel)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("DataDir = %v, environment should win over the file", cfg.DataDir)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %v, want %v", cfg.Store, StoreSQLite)
	}
	if cfg.RulebookPath != "" {
		t.Errorf("RulebookPath = %v, want empty", cfg.RulebookPath)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "visits.toml")
	if err := os.WriteFile(path, []byte("store = [unterminated"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Setenv("VISITS_CONFIG", path)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for malformed config file")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "env var set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env var not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			result := getEnvOrDefault(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvOrDefault() = %v, want %v", result, tt.expected)
			}
		})
	}
}
