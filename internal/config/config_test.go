package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/net-request/internal/constants"
)

func validConfig() *Config {
	return &Config{
		LogLevel:                "info",
		DataDir:                 "/tmp/net-request",
		DefaultPartition:        "persist:main",
		MaxLogLength:            "1MB",
		LoginTimeout:            "10s",
		MaxPersistentPartitions: 4,
	}
}

// TestLoadConfig tests the LoadConfig function.
//
//nolint:paralleltest // Viper keeps global state.
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		expectedError  string
		check          func(t *testing.T, cfg *Config)
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
log_level: "debug"
data_dir: "/var/lib/net-request"
default_partition: "persist:work"
user_agent: "agent/1.0"
max_log_length: "1MB"
login_timeout: "5s"
max_persistent_partitions: 2
global_options:
  proxy: "http://proxy.local:3128"
  proxy_username: "alice"
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "/var/lib/net-request", cfg.DataDir)
				assert.Equal(t, "persist:work", cfg.DefaultPartition)
				assert.Equal(t, "agent/1.0", cfg.UserAgent)
				assert.Equal(t, 2, cfg.MaxPersistentPartitions)
				assert.Equal(t, map[string]any{
					"proxy":          "http://proxy.local:3128",
					"proxy_username": "alice",
				}, cfg.GlobalOptions)
			},
		},
		{
			name:           "partial config falls back to defaults",
			configFilename: "partial.yaml",
			configContent:  "log_level: warn\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "warn", cfg.LogLevel)
				assert.Equal(t, DefaultDataDir, cfg.DataDir)
				assert.Equal(t, DefaultPartition, cfg.DefaultPartition)
				assert.Equal(t, DefaultMaxLogLength, cfg.MaxLogLength)
				assert.Equal(t, DefaultMaxPersistentPartitions, cfg.MaxPersistentPartitions)
			},
		},
		{
			name:           "non-existent explicit file",
			configFilename: "non_existent.yaml",
			expectError:    true,
			expectedError:  "failed to read config from file",
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError:   true,
			expectedError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()

			configPath := filepath.Join(t.TempDir(), tt.configFilename)
			if tt.configContent != "" {
				err := os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions)
				require.NoError(t, err)
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NoError(t, ValidateConfig(cfg))
			tt.check(t, cfg)
		})
	}
}

// TestLoadConfig_MissingDefaultFile tests that a missing default file yields the built-in defaults.
//
//nolint:paralleltest // Changes the working directory and uses viper.
func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, uint64(64000), cfg.ParsedMaxLogLength)
	assert.Equal(t, 30*time.Second, cfg.ParsedLoginTimeout)
	assert.NotNil(t, cfg.GlobalOptions)
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		modify   func(cfg *Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:     "invalid log level",
			modify:   func(cfg *Config) { cfg.LogLevel = "loud" },
			errorMsg: "unknown log level:",
		},
		{
			name:     "empty data dir",
			modify:   func(cfg *Config) { cfg.DataDir = "  " },
			errorMsg: "data_dir cannot be empty",
		},
		{
			name:     "empty default partition",
			modify:   func(cfg *Config) { cfg.DefaultPartition = "" },
			errorMsg: "default_partition cannot be empty",
		},
		{
			name:     "invalid max log length",
			modify:   func(cfg *Config) { cfg.MaxLogLength = "lots" },
			errorMsg: "failed to parse max log length:",
		},
		{
			name:     "invalid login timeout",
			modify:   func(cfg *Config) { cfg.LoginTimeout = "soon" },
			errorMsg: "failed to parse login timeout:",
		},
		{
			name:     "negative login timeout",
			modify:   func(cfg *Config) { cfg.LoginTimeout = "-1s" },
			errorMsg: "login_timeout must be positive",
		},
		{
			name:     "zero persistent partitions",
			modify:   func(cfg *Config) { cfg.MaxPersistentPartitions = 0 },
			errorMsg: "max_persistent_partitions must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := ValidateConfig(cfg)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
			assert.Equal(t, uint64(1000*1000), cfg.ParsedMaxLogLength)
			assert.Equal(t, 10*time.Second, cfg.ParsedLoginTimeout)
		})
	}
}

// TestSaveGlobalOptions tests that global options are written without disturbing other keys.
//
//nolint:paralleltest // Viper keeps global state.
func TestSaveGlobalOptions(t *testing.T) {
	viper.Reset()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "# comment kept\nlog_level: debug\nglobal_options:\n  proxy: direct\ndata_dir: /data\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), constants.DefaultFilePermissions))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	cfg.GlobalOptions = map[string]any{"proxy": "http://proxy:8080", "max_login_attempts": 2}
	require.NoError(t, SaveGlobalOptions(cfg))

	saved, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "# comment kept")

	var document struct {
		LogLevel      string         `yaml:"log_level"`
		DataDir       string         `yaml:"data_dir"`
		GlobalOptions map[string]any `yaml:"global_options"`
	}

	require.NoError(t, yaml.Unmarshal(saved, &document))
	assert.Equal(t, "debug", document.LogLevel)
	assert.Equal(t, "/data", document.DataDir)
	assert.Equal(t, map[string]any{"proxy": "http://proxy:8080", "max_login_attempts": 2}, document.GlobalOptions)
}

// TestSaveGlobalOptions_NewFile tests that a missing config file is created.
//
//nolint:paralleltest // Viper keeps global state.
func TestSaveGlobalOptions_NewFile(t *testing.T) {
	viper.Reset()

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	viper.SetConfigFile(configPath)

	cfg := validConfig()
	cfg.GlobalOptions = map[string]any{"redirect": "manual"}

	require.NoError(t, SaveGlobalOptions(cfg))

	saved, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "redirect: manual")
}

// TestSetMappingValue tests editing the root mapping of YAML documents.
func TestSetMappingValue(t *testing.T) {
	t.Parallel()

	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "v"}

	var empty yaml.Node
	require.NoError(t, setMappingValue(&empty, "k", value))

	out, err := yaml.Marshal(&empty)
	require.NoError(t, err)
	assert.Equal(t, "k: v\n", string(out))

	var list yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("- a\n- b\n"), &list))
	require.ErrorIs(t, setMappingValue(&list, "k", value), ErrInvalidConfigDocument)
}
