package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/net-request/internal/constants"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// DataDir is the directory where persistent partitions are stored.
	DataDir string `mapstructure:"data_dir"`
	// DefaultPartition is used by commands when no partition is given.
	DefaultPartition string `mapstructure:"default_partition"`
	// UserAgent is sent when a request sets neither a header nor a user_agent option.
	UserAgent string `mapstructure:"user_agent"`
	// MaxLogLength limits debug dumps of requests and responses (e.g., "64KB").
	MaxLogLength string `mapstructure:"max_log_length"`
	// LoginTimeout limits how long a proxy login challenge waits for credentials (e.g., "30s").
	LoginTimeout string `mapstructure:"login_timeout"`
	// MaxPersistentPartitions is the number of persistent partitions kept open at once.
	MaxPersistentPartitions int `mapstructure:"max_persistent_partitions"`
	// GlobalOptions are merged into every request; request options take precedence.
	GlobalOptions map[string]any `mapstructure:"global_options"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedMaxLogLength is the parsed debug dump limit in bytes.
	ParsedMaxLogLength uint64
	// ParsedLoginTimeout is the parsed login timeout.
	ParsedLoginTimeout time.Duration
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".net-request.yaml"

	// DefaultDataDir is the default directory for persistent partitions.
	DefaultDataDir = ".net-request"

	// DefaultPartition is the partition used when none is configured.
	DefaultPartition = "persist:default"

	// DefaultMaxLogLength is the default limit of debug dumps.
	DefaultMaxLogLength = "64KB"

	// DefaultLoginTimeout is the default proxy login timeout.
	DefaultLoginTimeout = "30s"

	// DefaultMaxPersistentPartitions is the default number of open persistent partitions.
	DefaultMaxPersistentPartitions = 16

	// globalOptionsKey is the config key of the default request options.
	globalOptionsKey = "global_options"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrEmptyDataDir indicates that the data directory is missing.
	ErrEmptyDataDir = errors.New("data_dir cannot be empty")
	// ErrEmptyDefaultPartition indicates that the default partition is missing.
	ErrEmptyDefaultPartition = errors.New("default_partition cannot be empty")
	// ErrInvalidLoginTimeout indicates that the login timeout is not positive.
	ErrInvalidLoginTimeout = errors.New("login_timeout must be positive")
	// ErrInvalidMaxPersistentPartitions indicates that the partitions cache size is not positive.
	ErrInvalidMaxPersistentPartitions = errors.New("max_persistent_partitions must be a positive integer")
	// ErrInvalidConfigDocument indicates a config file whose root is not a mapping.
	ErrInvalidConfigDocument = errors.New("config file root must be a mapping")
)

// LoadConfig loads configuration settings from a YAML file.
// When configFilename is empty the default file is used if it exists,
// otherwise the built-in defaults apply.
func LoadConfig(configFilename string) (*Config, error) {
	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	setDefaults()
	viper.SetConfigFile(configFilename)

	shouldRead := true

	if isDefaultFile {
		exists, err := utils.IsFileExist(configFilename)
		if err != nil {
			return nil, fmt.Errorf("failed to check config file: %w", err)
		}

		shouldRead = exists
	}

	if !shouldRead {
		logger.Debugf(context.Background(), "Config file %s not found, using defaults", configFilename)
	} else if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("data_dir", DefaultDataDir)
	viper.SetDefault("default_partition", DefaultPartition)
	viper.SetDefault("max_log_length", DefaultMaxLogLength)
	viper.SetDefault("login_timeout", DefaultLoginTimeout)
	viper.SetDefault("max_persistent_partitions", DefaultMaxPersistentPartitions)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	cfg.DefaultPartition = strings.TrimSpace(cfg.DefaultPartition)
	if cfg.DefaultPartition == "" {
		return ErrEmptyDefaultPartition
	}

	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)

	maxLogLength := strings.TrimSpace(cfg.MaxLogLength)
	if maxLogLength == "" {
		maxLogLength = DefaultMaxLogLength
	}

	parsedMaxLogLength, err := humanize.ParseBytes(maxLogLength)
	if err != nil {
		return fmt.Errorf("failed to parse max log length: %w", err)
	}

	cfg.ParsedMaxLogLength = parsedMaxLogLength

	loginTimeout := strings.TrimSpace(cfg.LoginTimeout)
	if loginTimeout == "" {
		loginTimeout = DefaultLoginTimeout
	}

	cfg.ParsedLoginTimeout, err = time.ParseDuration(loginTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse login timeout: %w", err)
	}

	if cfg.ParsedLoginTimeout <= 0 {
		return ErrInvalidLoginTimeout
	}

	if cfg.MaxPersistentPartitions <= 0 {
		return ErrInvalidMaxPersistentPartitions
	}

	if cfg.GlobalOptions == nil {
		cfg.GlobalOptions = make(map[string]any)
	}

	return nil
}

// SaveGlobalOptions writes cfg.GlobalOptions to the config file
// while preserving the order and formatting of the other keys.
func SaveGlobalOptions(cfg *Config) error {
	configFile := getConfigFilePath()

	// Read the original file content.
	originalContent, err := os.ReadFile(configFile)
	if err != nil {
		return handleMissingConfigFile(configFile, cfg.GlobalOptions, err)
	}

	// Parse YAML while preserving order using yaml.Node.
	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	var value yaml.Node
	if err = value.Encode(cfg.GlobalOptions); err != nil {
		return fmt.Errorf("failed to encode global options: %w", err)
	}

	if err = setMappingValue(&node, globalOptionsKey, &value); err != nil {
		return err
	}

	// Marshal back to YAML (preserves order).
	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFile, newContent, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set(globalOptionsKey, cfg.GlobalOptions)

	return nil
}

// getConfigFilePath returns the config file path from viper or the default.
func getConfigFilePath() string {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		return DefaultConfigFilename
	}

	return configFile
}

// handleMissingConfigFile creates a new config file if it doesn't exist.
func handleMissingConfigFile(configFile string, globalOptions map[string]any, err error) error {
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if dir := filepath.Dir(configFile); dir != "." {
		if err = os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create config folder: %w", err)
		}
	}

	// File doesn't exist, create it with viper.
	viper.Set(globalOptionsKey, globalOptions)

	if err = viper.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// setMappingValue replaces or appends key in the root mapping of a YAML document.
func setMappingValue(node *yaml.Node, key string, value *yaml.Node) error {
	// An empty file parses into a zero node.
	if node.Kind == 0 {
		*node = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}

	// The root node is a document node, content[0] is the actual map.
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return ErrInvalidConfigDocument
	}

	mapNode := node.Content[0]

	// Iterate through key-value pairs (stored as alternating nodes).
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value == key {
			mapNode.Content[i+1] = value

			return nil
		}
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value)

	return nil
}
