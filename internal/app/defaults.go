package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/net-request/internal/config"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/options"
)

// placeholderURL lets defaults be validated without a url option.
const placeholderURL = "https://defaults.invalid"

// ErrEmptyOptionKey indicates an empty option name.
var ErrEmptyOptionKey = errors.New("option name cannot be empty")

// ExecuteDefaultsList prints the default request options, sorted by name.
func ExecuteDefaultsList(cfg *config.Config, w io.Writer) error {
	for _, key := range slices.Sorted(maps.Keys(cfg.GlobalOptions)) {
		if _, err := fmt.Fprintf(w, "%s=%v\n", key, cfg.GlobalOptions[key]); err != nil {
			return err
		}
	}

	return nil
}

// ExecuteDefaultsSet sets a default request option and saves it to the config file.
// rawValue is parsed as a YAML scalar, so "3" becomes a number and "true" a boolean.
func ExecuteDefaultsSet(ctx context.Context, cfg *config.Config, key, rawValue string) error {
	key = normalizeOptionKey(key)
	if key == "" {
		return ErrEmptyOptionKey
	}

	var value any
	if err := yaml.Unmarshal([]byte(rawValue), &value); err != nil {
		return fmt.Errorf("failed to parse value of %s: %w", key, err)
	}

	provider := options.NewProvider(cfg.GlobalOptions)
	provider.Update(options.Options{key: value})

	return saveDefaults(ctx, cfg, provider)
}

// ExecuteDefaultsUnset removes default request options and saves the config file.
func ExecuteDefaultsUnset(ctx context.Context, cfg *config.Config, keys []string) error {
	normalized := make([]string, 0, len(keys))

	for _, key := range keys {
		if key = normalizeOptionKey(key); key != "" {
			normalized = append(normalized, key)
		}
	}

	if len(normalized) == 0 {
		return ErrEmptyOptionKey
	}

	provider := options.NewProvider(cfg.GlobalOptions)
	provider.Remove(normalized...)

	return saveDefaults(ctx, cfg, provider)
}

func saveDefaults(ctx context.Context, cfg *config.Config, provider *options.Provider) error {
	defaults := provider.Snapshot()

	if _, err := options.DecodeSettings(options.Merge(options.Options{options.KeyURL: placeholderURL}, defaults)); err != nil {
		return fmt.Errorf("invalid default options: %w", err)
	}

	cfg.GlobalOptions = defaults

	if err := config.SaveGlobalOptions(cfg); err != nil {
		return err
	}

	logger.Infof(ctx, "Saved %d default options", len(defaults))

	return nil
}

// normalizeOptionKey matches the key folding of the config loader.
func normalizeOptionKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
