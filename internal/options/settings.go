package options

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Redirect modes.
const (
	RedirectFollow = "follow"
	RedirectError  = "error"
	RedirectManual = "manual"
)

const (
	// DefaultLoginTimeout is how long a login challenge waits for credentials.
	DefaultLoginTimeout = 30 * time.Second
	// DefaultMaxLoginAttempts is how many login challenges a request answers.
	DefaultMaxLoginAttempts = 3
)

// Static error definitions for better error handling.
var (
	// ErrMissingURL indicates that the options do not contain a URL.
	ErrMissingURL = errors.New("url option is required")
	// ErrInvalidOptions indicates that an option value has an unexpected type or value.
	ErrInvalidOptions = errors.New("invalid request options")
	// ErrUnknownRedirectMode indicates an unsupported redirect option.
	ErrUnknownRedirectMode = errors.New("unknown redirect mode")
)

// Settings is the typed view of the transport-level options.
// Keys that are not transport settings, such as session or proxy credentials, are ignored.
type Settings struct {
	// URL is the request URL.
	URL string `mapstructure:"url"`
	// Method is the HTTP method.
	Method string `mapstructure:"method"`
	// Headers are sent with the request.
	Headers map[string]string `mapstructure:"headers"`
	// Proxy is the proxy URL; empty means environment, "direct" means none.
	Proxy string `mapstructure:"proxy"`
	// Timeout limits the whole exchange; zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
	// Redirect selects how redirects are handled.
	Redirect string `mapstructure:"redirect"`
	// UserAgent overrides the default User-Agent.
	UserAgent string `mapstructure:"user_agent"`
	// LoginTimeout limits how long a login challenge waits for credentials.
	LoginTimeout time.Duration `mapstructure:"login_timeout"`
	// MaxLoginAttempts limits how many login challenges are answered.
	MaxLoginAttempts int `mapstructure:"max_login_attempts"`
}

// DecodeSettings decodes the transport settings of o and fills defaults.
func DecodeSettings(o Options) (Settings, error) {
	var settings Settings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &settings,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("failed to create options decoder: %w", err)
	}

	if err = decoder.Decode(map[string]any(o)); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	settings.URL = strings.TrimSpace(settings.URL)
	if settings.URL == "" {
		return Settings{}, ErrMissingURL
	}

	if settings.Method == "" {
		settings.Method = http.MethodGet
	}

	settings.Method = strings.ToUpper(settings.Method)

	switch settings.Redirect {
	case "":
		settings.Redirect = RedirectFollow
	case RedirectFollow, RedirectError, RedirectManual:
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownRedirectMode, settings.Redirect)
	}

	if settings.LoginTimeout <= 0 {
		settings.LoginTimeout = DefaultLoginTimeout
	}

	if settings.MaxLoginAttempts <= 0 {
		settings.MaxLoginAttempts = DefaultMaxLoginAttempts
	}

	return settings, nil
}

// Credential returns the string stored under key.
// An absent or nil value yields an empty string; any other non-string value yields false.
func (o Options) Credential(key string) (string, bool) {
	value, ok := o[key]
	if !ok || value == nil {
		return "", true
	}

	s, ok := value.(string)

	return s, ok
}
