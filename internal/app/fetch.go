package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/net-request/internal/config"
	"github.com/oshokin/net-request/internal/constants"
	"github.com/oshokin/net-request/internal/event"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/network"
	"github.com/oshokin/net-request/internal/options"
	"github.com/oshokin/net-request/internal/request"
)

// FetchParams describes a single request made from the command line.
// Empty fields fall back to the default options and the configuration.
type FetchParams struct {
	// URL is the request URL.
	URL string
	// Method is the HTTP method.
	Method string
	// Headers are "Name: value" pairs.
	Headers []string
	// Body is sent as the request body.
	Body string
	// OutputPath is the file the response body is written to; empty means stdout.
	OutputPath string
	// Partition selects the cookie session.
	Partition string
	// Proxy is the proxy URL or "direct".
	Proxy string
	// ProxyUsername answers proxy login challenges.
	ProxyUsername string
	// ProxyPassword answers proxy login challenges.
	ProxyPassword string
	// Timeout limits the whole exchange.
	Timeout time.Duration
	// Redirect is one of "follow", "error", "manual".
	Redirect string
}

// FetchResult summarizes a finished request.
type FetchResult struct {
	// StatusCode is the HTTP status code, zero when no response arrived.
	StatusCode int
	// Status is the status line text.
	Status string
	// Bytes is the number of body bytes written.
	Bytes int64
	// Duration is the time from sending to completion.
	Duration time.Duration
}

// ErrInvalidHeader indicates a header flag that is not in "Name: value" form.
var ErrInvalidHeader = errors.New("header must be in 'Name: value' form")

// ExecuteFetchCommand sends a request and writes the response body to the output file or stdout.
//
//nolint:funlen // Event wiring reads best in one place.
func ExecuteFetchCommand(
	ctx context.Context,
	cfg *config.Config,
	params FetchParams,
	stdout io.Writer,
) (*FetchResult, error) {
	instance, err := fetchOptions(cfg, params)
	if err != nil {
		return nil, err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return nil, err
	}

	defer rt.close(ctx)

	adapter, err := rt.factory.New(ctx, instance)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "request_id", adapter.ID())

	settings, err := options.DecodeSettings(adapter.Options())
	if err != nil {
		adapter.Abort()

		return nil, err
	}

	method := settings.Method

	if params.Body != "" {
		if err = adapter.Write([]byte(params.Body)); err != nil {
			return nil, fmt.Errorf("failed to write request body: %w", err)
		}
	}

	output, closeOutput, err := openOutput(params.OutputPath, stdout)
	if err != nil {
		adapter.Abort()

		return nil, err
	}

	defer closeOutput()

	var (
		result   FetchResult
		writeErr error
	)

	adapter.On(event.KindResponse, func(ev event.Event) {
		response := ev.(request.ResponseEvent).Response //nolint:forcetypeassert // Registered for response events only.

		result.StatusCode = response.StatusCode
		result.Status = response.Status

		logger.Infof(ctx, "%s %s: %s", method, params.URL, response.Status)

		writer := output
		if params.OutputPath != "" {
			bar := progressbar.DefaultBytes(
				response.ContentLength,
				"Downloading",
			)

			writer = io.MultiWriter(output, bar)
		}

		response.On(event.KindData, func(ev event.Event) {
			if writeErr != nil {
				return
			}

			n, dataErr := writer.Write(ev.(network.DataEvent).Chunk) //nolint:forcetypeassert // Data events only.
			result.Bytes += int64(n)

			if dataErr != nil {
				writeErr = dataErr
				adapter.Abort()
			}
		})
	})

	started := time.Now()

	completion, err := adapter.End(ctx)
	if err != nil {
		adapter.Abort()

		return nil, err
	}

	err = completion.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		adapter.Abort()
		<-completion.Done()

		return nil, fmt.Errorf("request interrupted: %w", ctx.Err())
	}

	result.Duration = time.Since(started)

	if writeErr != nil {
		return nil, fmt.Errorf("failed to write response body: %w", writeErr)
	}

	if err != nil {
		return nil, err
	}

	logger.Infof(ctx, "Received %s in %s",
		humanize.Bytes(uint64(result.Bytes)), //nolint:gosec // Byte counts are never negative.
		result.Duration.Round(time.Millisecond))

	return &result, nil
}

// fetchOptions converts params into request options.
func fetchOptions(cfg *config.Config, params FetchParams) (options.Options, error) {
	instance := options.Options{
		options.KeyURL: params.URL,
	}

	// An empty method leaves room for the default options.
	if method := strings.ToUpper(strings.TrimSpace(params.Method)); method != "" {
		instance[options.KeyMethod] = method
	}

	switch {
	case params.Partition != "":
		instance[options.KeyPartition] = params.Partition
	case cfg.GlobalOptions[options.KeyPartition] == nil:
		instance[options.KeyPartition] = cfg.DefaultPartition
	}

	if len(params.Headers) > 0 {
		headers := make(map[string]string, len(params.Headers))

		for _, header := range params.Headers {
			name, value, found := strings.Cut(header, ":")
			name = strings.TrimSpace(name)

			if !found || name == "" {
				return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, header)
			}

			headers[name] = strings.TrimSpace(value)
		}

		instance[options.KeyHeaders] = headers
	}

	optional := map[string]string{
		options.KeyProxy:         params.Proxy,
		options.KeyProxyUsername: params.ProxyUsername,
		options.KeyProxyPassword: params.ProxyPassword,
		options.KeyRedirect:      params.Redirect,
	}

	for key, value := range optional {
		if value != "" {
			instance[key] = value
		}
	}

	if params.Timeout > 0 {
		instance[options.KeyTimeout] = params.Timeout
	}

	return instance, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.OutputFilePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return f, func() {
		_ = f.Close()
	}, nil
}
