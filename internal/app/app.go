package app

import (
	"context"

	"github.com/oshokin/net-request/internal/config"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/network"
	"github.com/oshokin/net-request/internal/options"
	"github.com/oshokin/net-request/internal/request"
	"github.com/oshokin/net-request/internal/session"
	"github.com/oshokin/net-request/internal/status"
)

// runtime holds the components shared by the commands.
type runtime struct {
	registry *session.Registry
	factory  *request.Factory
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	registry, err := session.NewRegistry(cfg.DataDir, cfg.MaxPersistentPartitions)
	if err != nil {
		return nil, err
	}

	globals := options.NewProvider(cfg.GlobalOptions)

	// Configured timeouts apply unless the defaults or the request override them.
	if _, ok := globals.Snapshot()[options.KeyLoginTimeout]; !ok && cfg.ParsedLoginTimeout > 0 {
		globals.Update(options.Options{options.KeyLoginTimeout: cfg.ParsedLoginTimeout})
	}

	opener := network.NewHTTPOpener(network.OpenerConfig{
		UserAgent:    cfg.UserAgent,
		MaxLogLength: cfg.ParsedMaxLogLength,
	})

	return &runtime{
		registry: registry,
		factory:  request.NewFactory(globals, opener, registry, status.NewLoggerSink()),
	}, nil
}

// close saves every open persistent partition.
func (r *runtime) close(ctx context.Context) {
	if err := r.registry.Flush(ctx); err != nil {
		logger.Errorf(ctx, "Failed to save partitions: %v", err)
	}
}
