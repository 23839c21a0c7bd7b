package request

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/network"
	"github.com/oshokin/net-request/internal/options"
	"github.com/oshokin/net-request/internal/status"
)

// Factory creates adapters sharing the same default options, opener, sessions and status sink.
type Factory struct {
	globals  *options.Provider
	opener   network.Opener
	sessions SessionResolver
	sink     status.Sink
}

// NewFactory creates a factory.
// A nil provider starts with empty defaults; a nil sink discards status lines.
func NewFactory(
	globals *options.Provider,
	opener network.Opener,
	sessions SessionResolver,
	sink status.Sink,
) *Factory {
	if globals == nil {
		globals = options.NewProvider(nil)
	}

	if sink == nil {
		sink = status.Discard
	}

	return &Factory{
		globals:  globals,
		opener:   opener,
		sessions: sessions,
		sink:     sink,
	}
}

// SetGlobalOptions replaces the default options of future adapters.
func (f *Factory) SetGlobalOptions(o options.Options) {
	f.globals.Set(o)
}

// UpdateGlobalOptions overwrites or inserts every key of o in the default options.
func (f *Factory) UpdateGlobalOptions(o options.Options) {
	f.globals.Update(o)
}

// RemoveGlobalOptions deletes keys from the default options. Missing keys are ignored.
func (f *Factory) RemoveGlobalOptions(keys ...string) {
	f.globals.Remove(keys...)
}

// GlobalOptions returns a copy of the default options.
func (f *Factory) GlobalOptions() options.Options {
	return f.globals.Snapshot()
}

// New creates an adapter for the union of the default options and instance.
// Keys in instance take precedence. The underlying request is opened and
// listeners are attached before New returns, but nothing is sent until End.
func (f *Factory) New(ctx context.Context, instance options.Options) (*Adapter, error) {
	merged := f.globals.Merge(instance)

	settings, err := options.DecodeSettings(merged)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx = logger.WithKV(ctx, "request_id", id)

	underlying, err := f.opener.Open(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open request: %w", err)
	}

	a := &Adapter{
		id:         id,
		ctx:        ctx,
		options:    merged,
		settings:   settings,
		request:    underlying,
		sessions:   f.sessions,
		sink:       f.sink,
		completion: newCompletion(),
	}

	a.attachListeners()

	logger.Debugf(ctx, "Request to %s created", settings.URL)

	return a, nil
}
