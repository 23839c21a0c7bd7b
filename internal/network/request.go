package network

import (
	"context"
	"errors"

	"github.com/oshokin/net-request/internal/event"
	"github.com/oshokin/net-request/internal/options"
)

// Request is a single network request.
type Request interface {
	// On subscribes to login, finish, response, error, abort or close events.
	On(kind event.Kind, handler event.Handler) func()
	// SetHeader sets a request header. It fails once the request has been sent.
	SetHeader(name, value string) error
	// Write appends p to the request body. It fails once the request has been sent.
	Write(p []byte) error
	// End sends the request. It returns immediately; progress is reported through events.
	End() error
	// Abort cancels the request. It is a no-op once the request has closed.
	Abort()
}

// Opener creates requests.
type Opener interface {
	// Open creates an unsent request from settings. No I/O happens until End.
	Open(ctx context.Context, settings options.Settings) (Request, error)
}

// Static error definitions for better error handling.
var (
	// ErrAlreadySent indicates that the request can no longer be modified or sent.
	ErrAlreadySent = errors.New("request has already been sent")
	// ErrUnsupportedURL indicates a URL that is not absolute HTTP or HTTPS.
	ErrUnsupportedURL = errors.New("unsupported request URL")
	// ErrInvalidProxy indicates a malformed proxy setting.
	ErrInvalidProxy = errors.New("invalid proxy URL")
	// ErrLoginTimeout indicates that a login challenge was not answered in time.
	ErrLoginTimeout = errors.New("login challenge was not answered in time")
	// ErrTooManyLoginAttempts indicates that the proxy kept rejecting the supplied credentials.
	ErrTooManyLoginAttempts = errors.New("too many login attempts")
	// ErrRedirectNotAllowed indicates a redirect while the redirect mode is "error".
	ErrRedirectNotAllowed = errors.New("redirect is not allowed")
)
