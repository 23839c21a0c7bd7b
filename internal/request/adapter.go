package request

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/oshokin/net-request/internal/event"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/network"
	"github.com/oshokin/net-request/internal/options"
	"github.com/oshokin/net-request/internal/session"
	"github.com/oshokin/net-request/internal/status"
	"github.com/oshokin/net-request/internal/utils"
)

// cookieHeader is the header carrying injected session cookies.
const cookieHeader = "cookie"

//nolint:gochecknoglobals // Immutable, pre-compiled regex pattern used as a constant.
var scopePattern = regexp.MustCompile(`^(?P<scope>https?://[^/]+)`)

// Static error definitions for better error handling.
var (
	// ErrInvalidURL indicates that the URL has no http(s)://host prefix to scope cookies to.
	ErrInvalidURL = errors.New("request URL must start with http:// or https:// followed by a host")
	// ErrNoSession indicates that neither a session nor a partition was configured.
	ErrNoSession = errors.New("either a session or a partition option is required")
	// ErrInvalidSession indicates that the session option is not a session.
	ErrInvalidSession = errors.New("session option does not hold a session")
	// ErrAlreadyEnded indicates a second call to End.
	ErrAlreadyEnded = errors.New("request has already been ended")
	// ErrAborted resolves the completion of an aborted request.
	ErrAborted = errors.New("request aborted")
	// ErrResponseStream resolves the completion of a request whose response body failed.
	ErrResponseStream = errors.New("failed to receive response body")
)

// Adapter wraps a single network request.
type Adapter struct {
	id       string
	ctx      context.Context //nolint:containedctx // Carries the request-scoped logger.
	options  options.Options
	settings options.Settings
	request  network.Request
	sessions SessionResolver
	sink     status.Sink

	emitter    event.Emitter
	completion *Completion
	ended      atomic.Bool

	mu      sync.Mutex
	session session.Session
}

// ID returns the request id used in log entries.
func (a *Adapter) ID() string {
	return a.id
}

// Options returns a copy of the merged options the adapter was created with.
func (a *Adapter) Options() options.Options {
	return a.options.Clone()
}

// On subscribes to response, close, error, abort or finish events.
// The returned function removes the subscription.
func (a *Adapter) On(kind event.Kind, handler event.Handler) func() {
	return a.emitter.On(kind, handler)
}

// SetHeader sets a header on the underlying request.
func (a *Adapter) SetHeader(name, value string) error {
	return a.request.SetHeader(name, value)
}

// Write appends p to the request body.
func (a *Adapter) Write(p []byte) error {
	return a.request.Write(p)
}

// Abort cancels the underlying request.
func (a *Adapter) Abort() {
	a.request.Abort()
}

// End resolves the session, injects its cookies for the request origin and sends the request.
// Configuration problems are returned immediately; everything that happens after
// the cookie lookup starts is reported through events and the returned Completion.
func (a *Adapter) End(ctx context.Context) (*Completion, error) {
	scope := utils.ExtractNamedGroup(scopePattern, "scope", a.settings.URL)
	if scope == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, a.settings.URL)
	}

	store, err := a.resolveSession(ctx)
	if err != nil {
		return nil, err
	}

	if !a.ended.CompareAndSwap(false, true) {
		return nil, ErrAlreadyEnded
	}

	a.mu.Lock()
	a.session = store
	a.mu.Unlock()

	go a.send(logger.ToContext(ctx, logger.FromContext(a.ctx)), store, scope)

	return a.completion, nil
}

// resolveSession prefers an explicit session over a partition lookup.
func (a *Adapter) resolveSession(ctx context.Context) (session.Session, error) {
	if value, ok := a.options[options.KeySession]; ok && value != nil {
		store, isSession := value.(session.Session)
		if !isSession {
			return nil, fmt.Errorf("%w: got %T", ErrInvalidSession, value)
		}

		return store, nil
	}

	partition, _ := a.options[options.KeyPartition].(string)
	if partition == "" {
		return nil, ErrNoSession
	}

	if a.sessions == nil {
		return nil, fmt.Errorf("%w: no partition resolver for %q", ErrNoSession, partition)
	}

	store, err := a.sessions.FromPartition(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("failed to open partition %q: %w", partition, err)
	}

	return store, nil
}

func (a *Adapter) send(ctx context.Context, store session.Session, scope string) {
	cookies, err := store.Cookies(ctx, session.Filter{URL: scope})
	if err != nil {
		a.failBeforeSend(ctx, fmt.Errorf("failed to get cookies for %s: %w", scope, err))

		return
	}

	header := strings.Join(utils.Map(cookies, func(cookie session.Cookie) string {
		return cookie.Name + "=" + cookie.Value + "; "
	}), "")

	if err = a.request.SetHeader(cookieHeader, header); err != nil {
		a.failBeforeSend(ctx, fmt.Errorf("failed to set cookies: %w", err))

		return
	}

	logger.Debugf(ctx, "Sending request to %s with %d cookies", a.settings.URL, len(cookies))

	if err = a.request.End(); err != nil {
		a.failBeforeSend(ctx, fmt.Errorf("failed to send request: %w", err))
	}
}

// failBeforeSend resolves the completion with err and releases the unsent request.
func (a *Adapter) failBeforeSend(ctx context.Context, err error) {
	logger.Errorf(ctx, "Request to %s was not sent: %v", a.settings.URL, err)
	a.completion.resolve(err)
	a.request.Abort()
}

func (a *Adapter) attachListeners() {
	a.request.On(event.KindLogin, a.onLogin)
	a.request.On(event.KindResponse, a.onResponse)
	a.request.On(event.KindClose, a.onClose)
	a.request.On(event.KindError, a.onError)
	a.request.On(event.KindAbort, a.onAbort)
	a.request.On(event.KindFinish, a.onFinish)
}

func (a *Adapter) onLogin(ev event.Event) {
	login, ok := ev.(network.LoginEvent)
	if !ok || !login.AuthInfo.IsProxy {
		return
	}

	username, usernameOK := a.options.Credential(options.KeyProxyUsername)
	password, passwordOK := a.options.Credential(options.KeyProxyPassword)

	if !usernameOK || !passwordOK {
		logger.Warnf(a.ctx, "Proxy %s:%d requires authentication, but the proxy credentials are not strings",
			login.AuthInfo.Host, login.AuthInfo.Port)

		return
	}

	login.Respond(username, password)
}

func (a *Adapter) onResponse(ev event.Event) {
	responseEvent, ok := ev.(network.ResponseEvent)
	if !ok {
		return
	}

	response := responseEvent.Response

	a.status("Request: received response from %s", a.settings.URL)
	a.storeCookies(response)

	a.emitter.Emit(ResponseEvent{Response: response})

	response.On(event.KindData, func(event.Event) {
		a.status("Response: receiving data from %s", a.settings.URL)
	})
	response.On(event.KindAborted, func(event.Event) {
		a.status("Response: aborted receiving data from %s", a.settings.URL)
	})
	response.On(event.KindError, func(ev event.Event) {
		var err error
		if streamErr, isStreamErr := ev.(network.ResponseErrorEvent); isStreamErr {
			err = streamErr.Err
		}

		a.status("Response: error %s occurred while receiving data from %s", errorMessage(err), a.settings.URL)

		outcome := ErrResponseStream
		if err != nil {
			outcome = fmt.Errorf("%w: %w", ErrResponseStream, err)
		}

		a.completion.resolve(outcome)
	})
	response.On(event.KindEnd, func(event.Event) {
		a.status("Response: all data received from %s", a.settings.URL)
	})
}

func (a *Adapter) onClose(event.Event) {
	a.status("Request: %s closed", a.settings.URL)
	a.emitter.Emit(CloseEvent{})
	a.completion.resolve(nil)
}

func (a *Adapter) onError(ev event.Event) {
	var err error
	if errorEvent, ok := ev.(network.ErrorEvent); ok {
		err = errorEvent.Err
	}

	a.status("Request: %s error: %s", a.settings.URL, errorMessage(err))
	a.emitter.Emit(ErrorEvent{Err: err})
	a.completion.resolve(err)
}

func (a *Adapter) onAbort(event.Event) {
	a.status("Request: %s abort", a.settings.URL)
	a.emitter.Emit(AbortEvent{})
	a.completion.resolve(ErrAborted)
}

func (a *Adapter) onFinish(event.Event) {
	a.status("Request: %s all data sent", a.settings.URL)
	a.emitter.Emit(FinishEvent{})
}

// storeCookies saves the Set-Cookie headers of response into the resolved session.
func (a *Adapter) storeCookies(response *network.Response) {
	cookies := response.Cookies()
	if len(cookies) == 0 {
		return
	}

	a.mu.Lock()
	store := a.session
	a.mu.Unlock()

	if store == nil {
		return
	}

	origin := response.URL
	if origin == "" {
		origin = a.settings.URL
	}

	if err := store.SetCookies(a.ctx, origin, cookies); err != nil {
		logger.Warnf(a.ctx, "Failed to store cookies from %s: %v", origin, err)
	}
}

func (a *Adapter) status(format string, args ...any) {
	a.sink.SendStatus(a.ctx, fmt.Sprintf(format, args...))
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}

	return err.Error()
}
