package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/oshokin/net-request/internal/event"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/options"
	http_transport "github.com/oshokin/net-request/internal/transport/http"
	"github.com/oshokin/net-request/internal/utils"
)

const (
	// ProxyDirect disables proxies, including the ones from the environment.
	ProxyDirect = "direct"

	// readBufferSize is the maximum size of a data event chunk.
	readBufferSize = 32 * 1024
)

type requestState int

const (
	stateOpen requestState = iota
	stateSent
	stateClosed
)

// OpenerConfig configures an HTTPOpener.
type OpenerConfig struct {
	// UserAgent is used when neither the request headers nor its options set one.
	UserAgent string
	// MaxLogLength limits debug dumps of requests and responses.
	MaxLogLength uint64
	// TLSClientConfig overrides the TLS configuration of every request.
	TLSClientConfig *tls.Config
}

// HTTPOpener opens requests backed by net/http.
type HTTPOpener struct {
	cfg OpenerConfig
}

// NewHTTPOpener creates an opener.
func NewHTTPOpener(cfg OpenerConfig) *HTTPOpener {
	return &HTTPOpener{cfg: cfg}
}

// httpRequest is a Request sent with its own http.Transport.
type httpRequest struct {
	ctx      context.Context //nolint:containedctx // The request owns its lifetime.
	cancel   context.CancelFunc
	settings options.Settings
	target   *url.URL

	client    *http.Client
	transport *http.Transport
	proxy     func(*http.Request) (*url.URL, error)

	// proxyAuthorization is sent with CONNECT once a login challenge has been answered.
	proxyAuthorization atomic.Pointer[string]
	aborted            atomic.Bool

	emitter event.Emitter
	// finished guards the finish event, which fires once the request is first written.
	finished sync.Once

	mu     sync.Mutex
	state  requestState
	header http.Header
	body   bytes.Buffer
	done   chan struct{}
}

// Open creates an unsent request.
func (o *HTTPOpener) Open(ctx context.Context, settings options.Settings) (Request, error) {
	return o.open(ctx, settings)
}

func (o *HTTPOpener) open(ctx context.Context, settings options.Settings) (*httpRequest, error) {
	target, err := url.Parse(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}

	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, settings.URL)
	}

	proxy, err := proxyFunc(settings.Proxy)
	if err != nil {
		return nil, err
	}

	requestCtx, cancel := context.WithCancel(ctx)

	r := &httpRequest{
		ctx:      requestCtx,
		cancel:   cancel,
		settings: settings,
		target:   target,
		proxy:    proxy,
		header:   make(http.Header),
		done:     make(chan struct{}),
	}

	for name, value := range settings.Headers {
		r.header.Set(name, value)
	}

	//nolint:forcetypeassert // http.DefaultTransport is always *http.Transport.
	r.transport = http.DefaultTransport.(*http.Transport).Clone()
	r.transport.Proxy = proxy
	r.transport.OnProxyConnectResponse = r.onProxyConnectResponse
	r.transport.GetProxyConnectHeader = r.proxyConnectHeader

	if o.cfg.TLSClientConfig != nil {
		r.transport.TLSClientConfig = o.cfg.TLSClientConfig.Clone()
	}

	r.client = &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(r.transport, o.cfg.MaxLogLength),
			utils.NewFallbackUserAgentProvider(settings.UserAgent, o.cfg.UserAgent, http_transport.DefaultUserAgent)),
		Timeout:       settings.Timeout,
		CheckRedirect: redirectPolicy(settings.Redirect),
	}

	return r, nil
}

// On subscribes to request events.
func (r *httpRequest) On(kind event.Kind, handler event.Handler) func() {
	return r.emitter.On(kind, handler)
}

// SetHeader sets a request header.
func (r *httpRequest) SetHeader(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateOpen {
		return ErrAlreadySent
	}

	r.header.Set(name, value)

	return nil
}

// Write appends p to the request body.
func (r *httpRequest) Write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateOpen {
		return ErrAlreadySent
	}

	r.body.Write(p)

	return nil
}

// End sends the request in the background.
func (r *httpRequest) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateOpen {
		return ErrAlreadySent
	}

	r.state = stateSent

	go r.run()

	return nil
}

// Abort cancels the request.
func (r *httpRequest) Abort() {
	r.mu.Lock()

	switch r.state {
	case stateOpen:
		r.state = stateClosed
		r.aborted.Store(true)
		r.mu.Unlock()

		r.cancel()
		r.emitter.Emit(AbortEvent{})
		r.emitter.Emit(CloseEvent{})
		close(r.done)
	case stateSent:
		r.aborted.Store(true)
		r.mu.Unlock()

		r.cancel()
	default:
		r.mu.Unlock()
	}
}

// Done is closed after the close event has been emitted.
func (r *httpRequest) Done() <-chan struct{} {
	return r.done
}

func (r *httpRequest) run() {
	defer r.finalize()

	var (
		answer   *credentials
		attempts int
	)

	for {
		req, err := r.newHTTPRequest(answer)
		if err != nil {
			r.fail(err)

			return
		}

		resp, err := r.client.Do(req)
		if err != nil {
			var challenge *ProxyAuthError
			if !errors.As(err, &challenge) || r.aborted.Load() {
				r.fail(err)

				return
			}

			next, loginErr := r.login(challenge.AuthInfo, &attempts)
			if next == nil {
				r.fail(errors.Join(err, loginErr))

				return
			}

			answer = next

			continue
		}

		if resp.StatusCode == http.StatusProxyAuthRequired {
			next, loginErr := r.login(r.plainProxyAuthInfo(req, resp), &attempts)
			if next != nil {
				drainAndClose(resp.Body)

				answer = next

				continue
			}

			if loginErr != nil {
				drainAndClose(resp.Body)
				r.fail(loginErr)

				return
			}
		}

		r.deliver(resp)

		return
	}
}

func (r *httpRequest) newHTTPRequest(answer *credentials) (*http.Request, error) {
	r.mu.Lock()
	header := r.header.Clone()
	body := bytes.Clone(r.body.Bytes())
	r.mu.Unlock()

	var reader io.Reader = http.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	ctx := httptrace.WithClientTrace(r.ctx, &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				r.emitFinish()
			}
		},
	})

	req, err := http.NewRequestWithContext(ctx, r.settings.Method, r.target.String(), reader)
	if err != nil {
		return nil, err
	}

	req.Header = header

	if host := header.Get("Host"); host != "" {
		req.Host = host
	}

	if answer != nil {
		value := answer.basicAuthorization()
		r.proxyAuthorization.Store(&value)

		// Over a CONNECT tunnel the header would reach the origin server.
		if req.URL.Scheme == "http" {
			req.Header.Set(proxyAuthorizationHeader, value)
		}
	}

	return req, nil
}

// login emits a login event and waits for the answer.
// It returns nil credentials and a nil error when nobody listens for login events.
func (r *httpRequest) login(info AuthInfo, attempts *int) (*credentials, error) {
	if *attempts >= r.settings.MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	*attempts++

	var (
		answers = make(chan credentials, 1)
		once    sync.Once
	)

	respond := func(username, password string) {
		once.Do(func() {
			answers <- credentials{username: username, password: password}
		})
	}

	if r.emitter.Emit(LoginEvent{AuthInfo: info, Respond: respond}) == 0 {
		return nil, nil //nolint:nilnil // Nobody listens, the challenge is passed through.
	}

	timer := time.NewTimer(r.settings.LoginTimeout)
	defer timer.Stop()

	select {
	case answer := <-answers:
		return &answer, nil
	case <-timer.C:
		return nil, ErrLoginTimeout
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	}
}

// emitFinish emits the finish event once. A concurrent caller waits until it has been delivered.
func (r *httpRequest) emitFinish() {
	r.finished.Do(func() {
		r.emitter.Emit(FinishEvent{})
	})
}

func (r *httpRequest) deliver(resp *http.Response) {
	// Responses sent before the body was fully written still follow finish.
	r.emitFinish()

	response := newResponse(resp)
	r.emitter.Emit(ResponseEvent{Response: response})

	defer resp.Body.Close() //nolint:errcheck // The body has been consumed or the request failed.

	buffer := make([]byte, readBufferSize)

	for {
		n, err := resp.Body.Read(buffer)
		if n > 0 {
			response.Emit(DataEvent{Chunk: bytes.Clone(buffer[:n])})
		}

		if errors.Is(err, io.EOF) {
			response.Emit(EndEvent{})

			return
		}

		if err != nil {
			if r.aborted.Load() {
				response.Emit(AbortedEvent{})
				r.emitter.Emit(AbortEvent{})

				return
			}

			response.Emit(ResponseErrorEvent{Err: err})

			return
		}
	}
}

func (r *httpRequest) fail(err error) {
	if r.aborted.Load() {
		r.emitter.Emit(AbortEvent{})

		return
	}

	r.emitter.Emit(ErrorEvent{Err: err})
}

func (r *httpRequest) finalize() {
	r.mu.Lock()
	r.state = stateClosed
	r.mu.Unlock()

	r.cancel()
	r.transport.CloseIdleConnections()

	r.emitter.Emit(CloseEvent{})
	close(r.done)
}

func (r *httpRequest) onProxyConnectResponse(
	ctx context.Context,
	proxyURL *url.URL,
	_ *http.Request,
	resp *http.Response,
) error {
	if resp.StatusCode != http.StatusProxyAuthRequired {
		return nil
	}

	info := proxyAuthInfo(proxyURL, nil, resp.Header)
	logger.Debugf(ctx, "Proxy %s:%d requires authentication", info.Host, info.Port)

	return &ProxyAuthError{AuthInfo: info}
}

func (r *httpRequest) proxyConnectHeader(context.Context, *url.URL, string) (http.Header, error) {
	value := r.proxyAuthorization.Load()
	if value == nil {
		return nil, nil //nolint:nilnil // No credentials yet.
	}

	return http.Header{proxyAuthorizationHeader: {*value}}, nil
}

func (r *httpRequest) plainProxyAuthInfo(req *http.Request, resp *http.Response) AuthInfo {
	var proxyURL *url.URL

	if r.proxy != nil {
		proxyURL, _ = r.proxy(req)
	}

	return proxyAuthInfo(proxyURL, req.URL, resp.Header)
}

// proxyFunc resolves the proxy setting: empty uses the environment, "direct" disables proxies.
func proxyFunc(proxy string) (func(*http.Request) (*url.URL, error), error) {
	switch proxy = strings.TrimSpace(proxy); proxy {
	case "":
		fromEnvironment := httpproxy.FromEnvironment().ProxyFunc()

		return func(req *http.Request) (*url.URL, error) {
			return fromEnvironment(req.URL)
		}, nil
	case ProxyDirect:
		return nil, nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}

	if proxyURL.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, proxy)
	}

	return http.ProxyURL(proxyURL), nil
}

func redirectPolicy(mode string) func(*http.Request, []*http.Request) error {
	switch mode {
	case options.RedirectError:
		return func(req *http.Request, _ []*http.Request) error {
			return fmt.Errorf("%w: %s", ErrRedirectNotAllowed, req.URL.Redacted())
		}
	case options.RedirectManual:
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	default:
		return nil
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, readBufferSize))
	_ = body.Close()
}
