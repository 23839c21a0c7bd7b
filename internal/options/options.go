package options

import (
	"maps"
	"sync"
)

// Option keys understood by requests.
const (
	// KeyURL is the absolute HTTP or HTTPS URL of the request.
	KeyURL = "url"
	// KeyMethod is the HTTP method, GET when unset.
	KeyMethod = "method"
	// KeySession is an explicit cookie session.
	KeySession = "session"
	// KeyPartition names the session looked up when no explicit session is given.
	KeyPartition = "partition"
	// KeyProxyUsername answers proxy login challenges.
	KeyProxyUsername = "proxy_username"
	// KeyProxyPassword answers proxy login challenges.
	KeyProxyPassword = "proxy_password"
	// KeyHeaders holds extra request headers.
	KeyHeaders = "headers"
	// KeyProxy is the proxy URL, or "direct".
	KeyProxy = "proxy"
	// KeyTimeout limits the whole exchange.
	KeyTimeout = "timeout"
	// KeyRedirect is one of "follow", "error", "manual".
	KeyRedirect = "redirect"
	// KeyUserAgent overrides the default User-Agent.
	KeyUserAgent = "user_agent"
	// KeyLoginTimeout limits how long a login challenge waits for credentials.
	KeyLoginTimeout = "login_timeout"
	// KeyMaxLoginAttempts limits how many login challenges a request answers.
	KeyMaxLoginAttempts = "max_login_attempts"
)

// Options maps option names to values.
type Options map[string]any

// Clone returns a shallow copy of o. A nil map clones into an empty one.
func (o Options) Clone() Options {
	result := make(Options, len(o))
	maps.Copy(result, o)

	return result
}

// Merge returns the union of base and overrides; overrides win on key collision.
// Neither input is modified.
func Merge(base, overrides Options) Options {
	result := base.Clone()
	maps.Copy(result, overrides)

	return result
}

// Provider holds the process-wide default options.
// It is safe for concurrent use.
type Provider struct {
	mu     sync.RWMutex
	global Options
}

// NewProvider creates a provider seeded with a copy of initial.
func NewProvider(initial Options) *Provider {
	return &Provider{global: initial.Clone()}
}

// Set replaces all default options.
func (p *Provider) Set(o Options) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.global = o.Clone()
}

// Update overwrites or inserts every key of o.
func (p *Provider) Update(o Options) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.global == nil {
		p.global = make(Options, len(o))
	}

	maps.Copy(p.global, o)
}

// Remove deletes the given keys. Missing keys are ignored.
func (p *Provider) Remove(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, key := range keys {
		delete(p.global, key)
	}
}

// Snapshot returns a copy of the current default options.
func (p *Provider) Snapshot() Options {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.global.Clone()
}

// Merge returns the current defaults merged with instance; instance values win.
func (p *Provider) Merge(instance Options) Options {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Merge(p.global, instance)
}
