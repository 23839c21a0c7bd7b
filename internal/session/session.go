package session

//go:generate $MOCKGEN -source=session.go -destination=mocks/session_mock.go

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/net-request/internal/constants"
)

// Session is a cookie store.
type Session interface {
	// Cookies returns the cookies that would be sent to filter.URL.
	Cookies(ctx context.Context, filter Filter) ([]Cookie, error)
	// SetCookies stores cookies received from rawURL.
	SetCookies(ctx context.Context, rawURL string, cookies []*http.Cookie) error
}

// Filter selects cookies.
type Filter struct {
	// URL is the URL the cookies are scoped to.
	URL string
}

// Cookie is a name-value pair returned by a session.
type Cookie struct {
	Name  string
	Value string
}

// Static error definitions for better error handling.
var (
	// ErrInvalidCookieURL indicates that a cookie URL is not an absolute HTTP or HTTPS URL.
	ErrInvalidCookieURL = errors.New("cookie URL must be an absolute http or https URL")
)

// storedCookie is the on-disk representation of a cookie.
type storedCookie struct {
	URL      string    `yaml:"url"`
	Name     string    `yaml:"name"`
	Value    string    `yaml:"value"`
	Domain   string    `yaml:"domain,omitempty"`
	Path     string    `yaml:"path,omitempty"`
	Expires  time.Time `yaml:"expires,omitempty"`
	Secure   bool      `yaml:"secure,omitempty"`
	HTTPOnly bool      `yaml:"http_only,omitempty"`
}

// cookieFile is the document written for a persistent partition.
type cookieFile struct {
	Cookies []storedCookie `yaml:"cookies"`
}

// JarSession is a Session backed by a cookie jar.
// When created with a file path, every stored cookie is kept for Flush.
type JarSession struct {
	mu   sync.Mutex
	jar  *cookiejar.Jar
	path string
	// stored holds cookies by domain, path and name for persistence.
	stored map[string]storedCookie
	dirty  bool
}

// NewInMemory creates a session that is never written to disk.
func NewInMemory() (*JarSession, error) {
	return newJarSession("")
}

// Open creates a session persisted at path, loading existing cookies if the file exists.
func Open(path string) (*JarSession, error) {
	s, err := newJarSession(path)
	if err != nil {
		return nil, err
	}

	if err = s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func newJarSession(path string) (*JarSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &JarSession{
		jar:    jar,
		path:   path,
		stored: make(map[string]storedCookie),
	}, nil
}

// Cookies returns the cookies that would be sent to filter.URL, in jar order.
func (s *JarSession) Cookies(ctx context.Context, filter Filter) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := parseCookieURL(filter.URL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	jarCookies := s.jar.Cookies(u)
	s.mu.Unlock()

	result := make([]Cookie, 0, len(jarCookies))
	for _, c := range jarCookies {
		result = append(result, Cookie{Name: c.Name, Value: c.Value})
	}

	return result, nil
}

// SetCookies stores cookies received from rawURL.
func (s *JarSession) SetCookies(ctx context.Context, rawURL string, cookies []*http.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(cookies) == 0 {
		return nil
	}

	u, err := parseCookieURL(rawURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(u, cookies)

	if s.path == "" {
		return nil
	}

	for _, c := range cookies {
		sc := storedCookie{
			URL:      u.Scheme + "://" + u.Host,
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}

		switch {
		case c.MaxAge < 0:
			sc.Expires = time.Unix(1, 0).UTC()
		case c.MaxAge > 0:
			sc.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second).UTC()
		case !c.Expires.IsZero():
			sc.Expires = c.Expires.UTC()
		}

		s.stored[cookieKey(u, c)] = sc
	}

	s.dirty = true

	return nil
}

// Flush writes the stored cookies to disk. In-memory sessions and unchanged sessions are skipped.
func (s *JarSession) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" || !s.dirty {
		return nil
	}

	now := time.Now()
	document := cookieFile{Cookies: make([]storedCookie, 0, len(s.stored))}

	for key, c := range s.stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			delete(s.stored, key)

			continue
		}

		document.Cookies = append(document.Cookies, c)
	}

	content, err := yaml.Marshal(&document)
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if err = os.WriteFile(s.path, content, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}

	s.dirty = false

	return nil
}

// Path returns the file the session is persisted to, or an empty string.
func (s *JarSession) Path() string {
	return s.path
}

func (s *JarSession) load() error {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	var document cookieFile
	if err = yaml.Unmarshal(content, &document); err != nil {
		return fmt.Errorf("failed to parse cookie file %s: %w", s.path, err)
	}

	for _, sc := range document.Cookies {
		u, parseErr := parseCookieURL(sc.URL)
		if parseErr != nil {
			continue
		}

		c := &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Domain:   sc.Domain,
			Path:     sc.Path,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HTTPOnly,
		}

		s.jar.SetCookies(u, []*http.Cookie{c})
		s.stored[cookieKey(u, c)] = sc
	}

	return nil
}

func parseCookieURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCookieURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCookieURL, rawURL)
	}

	return u, nil
}

func cookieKey(u *url.URL, c *http.Cookie) string {
	domain := c.Domain
	if domain == "" {
		domain = u.Hostname()
	}

	return domain + "|" + c.Path + "|" + c.Name
}
