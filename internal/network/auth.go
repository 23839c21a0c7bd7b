package network

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/oshokin/net-request/internal/utils"
)

const (
	proxyAuthenticateHeader  = "Proxy-Authenticate"
	proxyAuthorizationHeader = "Proxy-Authorization"
)

//nolint:gochecknoglobals // Immutable, pre-compiled regex pattern used as a constant.
var realmPattern = regexp.MustCompile(`(?i)realm="(?P<realm>[^"]*)"`)

// ProxyAuthError is returned by the transport when a CONNECT tunnel is refused with 407.
type ProxyAuthError struct {
	AuthInfo AuthInfo
}

// Error implements error.
func (e *ProxyAuthError) Error() string {
	return "proxy authentication required by " + e.AuthInfo.Host + ":" + strconv.Itoa(e.AuthInfo.Port)
}

type credentials struct {
	username string
	password string
}

// basicAuthorization returns the value of a basic Proxy-Authorization header.
func (c credentials) basicAuthorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.username+":"+c.password))
}

// proxyAuthInfo describes a proxy challenge found in header.
// proxyURL may be nil when the proxy is not known; fallback is used instead.
func proxyAuthInfo(proxyURL, fallback *url.URL, header http.Header) AuthInfo {
	info := AuthInfo{IsProxy: true}

	source := proxyURL
	if source == nil {
		source = fallback
	}

	if source != nil {
		info.Host = source.Hostname()
		info.Port = portOf(source)
	}

	challenge := header.Get(proxyAuthenticateHeader)
	scheme, _, _ := strings.Cut(strings.TrimSpace(challenge), " ")
	info.Scheme = strings.ToLower(scheme)

	info.Realm = utils.ExtractNamedGroup(realmPattern, "realm", challenge)

	return info
}

func portOf(u *url.URL) int {
	if port, err := strconv.Atoi(u.Port()); err == nil {
		return port
	}

	switch u.Scheme {
	case "https":
		return 443
	case "socks5", "socks5h":
		return 1080
	default:
		return 80
	}
}
