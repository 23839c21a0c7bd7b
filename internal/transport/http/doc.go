// Package http provides http.RoundTripper decorators used by outgoing requests:
// debug dumps of request/response pairs with credentials redacted,
// and User-Agent header injection.
package http
