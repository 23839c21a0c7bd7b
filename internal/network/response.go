package network

import (
	"net/http"

	"github.com/oshokin/net-request/internal/event"
)

// Response is the header part of a received response.
// Its body is delivered as data events followed by end, aborted or error.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status line text, for example "200 OK".
	Status string
	// Proto is the protocol version.
	Proto string
	// Header holds the response headers.
	Header http.Header
	// ContentLength is the body length, or -1 when unknown.
	ContentLength int64
	// URL is the final URL after redirects.
	URL string

	emitter event.Emitter
}

func newResponse(resp *http.Response) *Response {
	r := &Response{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		Proto:         resp.Proto,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
	}

	if resp.Request != nil && resp.Request.URL != nil {
		r.URL = resp.Request.URL.String()
	}

	return r
}

// On subscribes to data, aborted, error or end events of the body.
func (r *Response) On(kind event.Kind, handler event.Handler) func() {
	return r.emitter.On(kind, handler)
}

// Emit delivers a body event to the listeners. Request implementations call it while reading the body.
func (r *Response) Emit(ev event.Event) int {
	return r.emitter.Emit(ev)
}

// Cookies parses the Set-Cookie headers of the response.
func (r *Response) Cookies() []*http.Cookie {
	return (&http.Response{Header: r.Header}).Cookies()
}
