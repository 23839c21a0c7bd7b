package network

import "github.com/oshokin/net-request/internal/event"

// AuthInfo describes an authentication challenge.
type AuthInfo struct {
	// IsProxy is true when the challenge comes from a proxy.
	IsProxy bool
	// Scheme is the lower-cased authentication scheme, for example "basic".
	Scheme string
	// Host is the host that issued the challenge.
	Host string
	// Port is the port of Host.
	Port int
	// Realm is the realm advertised by the challenge, if any.
	Realm string
}

// LoginEvent asks for credentials. Calling Respond answers the challenge;
// only the first call counts. Leaving it unanswered lets the challenge time out.
type LoginEvent struct {
	AuthInfo AuthInfo
	Respond  func(username, password string)
}

// ResponseEvent carries the response headers; the body follows as response events.
type ResponseEvent struct {
	Response *Response
}

// CloseEvent is the last event of every request.
type CloseEvent struct{}

// ErrorEvent reports a transport failure.
type ErrorEvent struct {
	Err error
}

// AbortEvent reports that the request was aborted.
type AbortEvent struct{}

// FinishEvent reports that the request has been fully written.
type FinishEvent struct{}

// DataEvent carries a chunk of the response body. The chunk is owned by the receiver.
type DataEvent struct {
	Chunk []byte
}

// AbortedEvent reports that reading the response body was interrupted by an abort.
type AbortedEvent struct{}

// EndEvent reports that the whole response body was received.
type EndEvent struct{}

// ResponseErrorEvent reports a failure while reading the response body.
type ResponseErrorEvent struct {
	Err error
}

// Kind implements event.Event.
func (LoginEvent) Kind() event.Kind { return event.KindLogin }

// Kind implements event.Event.
func (ResponseEvent) Kind() event.Kind { return event.KindResponse }

// Kind implements event.Event.
func (CloseEvent) Kind() event.Kind { return event.KindClose }

// Kind implements event.Event.
func (ErrorEvent) Kind() event.Kind { return event.KindError }

// Kind implements event.Event.
func (AbortEvent) Kind() event.Kind { return event.KindAbort }

// Kind implements event.Event.
func (FinishEvent) Kind() event.Kind { return event.KindFinish }

// Kind implements event.Event.
func (DataEvent) Kind() event.Kind { return event.KindData }

// Kind implements event.Event.
func (AbortedEvent) Kind() event.Kind { return event.KindAborted }

// Kind implements event.Event.
func (EndEvent) Kind() event.Kind { return event.KindEnd }

// Kind implements event.Event.
func (ResponseErrorEvent) Kind() event.Kind { return event.KindError }
