package request

import (
	"github.com/oshokin/net-request/internal/event"
	"github.com/oshokin/net-request/internal/network"
)

// ResponseEvent is re-emitted when the response headers arrive.
// Response is the object produced by the network layer, so body listeners may be attached to it.
type ResponseEvent struct {
	Response *network.Response
}

// CloseEvent is re-emitted when the request closes.
type CloseEvent struct{}

// ErrorEvent is re-emitted with the transport error, unchanged.
type ErrorEvent struct {
	Err error
}

// AbortEvent is re-emitted when the request is aborted.
type AbortEvent struct{}

// FinishEvent is re-emitted when the request has been fully written.
type FinishEvent struct{}

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
