// Package event provides typed lifecycle events and a small thread-safe emitter.
// Subscribers register a handler for an event kind and receive the concrete event value;
// emitters deliver events synchronously in registration order.
package event
