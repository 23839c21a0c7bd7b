// Package request provides Adapter, a thin layer over a network request.
//
// An adapter is created by a Factory, which merges the process-wide default options
// into the instance options. The adapter answers proxy login challenges with the
// configured credentials, injects the cookies of the resolved session before sending,
// stores cookies received in responses, reports every lifecycle event to a status sink
// and re-emits the request events to its own listeners.
package request
