// Package network implements the underlying request primitive on top of net/http.
//
// A Request is created open, collects headers and body, and is sent by End.
// While in flight it emits, in order: login (zero or more, proxy challenges only),
// finish, response, and finally close. Failures emit error or abort before close.
// The Response emits data chunks followed by exactly one of end, aborted or error.
// All events of one request are delivered sequentially from a single goroutine.
package network
