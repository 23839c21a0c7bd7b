// Package options holds request option maps, the provider of process-wide defaults
// merged into every new request, and decoding of transport settings.
package options
