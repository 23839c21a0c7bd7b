// Package utils provides small helpers shared across the application:
// file name sanitizing, file checks, regex group extraction, content type checks
// and slice mapping.
package utils
