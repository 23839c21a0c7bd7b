package status

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSinkFunc tests that SinkFunc forwards lines.
func TestSinkFunc(t *testing.T) {
	t.Parallel()

	var received []string

	sink := SinkFunc(func(_ context.Context, line string) {
		received = append(received, line)
	})

	sink.SendStatus(context.Background(), "first")
	sink.SendStatus(context.Background(), "second")

	assert.Equal(t, []string{"first", "second"}, received)
}

// TestLoggerSink tests that the logger sink accepts lines without panicking.
func TestLoggerSink(t *testing.T) {
	t.Parallel()

	sink := NewLoggerSink()
	assert.Implements(t, (*Sink)(nil), sink)

	sink.SendStatus(context.Background(), "Request: https://example.com closed")
	Discard.SendStatus(context.Background(), "dropped")
}
