package http

const (
	// DefaultUserAgent is the User-Agent sent when neither the request nor its options set one.
	DefaultUserAgent = "net-request/1.0 (+https://github.com/oshokin/net-request)"

	// DefaultMaxLogLength is the default maximum size in bytes of a logged request or response dump.
	DefaultMaxLogLength = 64 * 1024

	// redactedValue replaces sensitive header values in dumps.
	redactedValue = "[redacted]"
)

// sensitiveHeaders are redacted before a request is dumped.
//
//nolint:gochecknoglobals // Immutable list used as a constant.
var sensitiveHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}
