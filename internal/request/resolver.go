package request

//go:generate $MOCKGEN -source=resolver.go -destination=mocks/resolver_mock.go

import (
	"context"

	"github.com/oshokin/net-request/internal/session"
)

// SessionResolver looks up the session of a named partition.
type SessionResolver interface {
	// FromPartition returns the session of partition, creating it when needed.
	FromPartition(ctx context.Context, partition string) (session.Session, error)
}
