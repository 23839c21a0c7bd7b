package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oshokin/net-request/internal/constants"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/utils"
)

const (
	// PersistPrefix marks partitions that are saved to disk.
	PersistPrefix = "persist:"

	// DefaultMaxPersistentPartitions is the number of persistent partitions kept open at once.
	DefaultMaxPersistentPartitions = 16
)

// Static error definitions for better error handling.
var (
	// ErrEmptyPartition indicates that a partition name is empty.
	ErrEmptyPartition = errors.New("partition name cannot be empty")
	// ErrNoDataDir indicates that a persistent partition was requested without a data directory.
	ErrNoDataDir = errors.New("persistent partitions require a data directory")
)

// Registry resolves sessions by partition name.
// Sessions are shared: every lookup of the same partition returns the same session.
type Registry struct {
	mu      sync.Mutex
	dataDir string
	memory  map[string]*JarSession
	// persistent holds open persistent sessions; evicted sessions are flushed to disk.
	persistent *lru.Cache[string, *JarSession]
	// parked holds evicted sessions. Callers may still store cookies in them,
	// so they are flushed again by Flush and revived by the next lookup.
	parked map[string]*JarSession
}

// NewRegistry creates a registry storing persistent partitions under dataDir.
// An empty dataDir disables persistent partitions.
func NewRegistry(dataDir string, maxPersistent int) (*Registry, error) {
	if maxPersistent <= 0 {
		maxPersistent = DefaultMaxPersistentPartitions
	}

	r := &Registry{
		dataDir: dataDir,
		memory:  make(map[string]*JarSession),
		parked:  make(map[string]*JarSession),
	}

	// Eviction happens inside lookup, so r.mu is already held.
	persistent, err := lru.NewWithEvict(maxPersistent, func(partition string, s *JarSession) {
		if flushErr := s.Flush(); flushErr != nil {
			logger.Errorf(context.Background(), "Failed to save partition %q: %v", partition, flushErr)
		}

		r.parked[partition] = s
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create partitions cache: %w", err)
	}

	r.persistent = persistent

	return r, nil
}

// FromPartition returns the session of the given partition, creating it on first use.
func (r *Registry) FromPartition(ctx context.Context, partition string) (Session, error) {
	s, err := r.lookup(ctx, partition)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Flush saves every persistent partition handed out so far, including evicted ones.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make(map[string]*JarSession, r.persistent.Len()+len(r.parked))
	maps.Copy(sessions, r.parked)

	for _, partition := range r.persistent.Keys() {
		if s, ok := r.persistent.Peek(partition); ok {
			sessions[partition] = s
		}
	}

	var errs []error

	for _, partition := range slices.Sorted(maps.Keys(sessions)) {
		s := sessions[partition]

		if err := s.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("partition %q: %w", partition, err))

			continue
		}

		logger.Debugf(ctx, "Saved partition %q to %s", partition, s.Path())
	}

	return errors.Join(errs...)
}

func (r *Registry) lookup(ctx context.Context, partition string) (*JarSession, error) {
	partition = strings.TrimSpace(partition)
	if partition == "" {
		return nil, ErrEmptyPartition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name, isPersistent := strings.CutPrefix(partition, PersistPrefix)
	if !isPersistent {
		if s, ok := r.memory[partition]; ok {
			return s, nil
		}

		s, err := NewInMemory()
		if err != nil {
			return nil, err
		}

		r.memory[partition] = s

		return s, nil
	}

	if s, ok := r.persistent.Get(partition); ok {
		return s, nil
	}

	if s, ok := r.parked[partition]; ok {
		delete(r.parked, partition)
		r.persistent.Add(partition, s)

		return s, nil
	}

	if r.dataDir == "" {
		return nil, ErrNoDataDir
	}

	if name == "" {
		return nil, ErrEmptyPartition
	}

	folder := filepath.Join(r.dataDir, constants.PartitionsFolder)
	if err := os.MkdirAll(folder, constants.DefaultFolderPermissions); err != nil {
		return nil, fmt.Errorf("failed to create partitions folder: %w", err)
	}

	path := filepath.Join(folder, utils.SanitizeFilename(name)+constants.ExtensionYAML)

	s, err := Open(path)
	if err != nil {
		return nil, err
	}

	logger.Debugf(ctx, "Opened partition %q from %s", partition, path)

	r.persistent.Add(partition, s)

	return s, nil
}
