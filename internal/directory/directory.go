package directory

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// ShardDirectory resolves (DataElement, Operation) pairs to shard clients.
// It is the sole consumed contract described in spec §4.1; the coordinator
// never constructs a ShardClient itself.
//
// Implementations must be safe for unbounded concurrent callers (spec
// invariant I3), and RefreshConfiguration must be atomic with respect to
// concurrent resolutions.
type ShardDirectory interface {
	// GetClient resolves a single routing key (a user or group name) to the
	// one shard that owns it for the given element and operation kind.
	GetClient(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, key string) (accesscontrol.ShardRef, error)

	// GetAllClients returns every shard for the given element and operation
	// kind, for broadcast reads and writes. Order is not observable.
	GetAllClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation) ([]accesscontrol.ShardRef, error)

	// GetClients partitions keys by owning shard, returning one bucket per
	// shard that owns at least one of the input keys. Buckets partition the
	// input set: a key appears in exactly one bucket.
	GetClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, keys []string) ([]accesscontrol.ShardBucket, error)

	// RefreshConfiguration atomically replaces the live routing table. A
	// failure surfaces as *accesscontrol.ConfigurationRefreshError and must
	// not corrupt the prior routing table (spec §4.1, §7).
	RefreshConfiguration(ctx context.Context, cfg Config) error
}
