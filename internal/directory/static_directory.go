package directory

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sort"
	"sync/atomic"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// ClientFactory constructs a ShardClient for a configured endpoint. Kept as
// a function type rather than an interface so callers can wire in the
// in-memory test client or the HTTP client without this package depending on
// either.
type ClientFactory func(endpoint ShardEndpoint) (accesscontrol.ShardClient, error)

// routingTable is the immutable snapshot swapped in by RefreshConfiguration.
// Once built it is never mutated; StaticDirectory only ever swaps the
// pointer to a new instance (spec §4.1, §5: "read-side observers see either
// the old or new table, never a partial one").
type routingTable struct {
	query map[accesscontrol.DataElement][]accesscontrol.ShardRef
	event map[accesscontrol.DataElement][]accesscontrol.ShardRef
}

func (t *routingTable) shardsFor(de accesscontrol.DataElement, op accesscontrol.Operation) []accesscontrol.ShardRef {
	if op == accesscontrol.Event {
		return t.event[de]
	}
	return t.query[de]
}

// StaticDirectory is an in-memory ShardDirectory that maps keys to shards
// by hashing, adapted from the teacher's
// internal/coordinator.ShardRegistry: the same FNV-1a hash-and-modulo
// scheme, generalized from a single shard-ID space to one routing table per
// (DataElement, Operation) pair, and extended with the batched-bucketing
// operation (GetClients) the teacher's registry never needed because it
// only ever resolved one key at a time.
type StaticDirectory struct {
	table   atomic.Pointer[routingTable]
	factory ClientFactory
}

// NewStaticDirectory creates an empty directory. Call RefreshConfiguration
// to populate it before use; GetClient/GetAllClients/GetClients on an empty
// directory return an error naming the missing element/operation.
func NewStaticDirectory(factory ClientFactory) *StaticDirectory {
	d := &StaticDirectory{factory: factory}
	d.table.Store(&routingTable{
		query: make(map[accesscontrol.DataElement][]accesscontrol.ShardRef),
		event: make(map[accesscontrol.DataElement][]accesscontrol.ShardRef),
	})
	return d
}

// RefreshConfiguration builds a new routing table from cfg and swaps it in
// atomically. If any shard client fails to construct, the prior table is
// left untouched and a *accesscontrol.ConfigurationRefreshError is returned
// (spec §4.1, §7).
func (d *StaticDirectory) RefreshConfiguration(ctx context.Context, cfg Config) error {
	next := &routingTable{
		query: make(map[accesscontrol.DataElement][]accesscontrol.ShardRef),
		event: make(map[accesscontrol.DataElement][]accesscontrol.ShardRef),
	}

	elements := []accesscontrol.DataElement{accesscontrol.User, accesscontrol.Group, accesscontrol.GroupToGroupMapping}
	ops := []accesscontrol.Operation{accesscontrol.Query, accesscontrol.Event}

	for _, de := range elements {
		for _, op := range ops {
			refs, err := d.buildShardRefs(cfg.shardsFor(de, op))
			if err != nil {
				return &accesscontrol.ConfigurationRefreshError{Cause: err}
			}
			if op == accesscontrol.Event {
				next.event[de] = refs
			} else {
				next.query[de] = refs
			}
		}
	}

	d.table.Store(next)
	log.Printf("directory: configuration refreshed (%d user/%d group/%d g2g query shards)",
		len(next.query[accesscontrol.User]), len(next.query[accesscontrol.Group]), len(next.query[accesscontrol.GroupToGroupMapping]))
	return nil
}

func (d *StaticDirectory) buildShardRefs(endpoints []ShardEndpoint) ([]accesscontrol.ShardRef, error) {
	refs := make([]accesscontrol.ShardRef, 0, len(endpoints))
	for _, ep := range endpoints {
		client, err := d.factory(ep)
		if err != nil {
			return nil, fmt.Errorf("failed to construct shard client for %q: %w", ep.Description, err)
		}
		refs = append(refs, accesscontrol.ShardRef{Client: client, Description: ep.Description})
	}
	return refs, nil
}

// GetClient resolves a single key to the one shard that owns it via FNV-1a
// hashing and modulo, mirroring torua's ShardRegistry.GetShardForKey.
func (d *StaticDirectory) GetClient(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, key string) (accesscontrol.ShardRef, error) {
	refs := d.table.Load().shardsFor(de, op)
	if len(refs) == 0 {
		return accesscontrol.ShardRef{}, fmt.Errorf("no shards configured for %s/%s", de, op)
	}
	return refs[shardIndex(key, len(refs))], nil
}

// GetAllClients returns every shard for (de, op), for broadcast operations.
func (d *StaticDirectory) GetAllClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation) ([]accesscontrol.ShardRef, error) {
	refs := d.table.Load().shardsFor(de, op)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no shards configured for %s/%s", de, op)
	}
	out := make([]accesscontrol.ShardRef, len(refs))
	copy(out, refs)
	return out, nil
}

// GetClients partitions keys by owning shard. Buckets are returned in a
// stable order (by shard description) purely to make tests deterministic;
// callers must not rely on it (spec §5).
func (d *StaticDirectory) GetClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, keys []string) ([]accesscontrol.ShardBucket, error) {
	refs := d.table.Load().shardsFor(de, op)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no shards configured for %s/%s", de, op)
	}

	byShard := make(map[int][]string, len(refs))
	for _, key := range keys {
		idx := shardIndex(key, len(refs))
		byShard[idx] = append(byShard[idx], key)
	}

	buckets := make([]accesscontrol.ShardBucket, 0, len(byShard))
	for idx, bucketKeys := range byShard {
		buckets = append(buckets, accesscontrol.ShardBucket{Ref: refs[idx], Keys: bucketKeys})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Ref.Description < buckets[j].Ref.Description })
	return buckets, nil
}

// shardIndex hashes key with FNV-1a and maps it into [0, n).
func shardIndex(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % n
}
