// Package directory implements the Shard Directory contract consumed by the
// rest of the coordinator (spec §4.1). The directory is the only
// process-wide mutable state besides the metric harness, and the only
// component allowed to mutate its own state at runtime: RefreshConfiguration
// replaces the live routing table atomically so that concurrent resolvers
// always observe either the old table or the new one, never a partial one
// (spec §5).
//
// # Architecture
//
// This is a direct generalization of the teacher's
// internal/coordinator.ShardRegistry: instead of mapping a single shard ID
// space to nodes, StaticDirectory maps a (DataElement, Operation) pair to an
// ordered list of ShardRefs, each owning a deterministic slice of the key
// space via FNV-1a hashing — the same hash torua's ShardRegistry.GetShardForKey
// and shard.Shard.OwnsKey use.
//
//	┌──────────────────────────────────────────┐
//	│            StaticDirectory                │
//	├──────────────────────────────────────────┤
//	│  routing: atomic.Pointer[routingTable]    │
//	│  table[DataElement] -> []ShardRef         │
//	├──────────────────────────────────────────┤
//	│  GetClient(de, op, key)                   │
//	│    -> hash(key) % len(shards) -> ShardRef │
//	│  GetClients(de, op, keys)                 │
//	│    -> bucket keys by owning shard         │
//	└──────────────────────────────────────────┘
package directory
