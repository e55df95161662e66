// Package shardclient provides implementations of the
// accesscontrol.ShardClient contract (spec §6): the asynchronous RPC
// surface each backend shard exposes.
//
// InMemoryShardClient is a single-process implementation used by tests and
// local development, generalized from the teacher's internal/shard.Shard +
// internal/storage.MemoryStore pair (a single-namespace KV store) into the
// six access-management relations this system tracks (users, groups,
// entity types, entities, and the mappings between them).
//
// HTTPShardClient is the "thin hosting layer" transport spec §1 and §6
// describe only by contract, adapted from the teacher's
// internal/cluster.PostJSON/GetJSON helpers: the HTTP/REST transport itself
// is explicitly out of scope for the coordinator (spec §1), so this
// implementation exists to show the shape of a real deployment without the
// coordinator depending on any of its details.
package shardclient
