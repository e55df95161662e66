// Package coordinator implements the Public Operation Surface (spec §4.6):
// the ~50 entry points callers use to manage and query the distributed
// access-management model. Every operation is a small adapter over one of
// five shapes — point-routed write, broadcast write, point-routed read,
// broadcast read, or resolver-driven read — built from internal/directory
// (routing), internal/fanout (concurrent dispatch), internal/resolver
// (transitive-closure reads), and internal/metrics (the Begin/End/
// CancelBegin timing contract every operation honors via metrics.Scope).
//
// Broadcast writes declare their target element set once, in the
// writeTargets table (coordinator.go), rather than special-casing each
// operation: AddUser writes only the User shard owning the key, AddGroup
// additionally broadcasts to every GroupToGroupMapping and User shard (spec
// §4.6's own example), AddEntityType/AddEntity broadcast to every User and
// Group shard, since entity-type vocabulary is validated on both.
//
// This package also hosts ShardHealthMonitor, adapted from the teacher's
// node health-monitoring loop: instead of polling registered cluster nodes,
// it polls the shard descriptions named in the current routing table,
// reporting unhealthy shards independent of the request path.
package coordinator
