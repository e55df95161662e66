// Package accesscontrol defines the data model shared by every other package
// in the coordinator: the DataElement/Operation enumerations, the ShardRef/
// ShardBucket pairs handed back by the shard directory, the de-duplicated
// result containers returned by public operations, and the typed error
// values that let callers distinguish "the key does not exist" from "a shard
// blew up".
//
// # Overview
//
// The coordinator owns no persistent data of its own (see the top-level
// SPEC_FULL.md). Everything it works with is transient and
// defined here:
//
//	DataElement   — which backend partition a record lives in
//	Operation     — read (Query) or write (Event)
//	ShardRef      — a shard client plus its human-readable description
//	ShardBucket   — a ShardRef paired with the subset of keys it owns
//	StringSet     — deduplicated set<string>
//	PairSet       — deduplicated set<(string,string)>
//
// # Error model
//
// Shard errors are classified at the boundary into exactly three buckets
// (propagate typed, treat as empty, or wrap generically) — see
// internal/resolver for the classification policy and internal/fanout for
// where wrapping happens. This package only defines the error *shapes*;
// a ShardOperationError is built by internal/fanout's WrapShardError for
// fan-outs and by internal/coordinator and internal/resolver for their
// single-shard calls, and no package other than internal/resolver is
// allowed to swallow one.
package accesscontrol
