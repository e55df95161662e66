// Package shardserver hosts an accesscontrol.ShardClient behind the wire
// contract shardclient.HTTPShardClient speaks: one handler per path, JSON
// request/response bodies, and a 422 error envelope carrying the typed
// NotFound errors the coordinator needs to classify (spec §4.5, §7).
//
// This is the server side of the same protocol internal/shardclient/http.go
// implements as a client, adapted from the teacher's cmd/node — a single
// node there managed several shard.Shard instances behind a byte-oriented
// KV path; here one process hosts exactly one ShardClient per
// internal/directory.ShardEndpoint, matching how a directory.Config entry
// names one address per shard.
package shardserver
