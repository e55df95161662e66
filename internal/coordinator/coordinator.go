package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/fanout"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/resolver"
)

// Coordinator is the single public entry point of the system: it composes
// a directory.ShardDirectory, a metrics.MetricLogger, and a
// resolver.Resolver into the ~50 operations of spec §4.6. Callers never
// construct a ShardClient or talk to the Directory directly.
type Coordinator struct {
	directory directory.ShardDirectory
	metrics   metrics.MetricLogger
	resolver  *resolver.Resolver
}

// New builds a Coordinator over the given directory and metric logger.
func New(dir directory.ShardDirectory, logger metrics.MetricLogger) *Coordinator {
	return &Coordinator{
		directory: dir,
		metrics:   logger,
		resolver:  resolver.New(dir, logger),
	}
}

// writeTargets is the supplemented-feature table of SPEC_FULL.md §3.8: a
// broadcast write declares the full set of elements it must reach here,
// once, rather than each operation special-casing its own fan-out.
//
// AddGroup/RemoveGroup reach GroupToGroupMapping and User shards in
// addition to the owning Group shard because both relations can reference
// a group by name (a group-to-group edge, a user-to-group mapping) and
// must be able to validate that reference without a cross-shard round
// trip. AddEntityType/RemoveEntityType and AddEntity/RemoveEntity reach
// every User and Group shard for the same reason: entity-type vocabulary
// and entity identity are referenced from both User and Group entity
// mappings, and GroupToGroupMapping shards have no notion of either.
var writeTargets = map[string][]accesscontrol.DataElement{
	"Group":      {accesscontrol.GroupToGroupMapping, accesscontrol.User},
	"EntityType": {accesscontrol.User, accesscontrol.Group},
	"Entity":     {accesscontrol.User, accesscontrol.Group},
}

// pointWrite is the Point-routed write shape of spec §4.6: resolve key to
// its one owning shard and run a single RPC. A shard failure surfaces
// wrapped as *accesscontrol.ShardOperationError, except typed NotFound
// errors which propagate unchanged (spec §7).
func (c *Coordinator) pointWrite(ctx context.Context, de accesscontrol.DataElement, key, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) error) error {
	ref, err := c.directory.GetClient(ctx, de, accesscontrol.Event, key)
	if err != nil {
		return err
	}
	if err := call(ctx, ref); err != nil {
		if isTypedNotFound(err) {
			return err
		}
		return accesscontrol.NewShardOperationError(verb, object, key, "in", ref.Description, err)
	}
	return nil
}

// broadcastWrite is the Broadcast write shape of spec §4.6: primary is the
// shard owning key for de (may be the zero ShardRef if de has no single
// owner, e.g. a pure-vocabulary write with no natural key shard), extra
// names every additional element whose shards must also receive the write.
// Every target is dispatched as one fan-out with the All aggregation shape
// (spec §4.3): the first fatal failure cancels the rest and is returned,
// per-shard writes that already landed are not rolled back (SPEC_FULL.md
// §5 Open Questions: no compensating-undo pass).
func (c *Coordinator) broadcastWrite(ctx context.Context, primary accesscontrol.DataElement, key string, extra []accesscontrol.DataElement, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) error) error {
	primaryRef, err := c.directory.GetClient(ctx, primary, accesscontrol.Event, key)
	if err != nil {
		return err
	}
	targets := []accesscontrol.ShardRef{primaryRef}
	for _, de := range extra {
		shards, err := c.directory.GetAllClients(ctx, de, accesscontrol.Event)
		if err != nil {
			return err
		}
		targets = append(targets, shards...)
	}
	return fanout.ExecuteAll(ctx, targets, fanout.FatalOnly, fanout.WrapShardError(verb, object, key, "in"), call)
}

// vocabularyWrite is broadcastWrite's variant for writes with no single
// owning shard at all (AddEntityType/RemoveEntityType): every shard of
// every element in targets receives the write.
func (c *Coordinator) vocabularyWrite(ctx context.Context, targets []accesscontrol.DataElement, key, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) error) error {
	var all []accesscontrol.ShardRef
	for _, de := range targets {
		shards, err := c.directory.GetAllClients(ctx, de, accesscontrol.Event)
		if err != nil {
			return err
		}
		all = append(all, shards...)
	}
	return fanout.ExecuteAll(ctx, all, fanout.FatalOnly, fanout.WrapShardError(verb, object, key, "in"), call)
}

// pointReadBool is the Point-routed read shape for a boolean pass-through
// (ContainsUser, ContainsGroup, ...).
func (c *Coordinator) pointReadBool(ctx context.Context, de accesscontrol.DataElement, key string, call func(ctx context.Context, ref accesscontrol.ShardRef) (bool, error)) (bool, error) {
	ref, err := c.directory.GetClient(ctx, de, accesscontrol.Query, key)
	if err != nil {
		return false, err
	}
	return call(ctx, ref)
}

// broadcastReadStrings is the Broadcast read shape aggregating with
// UnionStrings (GetUsers, GetGroups, GetEntityTypes, ...).
func (c *Coordinator) broadcastReadStrings(ctx context.Context, de accesscontrol.DataElement, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error)) (accesscontrol.StringSet, error) {
	shards, err := c.directory.GetAllClients(ctx, de, accesscontrol.Query)
	if err != nil {
		return nil, err
	}
	return fanout.Execute(ctx, shards, fanout.FatalOnly, fanout.WrapShardError(verb, object, "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			vals, err := call(ctx, ref)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewStringSet(vals), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// broadcastReadPairs mirrors broadcastReadStrings for Pair-returning reads.
func (c *Coordinator) broadcastReadPairs(ctx context.Context, de accesscontrol.DataElement, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) ([]accesscontrol.Pair, error)) (accesscontrol.PairSet, error) {
	shards, err := c.directory.GetAllClients(ctx, de, accesscontrol.Query)
	if err != nil {
		return nil, err
	}
	return fanout.Execute(ctx, shards, fanout.FatalOnly, fanout.WrapShardError(verb, object, "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.PairSet, error) {
			vals, err := call(ctx, ref)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewPairSet(vals), nil
		},
		fanout.UnionPairsCombiner(),
	)
}

// pointReadStrings is the Point-routed read shape for a list-returning
// pass-through (GetUserToGroupMappings(user, direct), ...).
func (c *Coordinator) pointReadStrings(ctx context.Context, de accesscontrol.DataElement, key string, call func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error)) (accesscontrol.StringSet, error) {
	ref, err := c.directory.GetClient(ctx, de, accesscontrol.Query, key)
	if err != nil {
		return nil, err
	}
	vals, err := call(ctx, ref)
	if err != nil {
		if isTypedNotFound(err) {
			return nil, err
		}
		return nil, accesscontrol.NewShardOperationError("retrieve", "mappings", key, "from", ref.Description, err)
	}
	return accesscontrol.NewStringSet(vals), nil
}

// pointReadPairs is pointReadStrings' Pair-returning counterpart
// (GetUserToApplicationComponentAndAccessLevelMappings,
// GetUserToEntityMappings, ...).
func (c *Coordinator) pointReadPairs(ctx context.Context, de accesscontrol.DataElement, key string, call func(ctx context.Context, ref accesscontrol.ShardRef) ([]accesscontrol.Pair, error)) (accesscontrol.PairSet, error) {
	ref, err := c.directory.GetClient(ctx, de, accesscontrol.Query, key)
	if err != nil {
		return nil, err
	}
	vals, err := call(ctx, ref)
	if err != nil {
		if isTypedNotFound(err) {
			return nil, err
		}
		return nil, accesscontrol.NewShardOperationError("retrieve", "mappings", key, "from", ref.Description, err)
	}
	return accesscontrol.NewPairSet(vals), nil
}

// broadcastReadStringsMulti is broadcastReadStrings generalized to multiple
// elements, for vocabulary reads that live on more than one element's
// shards (GetEntityTypes/GetEntities span User and Group shards).
func (c *Coordinator) broadcastReadStringsMulti(ctx context.Context, des []accesscontrol.DataElement, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error)) (accesscontrol.StringSet, error) {
	var shards []accesscontrol.ShardRef
	for _, de := range des {
		s, err := c.directory.GetAllClients(ctx, de, accesscontrol.Query)
		if err != nil {
			return nil, err
		}
		shards = append(shards, s...)
	}
	return fanout.Execute(ctx, shards, fanout.FatalOnly, fanout.WrapShardError(verb, object, "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			vals, err := call(ctx, ref)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewStringSet(vals), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// broadcastReadBoolMulti is the Broadcast read shape for a boolean OR over
// multiple elements' shards (ContainsEntityType/ContainsEntity: true if any
// User or Group shard reports the vocabulary entry present).
func (c *Coordinator) broadcastReadBoolMulti(ctx context.Context, des []accesscontrol.DataElement, verb, object string, call func(ctx context.Context, ref accesscontrol.ShardRef) (bool, error)) (bool, error) {
	var shards []accesscontrol.ShardRef
	for _, de := range des {
		s, err := c.directory.GetAllClients(ctx, de, accesscontrol.Query)
		if err != nil {
			return false, err
		}
		shards = append(shards, s...)
	}
	return fanout.Execute(ctx, shards, fanout.FatalOnly, fanout.WrapShardError(verb, object, "", "from"), call, fanout.OrBoolCombiner())
}

// isTypedNotFound reports whether err is one of the typed NotFound variants
// that must propagate unchanged rather than be wrapped (spec §7).
func isTypedNotFound(err error) bool {
	switch err.(type) {
	case *accesscontrol.UserNotFoundError, *accesscontrol.GroupNotFoundError,
		*accesscontrol.EntityTypeNotFoundError, *accesscontrol.EntityNotFoundError:
		return true
	}
	return false
}
