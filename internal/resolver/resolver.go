package resolver

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/fanout"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// Metric tags recorded alongside the standard Begin/End/Increment pair for
// every resolver-driven query (spec §4.4 "Metric accounting for auth
// queries").
const (
	tagGroupsMappedToUser = "groups-mapped-to-user"
	tagGroupShardsQueried = "group-shards-queried"
)

// Resolver implements the transitive-closure traversal of spec §4.4 against
// a directory.ShardDirectory, recording the groups-mapped and shards-queried
// gauges on the supplied metrics.MetricLogger.
type Resolver struct {
	Directory directory.ShardDirectory
	Metrics   metrics.MetricLogger
}

// New builds a Resolver over the given directory and metric logger.
func New(dir directory.ShardDirectory, logger metrics.MetricLogger) *Resolver {
	return &Resolver{Directory: dir, Metrics: logger}
}

// directGroups is Phase 1: resolve user to its directly-mapped groups. A
// *accesscontrol.UserNotFoundError is returned unchanged for the caller to
// classify per §4.5 (propagate for list queries, "return false" for
// Has-access queries); any other shard error is wrapped with verb/object
// naming the failing operation.
func (r *Resolver) directGroups(ctx context.Context, user, verb, object string) ([]string, accesscontrol.ShardRef, error) {
	ref, err := r.Directory.GetClient(ctx, accesscontrol.User, accesscontrol.Query, user)
	if err != nil {
		return nil, ref, err
	}
	groups, err := ref.Client.GetUserToGroupMappings(ctx, user, false)
	if err != nil {
		var notFound *accesscontrol.UserNotFoundError
		if errors.As(err, &notFound) {
			return nil, ref, err
		}
		return nil, ref, accesscontrol.NewShardOperationError(verb, object, user, "from", ref.Description, err)
	}
	return groups, ref, nil
}

// classifyGroupNotFoundBenign implements the "swallow" row of the §4.5
// table for group-to-group closure expansion: a group shard reporting that
// one of its input groups no longer exists contributes the empty set rather
// than failing the whole traversal.
func classifyGroupNotFoundBenign(err error) fanout.Classification {
	var notFound *accesscontrol.GroupNotFoundError
	if errors.As(err, &notFound) {
		return fanout.Benign
	}
	return fanout.Fatal
}

// groupClosure is Phase 2: expand seeds through the group-to-group graph to
// its transitive closure G, which by contract includes seeds itself. Per
// spec §4.4, Phase 2 is skipped entirely when seeds is empty — no Directory
// call, no fan-out of zero tasks.
func (r *Resolver) groupClosure(ctx context.Context, seeds []string) (accesscontrol.StringSet, error) {
	if len(seeds) == 0 {
		return accesscontrol.NewStringSet(), nil
	}
	buckets, err := r.Directory.GetClients(ctx, accesscontrol.GroupToGroupMapping, accesscontrol.Query, seeds)
	if err != nil {
		return nil, err
	}
	return fanout.ExecuteBuckets(ctx, buckets, classifyGroupNotFoundBenign,
		fanout.WrapShardError("expand", "group memberships", "", "via"),
		func(ctx context.Context, b accesscontrol.ShardBucket) (accesscontrol.StringSet, error) {
			groups, err := b.Ref.Client.GetGroupToGroupMappings(ctx, b.Keys, true)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewStringSet(groups), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// reverseGroupClosure mirrors groupClosure but follows group-to-group edges
// in reverse, broadcasting over every group-to-group shard since a reverse
// edge's owner is not determined by the seed group's own routing key (spec
// §4.4 "Reverse-direction queries").
func (r *Resolver) reverseGroupClosure(ctx context.Context, seeds []string) (accesscontrol.StringSet, error) {
	if len(seeds) == 0 {
		return accesscontrol.NewStringSet(), nil
	}
	shards, err := r.Directory.GetAllClients(ctx, accesscontrol.GroupToGroupMapping, accesscontrol.Query)
	if err != nil {
		return nil, err
	}
	return fanout.Execute(ctx, shards, classifyGroupNotFoundBenign,
		fanout.WrapShardError("expand", "group memberships", "", "via"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			groups, err := ref.Client.GetGroupToGroupReverseMappings(ctx, seeds, true)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewStringSet(groups), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// phase3Bool evaluates a has-access-shaped query over every shard owning a
// member of G (Phase 3), recording the groups-mapped and shards-queried
// gauges, and returns the OrBool-combined result.
func (r *Resolver) phase3Bool(ctx context.Context, g accesscontrol.StringSet, call func(ctx context.Context, b accesscontrol.ShardBucket) (bool, error)) (bool, error) {
	r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
	if g.Len() == 0 {
		r.Metrics.Add(tagGroupShardsQueried, 0)
		return false, nil
	}
	buckets, err := r.Directory.GetClients(ctx, accesscontrol.Group, accesscontrol.Query, g.Slice())
	if err != nil {
		return false, err
	}
	r.Metrics.Add(tagGroupShardsQueried, int64(len(buckets)))
	return fanout.ExecuteBuckets(ctx, buckets, benignOnGroupShard, fanout.WrapShardError("check", "access", "", "on"), call, fanout.OrBoolCombiner())
}

// phase3Strings evaluates a list-shaped query over every shard owning a
// member of G, recording the same gauges as phase3Bool.
func (r *Resolver) phase3Strings(ctx context.Context, g accesscontrol.StringSet, object string, call func(ctx context.Context, b accesscontrol.ShardBucket) ([]string, error)) (accesscontrol.StringSet, error) {
	r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
	if g.Len() == 0 {
		r.Metrics.Add(tagGroupShardsQueried, 0)
		return accesscontrol.NewStringSet(), nil
	}
	buckets, err := r.Directory.GetClients(ctx, accesscontrol.Group, accesscontrol.Query, g.Slice())
	if err != nil {
		return nil, err
	}
	r.Metrics.Add(tagGroupShardsQueried, int64(len(buckets)))
	return fanout.ExecuteBuckets(ctx, buckets, benignOnGroupShard, fanout.WrapShardError("retrieve", object, "", "from"),
		func(ctx context.Context, b accesscontrol.ShardBucket) (accesscontrol.StringSet, error) {
			vals, err := call(ctx, b)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewStringSet(vals), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// phase3Pairs is the Pair-returning counterpart to phase3Strings, used by
// GetApplicationComponentsAccessibleByUser/Group.
func (r *Resolver) phase3Pairs(ctx context.Context, g accesscontrol.StringSet, object string, call func(ctx context.Context, b accesscontrol.ShardBucket) ([]accesscontrol.Pair, error)) (accesscontrol.PairSet, error) {
	r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
	if g.Len() == 0 {
		r.Metrics.Add(tagGroupShardsQueried, 0)
		return accesscontrol.NewPairSet(), nil
	}
	buckets, err := r.Directory.GetClients(ctx, accesscontrol.Group, accesscontrol.Query, g.Slice())
	if err != nil {
		return nil, err
	}
	r.Metrics.Add(tagGroupShardsQueried, int64(len(buckets)))
	return fanout.ExecuteBuckets(ctx, buckets, benignOnGroupShard, fanout.WrapShardError("retrieve", object, "", "from"),
		func(ctx context.Context, b accesscontrol.ShardBucket) (accesscontrol.PairSet, error) {
			pairs, err := call(ctx, b)
			if err != nil {
				return nil, err
			}
			return accesscontrol.NewPairSet(pairs), nil
		},
		fanout.UnionPairsCombiner(),
	)
}

// benignOnGroupShard implements the "benign on group shard" rows of the
// §4.5 table: a group shard reporting that one of its input groups, the
// queried entity type, or the queried entity does not exist contributes
// nothing rather than failing Phase 3.
func benignOnGroupShard(err error) fanout.Classification {
	var groupNotFound *accesscontrol.GroupNotFoundError
	var entityTypeNotFound *accesscontrol.EntityTypeNotFoundError
	var entityNotFound *accesscontrol.EntityNotFoundError
	if errors.As(err, &groupNotFound) || errors.As(err, &entityTypeNotFound) || errors.As(err, &entityNotFound) {
		return fanout.Benign
	}
	return fanout.Fatal
}

// directAndClosure runs Phase 1 and Phase 2 for a user-centric query,
// returning the direct groups D (needed by some callers for their own
// direct-contribution check) and the closure G.
func (r *Resolver) directAndClosure(ctx context.Context, user, verb, object string) (direct []string, g accesscontrol.StringSet, userRef accesscontrol.ShardRef, err error) {
	direct, userRef, err = r.directGroups(ctx, user, verb, object)
	if err != nil {
		return nil, nil, userRef, err
	}
	g, err = r.groupClosure(ctx, direct)
	return direct, g, userRef, err
}

// runParallel is a small helper for the common "Phase 1 alongside a direct
// user-shard check" pattern (spec §4.4: "The direct contribution of the
// user itself is obtained in parallel with Phase 1").
func runParallel(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error { return t(gctx) })
	}
	return g.Wait()
}
