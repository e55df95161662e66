package resolver

import (
	"context"
	"errors"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/fanout"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// HasAccessToApplicationComponentUser answers whether user, directly or
// transitively through its group memberships, has accessLevel on component
// (spec §4.4, §8 scenarios 3-4).
func (r *Resolver) HasAccessToApplicationComponentUser(ctx context.Context, user, component, accessLevel string) (has bool, err error) {
	defer metrics.Scope(r.Metrics, "HasAccessToApplicationComponentUser")(&err)

	ref, directErr := r.Directory.GetClient(ctx, accesscontrol.User, accesscontrol.Query, user)
	if directErr != nil {
		err = directErr
		return false, err
	}

	var direct []string
	var directHasAccess bool
	runErr := runParallel(ctx,
		func(ctx context.Context) error {
			groups, callErr := ref.Client.GetUserToGroupMappings(ctx, user, false)
			if callErr != nil {
				return callErr
			}
			direct = groups
			return nil
		},
		func(ctx context.Context) error {
			callHas, callErr := ref.Client.HasAccessToApplicationComponentUser(ctx, user, component, accessLevel)
			if callErr != nil {
				return callErr
			}
			directHasAccess = callHas
			return nil
		},
	)
	if runErr != nil {
		var notFound *accesscontrol.UserNotFoundError
		if errors.As(runErr, &notFound) {
			r.Metrics.Add(tagGroupsMappedToUser, 0)
			r.Metrics.Add(tagGroupShardsQueried, 0)
			return false, nil
		}
		err = accesscontrol.NewShardOperationError("check", "access", user, "on", ref.Description, runErr)
		return false, err
	}
	if directHasAccess {
		g := accesscontrol.NewStringSet(direct)
		r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
		r.Metrics.Add(tagGroupShardsQueried, 0)
		return true, nil
	}

	g, closureErr := r.groupClosure(ctx, direct)
	if closureErr != nil {
		err = closureErr
		return false, err
	}
	has, phaseErr := r.phase3Bool(ctx, g, func(ctx context.Context, b accesscontrol.ShardBucket) (bool, error) {
		return b.Ref.Client.HasAccessToApplicationComponentGroups(ctx, b.Keys, component, accessLevel)
	})
	if phaseErr != nil {
		err = phaseErr
		return false, err
	}
	return has, nil
}

// HasAccessToApplicationComponentGroup is the group-centric variant of
// HasAccessToApplicationComponentUser: Phase 1 is replaced by the identity
// set {group} (spec §4.4 "Group-centric variant").
func (r *Resolver) HasAccessToApplicationComponentGroup(ctx context.Context, group, component, accessLevel string) (has bool, err error) {
	defer metrics.Scope(r.Metrics, "HasAccessToApplicationComponentGroup")(&err)

	g, closureErr := r.groupClosure(ctx, []string{group})
	if closureErr != nil {
		err = closureErr
		return false, err
	}
	has, phaseErr := r.phase3Bool(ctx, g, func(ctx context.Context, b accesscontrol.ShardBucket) (bool, error) {
		return b.Ref.Client.HasAccessToApplicationComponentGroups(ctx, b.Keys, component, accessLevel)
	})
	if phaseErr != nil {
		err = phaseErr
		return false, err
	}
	return has, nil
}

// HasAccessToEntityUser is the entity-space counterpart of
// HasAccessToApplicationComponentUser.
func (r *Resolver) HasAccessToEntityUser(ctx context.Context, user, entityType, entity string) (has bool, err error) {
	defer metrics.Scope(r.Metrics, "HasAccessToEntityUser")(&err)

	ref, directErr := r.Directory.GetClient(ctx, accesscontrol.User, accesscontrol.Query, user)
	if directErr != nil {
		err = directErr
		return false, err
	}

	var direct []string
	var directHasAccess bool
	runErr := runParallel(ctx,
		func(ctx context.Context) error {
			groups, callErr := ref.Client.GetUserToGroupMappings(ctx, user, false)
			if callErr != nil {
				return callErr
			}
			direct = groups
			return nil
		},
		func(ctx context.Context) error {
			callHas, callErr := ref.Client.HasAccessToEntityUser(ctx, user, entityType, entity)
			if callErr != nil {
				return callErr
			}
			directHasAccess = callHas
			return nil
		},
	)
	if runErr != nil {
		var notFound *accesscontrol.UserNotFoundError
		if errors.As(runErr, &notFound) {
			r.Metrics.Add(tagGroupsMappedToUser, 0)
			r.Metrics.Add(tagGroupShardsQueried, 0)
			return false, nil
		}
		err = accesscontrol.NewShardOperationError("check", "access", user, "on", ref.Description, runErr)
		return false, err
	}
	if directHasAccess {
		g := accesscontrol.NewStringSet(direct)
		r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
		r.Metrics.Add(tagGroupShardsQueried, 0)
		return true, nil
	}

	g, closureErr := r.groupClosure(ctx, direct)
	if closureErr != nil {
		err = closureErr
		return false, err
	}
	has, phaseErr := r.phase3Bool(ctx, g, func(ctx context.Context, b accesscontrol.ShardBucket) (bool, error) {
		return b.Ref.Client.HasAccessToEntityGroups(ctx, b.Keys, entityType, entity)
	})
	if phaseErr != nil {
		err = phaseErr
		return false, err
	}
	return has, nil
}

// HasAccessToEntityGroup is the group-centric variant of HasAccessToEntityUser.
func (r *Resolver) HasAccessToEntityGroup(ctx context.Context, group, entityType, entity string) (has bool, err error) {
	defer metrics.Scope(r.Metrics, "HasAccessToEntityGroup")(&err)

	g, closureErr := r.groupClosure(ctx, []string{group})
	if closureErr != nil {
		err = closureErr
		return false, err
	}
	has, phaseErr := r.phase3Bool(ctx, g, func(ctx context.Context, b accesscontrol.ShardBucket) (bool, error) {
		return b.Ref.Client.HasAccessToEntityGroups(ctx, b.Keys, entityType, entity)
	})
	if phaseErr != nil {
		err = phaseErr
		return false, err
	}
	return has, nil
}

// GetApplicationComponentsAccessibleByUser returns every (component,
// accessLevel) pair user can reach, directly or through group membership.
func (r *Resolver) GetApplicationComponentsAccessibleByUser(ctx context.Context, user string) (result accesscontrol.PairSet, err error) {
	defer metrics.Scope(r.Metrics, "GetApplicationComponentsAccessibleByUser")(&err)

	_, g, ref, closureErr := r.directAndClosure(ctx, user, "retrieve", "application component mappings")
	if closureErr != nil {
		err = closureErr
		return nil, err
	}

	directPairs, directErr := ref.Client.GetUserToApplicationComponentAndAccessLevelMappings(ctx, user)
	if directErr != nil {
		err = accesscontrol.NewShardOperationError("retrieve", "application component mappings", user, "from", ref.Description, directErr)
		return nil, err
	}

	groupPairs, phaseErr := r.phase3Pairs(ctx, g, "application component mappings", func(ctx context.Context, b accesscontrol.ShardBucket) ([]accesscontrol.Pair, error) {
		return b.Ref.Client.GetApplicationComponentsAccessibleByGroups(ctx, b.Keys)
	})
	if phaseErr != nil {
		err = phaseErr
		return nil, err
	}
	out := accesscontrol.NewPairSet(directPairs)
	out.AddAll(groupPairs)
	return out, nil
}

// GetApplicationComponentsAccessibleByGroup is the group-centric variant.
func (r *Resolver) GetApplicationComponentsAccessibleByGroup(ctx context.Context, group string) (result accesscontrol.PairSet, err error) {
	defer metrics.Scope(r.Metrics, "GetApplicationComponentsAccessibleByGroup")(&err)

	g, closureErr := r.groupClosure(ctx, []string{group})
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	groupPairs, phaseErr := r.phase3Pairs(ctx, g, "application component mappings", func(ctx context.Context, b accesscontrol.ShardBucket) ([]accesscontrol.Pair, error) {
		return b.Ref.Client.GetApplicationComponentsAccessibleByGroups(ctx, b.Keys)
	})
	if phaseErr != nil {
		err = phaseErr
		return nil, err
	}
	return groupPairs, nil
}

// GetEntitiesAccessibleByUser returns every entity of entityType user can
// reach, directly or through group membership. An empty entityType means
// "every entity type" (spec §4.5: EntityTypeNotFound on a group shard is
// benign, contributing empty — the entityType itself may simply not exist
// on every shard that owns a relevant group).
func (r *Resolver) GetEntitiesAccessibleByUser(ctx context.Context, user, entityType string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetEntitiesAccessibleByUser")(&err)

	ref, directErr := r.Directory.GetClient(ctx, accesscontrol.User, accesscontrol.Query, user)
	if directErr != nil {
		err = directErr
		return nil, err
	}
	groups, mapErr := ref.Client.GetUserToGroupMappings(ctx, user, false)
	if mapErr != nil {
		var notFound *accesscontrol.UserNotFoundError
		if errors.As(mapErr, &notFound) {
			err = mapErr
			return nil, err
		}
		err = accesscontrol.NewShardOperationError("retrieve", "entities", user, "from", ref.Description, mapErr)
		return nil, err
	}

	directEntities, entErr := ref.Client.GetUserToEntityMappings(ctx, user)
	if entErr != nil {
		err = accesscontrol.NewShardOperationError("retrieve", "entities", user, "from", ref.Description, entErr)
		return nil, err
	}

	g, closureErr := r.groupClosure(ctx, groups)
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	groupEntities, phaseErr := r.phase3Strings(ctx, g, "entities", func(ctx context.Context, b accesscontrol.ShardBucket) ([]string, error) {
		return b.Ref.Client.GetEntitiesAccessibleByGroups(ctx, b.Keys, entityType)
	})
	if phaseErr != nil {
		err = phaseErr
		return nil, err
	}

	out := accesscontrol.NewStringSet()
	for _, p := range directEntities {
		if entityType == "" || p.First == entityType {
			out.Add(p.Second)
		}
	}
	out.AddAll(groupEntities)
	return out, nil
}

// GetEntitiesAccessibleByGroup is the group-centric variant. It is the
// regression property P6 carrier: when group has no further group
// memberships, groupClosure({group}) still yields {group} itself (closure
// includes seeds), so Phase 3 still runs and direct entity mappings are not
// lost.
func (r *Resolver) GetEntitiesAccessibleByGroup(ctx context.Context, group, entityType string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetEntitiesAccessibleByGroup")(&err)

	g, closureErr := r.groupClosure(ctx, []string{group})
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	groupEntities, phaseErr := r.phase3Strings(ctx, g, "entities", func(ctx context.Context, b accesscontrol.ShardBucket) ([]string, error) {
		return b.Ref.Client.GetEntitiesAccessibleByGroups(ctx, b.Keys, entityType)
	})
	if phaseErr != nil {
		err = phaseErr
		return nil, err
	}
	return groupEntities, nil
}

// GetUserToGroupMappingsIndirect is the transitive form of
// GetUserToGroupMappings: Phase 1 then Phase 2, with no Phase 3 (spec §8
// scenario 5).
func (r *Resolver) GetUserToGroupMappingsIndirect(ctx context.Context, user string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetUserToGroupMappingsIndirect")(&err)

	direct, _, directErr := r.directGroups(ctx, user, "retrieve", "group mappings")
	if directErr != nil {
		err = directErr
		return nil, err
	}
	g, closureErr := r.groupClosure(ctx, direct)
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
	return g, nil
}

// GetGroupToGroupMappingsIndirect is the transitive form of
// GetGroupToGroupMappings: Phase 2 alone, seeded by {group}.
func (r *Resolver) GetGroupToGroupMappingsIndirect(ctx context.Context, group string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetGroupToGroupMappingsIndirect")(&err)

	g, closureErr := r.groupClosure(ctx, []string{group})
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	r.Metrics.Add(tagGroupsMappedToUser, int64(g.Len()))
	return g, nil
}

// GetGroupToUserMappingsIndirect answers the reverse query: every user
// mapped, directly or transitively through group membership, to group
// (spec §4.4 "Reverse-direction queries").
func (r *Resolver) GetGroupToUserMappingsIndirect(ctx context.Context, group string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetGroupToUserMappingsIndirect")(&err)

	closure, closureErr := r.reverseGroupClosure(ctx, []string{group})
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	r.Metrics.Add(tagGroupsMappedToUser, int64(closure.Len()))

	shards, shardsErr := r.Directory.GetAllClients(ctx, accesscontrol.User, accesscontrol.Query)
	if shardsErr != nil {
		err = shardsErr
		return nil, err
	}
	r.Metrics.Add(tagGroupShardsQueried, int64(len(shards)))

	return fanout.Execute(ctx, shards, fanout.FatalOnly, fanout.WrapShardError("retrieve", "users", "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			users, callErr := ref.Client.GetGroupToUserMappings(ctx, closure.Slice(), false)
			if callErr != nil {
				return nil, callErr
			}
			return accesscontrol.NewStringSet(users), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// GetEntityToUserMappingsIndirect answers every user, directly or through
// group membership, mapped to (entityType, entity). Per §4.5, an
// EntityTypeNotFound/EntityNotFound reported by a user shard is benign.
func (r *Resolver) GetEntityToUserMappingsIndirect(ctx context.Context, entityType, entity string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetEntityToUserMappingsIndirect")(&err)

	groupShards, groupErr := r.Directory.GetAllClients(ctx, accesscontrol.Group, accesscontrol.Query)
	if groupErr != nil {
		err = groupErr
		return nil, err
	}
	directGroups, directGroupErr := fanout.Execute(ctx, groupShards, classifyGroupNotFoundBenign,
		fanout.WrapShardError("retrieve", "group mappings", "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			groups, callErr := ref.Client.GetEntityToGroupMappings(ctx, entityType, entity, false)
			if callErr != nil {
				return nil, callErr
			}
			return accesscontrol.NewStringSet(groups), nil
		},
		fanout.UnionStringsCombiner(),
	)
	if directGroupErr != nil {
		err = directGroupErr
		return nil, err
	}

	closure, closureErr := r.reverseGroupClosure(ctx, directGroups.Slice())
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	r.Metrics.Add(tagGroupsMappedToUser, int64(closure.Len()))

	userShards, userShardsErr := r.Directory.GetAllClients(ctx, accesscontrol.User, accesscontrol.Query)
	if userShardsErr != nil {
		err = userShardsErr
		return nil, err
	}
	r.Metrics.Add(tagGroupShardsQueried, int64(len(userShards)))

	benignOnUserShard := func(err error) fanout.Classification {
		var etNotFound *accesscontrol.EntityTypeNotFoundError
		var eNotFound *accesscontrol.EntityNotFoundError
		if errors.As(err, &etNotFound) || errors.As(err, &eNotFound) {
			return fanout.Benign
		}
		return fanout.Fatal
	}

	return fanout.Execute(ctx, userShards, benignOnUserShard, fanout.WrapShardError("retrieve", "users", "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			directUsers, callErr := ref.Client.GetEntityToUserMappings(ctx, entityType, entity, false)
			if callErr != nil {
				return nil, callErr
			}
			groupUsers, callErr := ref.Client.GetGroupToUserMappings(ctx, closure.Slice(), false)
			if callErr != nil {
				return nil, callErr
			}
			return accesscontrol.NewStringSet(directUsers, groupUsers), nil
		},
		fanout.UnionStringsCombiner(),
	)
}

// GetApplicationComponentAndAccessLevelToUserMappingsIndirect answers every
// user holding accessLevel on component through membership, direct or
// transitive, of a group mapped to it. Users mapped to the component
// directly, with no group in between, are not included.
func (r *Resolver) GetApplicationComponentAndAccessLevelToUserMappingsIndirect(ctx context.Context, component, accessLevel string) (result accesscontrol.StringSet, err error) {
	defer metrics.Scope(r.Metrics, "GetApplicationComponentAndAccessLevelToUserMappingsIndirect")(&err)

	directGroups, directGroupErr := r.Directory.GetAllClients(ctx, accesscontrol.Group, accesscontrol.Query)
	if directGroupErr != nil {
		err = directGroupErr
		return nil, err
	}
	groups, groupsErr := fanout.Execute(ctx, directGroups, fanout.FatalOnly,
		fanout.WrapShardError("retrieve", "group mappings", "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			groups, callErr := ref.Client.GetApplicationComponentAndAccessLevelToGroupMappings(ctx, component, accessLevel, false)
			if callErr != nil {
				return nil, callErr
			}
			return accesscontrol.NewStringSet(groups), nil
		},
		fanout.UnionStringsCombiner(),
	)
	if groupsErr != nil {
		err = groupsErr
		return nil, err
	}

	closure, closureErr := r.reverseGroupClosure(ctx, groups.Slice())
	if closureErr != nil {
		err = closureErr
		return nil, err
	}
	r.Metrics.Add(tagGroupsMappedToUser, int64(closure.Len()))

	userShards, userShardsErr := r.Directory.GetAllClients(ctx, accesscontrol.User, accesscontrol.Query)
	if userShardsErr != nil {
		err = userShardsErr
		return nil, err
	}
	r.Metrics.Add(tagGroupShardsQueried, int64(len(userShards)))

	return fanout.Execute(ctx, userShards, fanout.FatalOnly, fanout.WrapShardError("retrieve", "users", "", "from"),
		func(ctx context.Context, ref accesscontrol.ShardRef) (accesscontrol.StringSet, error) {
			groupUsers, callErr := ref.Client.GetGroupToUserMappings(ctx, closure.Slice(), false)
			if callErr != nil {
				return nil, callErr
			}
			return accesscontrol.NewStringSet(groupUsers), nil
		},
		fanout.UnionStringsCombiner(),
	)
}
