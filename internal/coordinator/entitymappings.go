package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// AddUserToEntityMapping maps user to (entityType, entity) (Point-routed
// write, owned by user's shard).
func (c *Coordinator) AddUserToEntityMapping(ctx context.Context, user, entityType, entity string) (err error) {
	defer metrics.Scope(c.metrics, "AddUserToEntityMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "add", "entity mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddUserToEntityMapping(ctx, user, entityType, entity)
	})
}

// GetUserToEntityMappings returns user's direct (entityType, entity) pairs
// (Point-routed read).
func (c *Coordinator) GetUserToEntityMappings(ctx context.Context, user string) (_ accesscontrol.PairSet, err error) {
	defer metrics.Scope(c.metrics, "GetUserToEntityMappings")(&err)
	return c.pointReadPairs(ctx, accesscontrol.User, user, func(ctx context.Context, ref accesscontrol.ShardRef) ([]accesscontrol.Pair, error) {
		return ref.Client.GetUserToEntityMappings(ctx, user)
	})
}

// RemoveUserToEntityMapping removes the mapping.
func (c *Coordinator) RemoveUserToEntityMapping(ctx context.Context, user, entityType, entity string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveUserToEntityMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "remove", "entity mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveUserToEntityMapping(ctx, user, entityType, entity)
	})
}

// AddGroupToEntityMapping maps group to (entityType, entity) (Point-routed
// write, owned by group's shard).
func (c *Coordinator) AddGroupToEntityMapping(ctx context.Context, group, entityType, entity string) (err error) {
	defer metrics.Scope(c.metrics, "AddGroupToEntityMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.Group, group, "add", "entity mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddGroupToEntityMapping(ctx, group, entityType, entity)
	})
}

// GetGroupToEntityMappings returns group's direct (entityType, entity)
// pairs (Point-routed read).
func (c *Coordinator) GetGroupToEntityMappings(ctx context.Context, group string) (_ accesscontrol.PairSet, err error) {
	defer metrics.Scope(c.metrics, "GetGroupToEntityMappings")(&err)
	return c.pointReadPairs(ctx, accesscontrol.Group, group, func(ctx context.Context, ref accesscontrol.ShardRef) ([]accesscontrol.Pair, error) {
		return ref.Client.GetGroupToEntityMappings(ctx, group)
	})
}

// GetEntityToGroupMappings returns every group mapped to (entityType,
// entity). This relation is broadcast over every Group shard, the shards
// AddGroupToEntityMapping writes to, matching the Resolver's own
// GetEntityToUserMappingsIndirect for this query.
func (c *Coordinator) GetEntityToGroupMappings(ctx context.Context, entityType, entity string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetEntityToGroupMappings")(&err)
	return c.broadcastReadStrings(ctx, accesscontrol.Group, "retrieve", "group mappings", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetEntityToGroupMappings(ctx, entityType, entity, indirect)
	})
}

// GetEntityToUserMappings returns every user mapped to (entityType,
// entity), directly or through group membership. The direct form
// broadcasts over User shards; the indirect form is Resolver-driven (spec
// §4.4 "Reverse-direction queries").
func (c *Coordinator) GetEntityToUserMappings(ctx context.Context, entityType, entity string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetEntityToUserMappings")(&err)
	if indirect {
		return c.resolver.GetEntityToUserMappingsIndirect(ctx, entityType, entity)
	}
	return c.broadcastReadStrings(ctx, accesscontrol.User, "retrieve", "users", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetEntityToUserMappings(ctx, entityType, entity, false)
	})
}

// RemoveGroupToEntityMapping removes the mapping.
func (c *Coordinator) RemoveGroupToEntityMapping(ctx context.Context, group, entityType, entity string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveGroupToEntityMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.Group, group, "remove", "entity mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveGroupToEntityMapping(ctx, group, entityType, entity)
	})
}

// GetEntitiesAccessibleByUser returns every entity of entityType user can
// reach, directly or transitively (Resolver-driven read). An empty
// entityType means every entity type.
func (c *Coordinator) GetEntitiesAccessibleByUser(ctx context.Context, user, entityType string) (accesscontrol.StringSet, error) {
	return c.resolver.GetEntitiesAccessibleByUser(ctx, user, entityType)
}

// GetEntitiesAccessibleByGroup is the group-centric variant
// (Resolver-driven read).
func (c *Coordinator) GetEntitiesAccessibleByGroup(ctx context.Context, group, entityType string) (accesscontrol.StringSet, error) {
	return c.resolver.GetEntitiesAccessibleByGroup(ctx, group, entityType)
}
