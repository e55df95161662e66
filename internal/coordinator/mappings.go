package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// AddUserToGroupMapping maps user to group (Point-routed write, owned by
// user's shard).
func (c *Coordinator) AddUserToGroupMapping(ctx context.Context, user, group string) (err error) {
	defer metrics.Scope(c.metrics, "AddUserToGroupMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "add", "user to group mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddUserToGroupMapping(ctx, user, group)
	})
}

// GetUserToGroupMappings returns the groups user belongs to. The direct
// form is a Point-routed read; the indirect form is Resolver-driven (spec
// §4.4 Phase 1+2, §8 scenario 5).
func (c *Coordinator) GetUserToGroupMappings(ctx context.Context, user string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetUserToGroupMappings")(&err)
	if indirect {
		return c.resolver.GetUserToGroupMappingsIndirect(ctx, user)
	}
	return c.pointReadStrings(ctx, accesscontrol.User, user, func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetUserToGroupMappings(ctx, user, false)
	})
}

// GetGroupToUserMappings returns every user mapped to group. Ownership of
// a reverse user edge is not determined by group's own routing key, so
// both forms broadcast over every User shard; the indirect form additionally
// expands group through the group-to-group closure first (spec §4.4
// "Reverse-direction queries").
func (c *Coordinator) GetGroupToUserMappings(ctx context.Context, group string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetGroupToUserMappings")(&err)
	if indirect {
		return c.resolver.GetGroupToUserMappingsIndirect(ctx, group)
	}
	return c.broadcastReadStrings(ctx, accesscontrol.User, "retrieve", "user mappings", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetGroupToUserMappings(ctx, []string{group}, false)
	})
}

// RemoveUserToGroupMapping removes the user-group mapping.
func (c *Coordinator) RemoveUserToGroupMapping(ctx context.Context, user, group string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveUserToGroupMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "remove", "user to group mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveUserToGroupMapping(ctx, user, group)
	})
}

// AddGroupToGroupMapping maps fromGroup to toGroup (Point-routed write,
// owned by fromGroup's shard).
func (c *Coordinator) AddGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) (err error) {
	defer metrics.Scope(c.metrics, "AddGroupToGroupMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.GroupToGroupMapping, fromGroup, "add", "group to group mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddGroupToGroupMapping(ctx, fromGroup, toGroup)
	})
}

// GetGroupToGroupMappings returns the groups group maps to. Direct is
// Point-routed; indirect is Resolver-driven (Phase 2 alone, seeded by
// {group}).
func (c *Coordinator) GetGroupToGroupMappings(ctx context.Context, group string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetGroupToGroupMappings")(&err)
	if indirect {
		return c.resolver.GetGroupToGroupMappingsIndirect(ctx, group)
	}
	return c.pointReadStrings(ctx, accesscontrol.GroupToGroupMapping, group, func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetGroupToGroupMappings(ctx, []string{group}, false)
	})
}

// GetGroupToGroupReverseMappings returns the groups mapped to group. A
// reverse edge's owner is not determined by group's own routing key, so
// both the direct and indirect forms broadcast over every
// GroupToGroupMapping shard; indirect expansion is computed shard-side
// (the shard's own closureLocked), not by the Resolver.
func (c *Coordinator) GetGroupToGroupReverseMappings(ctx context.Context, group string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetGroupToGroupReverseMappings")(&err)
	return c.broadcastReadStrings(ctx, accesscontrol.GroupToGroupMapping, "retrieve", "group mappings", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetGroupToGroupReverseMappings(ctx, []string{group}, indirect)
	})
}

// RemoveGroupToGroupMapping removes the fromGroup-toGroup mapping.
func (c *Coordinator) RemoveGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveGroupToGroupMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.GroupToGroupMapping, fromGroup, "remove", "group to group mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveGroupToGroupMapping(ctx, fromGroup, toGroup)
	})
}
