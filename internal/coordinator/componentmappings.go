package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// AddUserToApplicationComponentAndAccessLevelMapping maps user to
// accessLevel on component (Point-routed write, owned by user's shard).
func (c *Coordinator) AddUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) (err error) {
	defer metrics.Scope(c.metrics, "AddUserToApplicationComponentAndAccessLevelMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "add", "application component mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddUserToApplicationComponentAndAccessLevelMapping(ctx, user, component, accessLevel)
	})
}

// GetUserToApplicationComponentAndAccessLevelMappings returns user's direct
// (component, accessLevel) pairs (Point-routed read).
func (c *Coordinator) GetUserToApplicationComponentAndAccessLevelMappings(ctx context.Context, user string) (_ accesscontrol.PairSet, err error) {
	defer metrics.Scope(c.metrics, "GetUserToApplicationComponentAndAccessLevelMappings")(&err)
	return c.pointReadPairs(ctx, accesscontrol.User, user, func(ctx context.Context, ref accesscontrol.ShardRef) ([]accesscontrol.Pair, error) {
		return ref.Client.GetUserToApplicationComponentAndAccessLevelMappings(ctx, user)
	})
}

// RemoveUserToApplicationComponentAndAccessLevelMapping removes the
// mapping.
func (c *Coordinator) RemoveUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveUserToApplicationComponentAndAccessLevelMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "remove", "application component mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveUserToApplicationComponentAndAccessLevelMapping(ctx, user, component, accessLevel)
	})
}

// AddGroupToApplicationComponentAndAccessLevelMapping maps group to
// accessLevel on component (Point-routed write, owned by group's shard).
func (c *Coordinator) AddGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) (err error) {
	defer metrics.Scope(c.metrics, "AddGroupToApplicationComponentAndAccessLevelMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.Group, group, "add", "application component mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddGroupToApplicationComponentAndAccessLevelMapping(ctx, group, component, accessLevel)
	})
}

// GetGroupToApplicationComponentAndAccessLevelMappings returns group's
// direct (component, accessLevel) pairs (Point-routed read).
func (c *Coordinator) GetGroupToApplicationComponentAndAccessLevelMappings(ctx context.Context, group string) (_ accesscontrol.PairSet, err error) {
	defer metrics.Scope(c.metrics, "GetGroupToApplicationComponentAndAccessLevelMappings")(&err)
	return c.pointReadPairs(ctx, accesscontrol.Group, group, func(ctx context.Context, ref accesscontrol.ShardRef) ([]accesscontrol.Pair, error) {
		return ref.Client.GetGroupToApplicationComponentAndAccessLevelMappings(ctx, group)
	})
}

// GetApplicationComponentAndAccessLevelToGroupMappings returns every group
// holding accessLevel on component. Ownership of this reverse edge is not
// determined by a single routing key, so this broadcasts over every Group
// shard regardless of indirect; the shard computes its own closure when
// indirect is set (unlike the user-facing form, there is no Resolver phase
// here — spec §4.4 only documents the user-reverse Resolver path).
func (c *Coordinator) GetApplicationComponentAndAccessLevelToGroupMappings(ctx context.Context, component, accessLevel string, indirect bool) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetApplicationComponentAndAccessLevelToGroupMappings")(&err)
	return c.broadcastReadStrings(ctx, accesscontrol.Group, "retrieve", "group mappings", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetApplicationComponentAndAccessLevelToGroupMappings(ctx, component, accessLevel, indirect)
	})
}

// GetApplicationComponentAndAccessLevelToUserMappings returns every user
// holding accessLevel on component through group membership. The
// ShardClient contract exposes no reverse-direct primitive for this
// mapping (only the forward GetUserToApplicationComponentAndAccessLevelMappings),
// so this is Resolver-driven unconditionally rather than having a separate
// direct/indirect split, and users mapped to the component directly, with
// no group in between, are not included.
func (c *Coordinator) GetApplicationComponentAndAccessLevelToUserMappings(ctx context.Context, component, accessLevel string) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetApplicationComponentAndAccessLevelToUserMappings")(&err)
	return c.resolver.GetApplicationComponentAndAccessLevelToUserMappingsIndirect(ctx, component, accessLevel)
}

// RemoveGroupToApplicationComponentAndAccessLevelMapping removes the
// mapping.
func (c *Coordinator) RemoveGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveGroupToApplicationComponentAndAccessLevelMapping")(&err)
	return c.pointWrite(ctx, accesscontrol.Group, group, "remove", "application component mapping", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveGroupToApplicationComponentAndAccessLevelMapping(ctx, group, component, accessLevel)
	})
}

// GetApplicationComponentsAccessibleByUser returns every (component,
// accessLevel) pair user can reach, directly or transitively
// (Resolver-driven read).
func (c *Coordinator) GetApplicationComponentsAccessibleByUser(ctx context.Context, user string) (accesscontrol.PairSet, error) {
	return c.resolver.GetApplicationComponentsAccessibleByUser(ctx, user)
}

// GetApplicationComponentsAccessibleByGroup is the group-centric variant
// (Resolver-driven read).
func (c *Coordinator) GetApplicationComponentsAccessibleByGroup(ctx context.Context, group string) (accesscontrol.PairSet, error) {
	return c.resolver.GetApplicationComponentsAccessibleByGroup(ctx, group)
}
