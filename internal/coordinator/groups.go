package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// GetGroups returns every group known to the system (Broadcast read).
func (c *Coordinator) GetGroups(ctx context.Context) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetGroups")(&err)
	return c.broadcastReadStrings(ctx, accesscontrol.Group, "retrieve", "groups", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetGroups(ctx)
	})
}

// AddGroup adds group. Broadcast write (spec §4.6's own example): the
// owning Group shard plus every GroupToGroupMapping and User shard, per
// the writeTargets table in coordinator.go.
func (c *Coordinator) AddGroup(ctx context.Context, group string) (err error) {
	defer metrics.Scope(c.metrics, "AddGroup")(&err)
	return c.broadcastWrite(ctx, accesscontrol.Group, group, writeTargets["Group"], "add", "group", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddGroup(ctx, group)
	})
}

// ContainsGroup reports whether group exists (Point-routed read).
func (c *Coordinator) ContainsGroup(ctx context.Context, group string) (_ bool, err error) {
	defer metrics.Scope(c.metrics, "ContainsGroup")(&err)
	return c.pointReadBool(ctx, accesscontrol.Group, group, func(ctx context.Context, ref accesscontrol.ShardRef) (bool, error) {
		return ref.Client.ContainsGroup(ctx, group)
	})
}

// RemoveGroup removes group, mirroring AddGroup's broadcast target set so
// group references on GroupToGroupMapping and User shards don't outlive
// the group itself.
func (c *Coordinator) RemoveGroup(ctx context.Context, group string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveGroup")(&err)
	return c.broadcastWrite(ctx, accesscontrol.Group, group, writeTargets["Group"], "remove", "group", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveGroup(ctx, group)
	})
}
