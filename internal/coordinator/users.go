package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// GetUsers returns every user known to the system (Broadcast read, spec
// §4.6).
func (c *Coordinator) GetUsers(ctx context.Context) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetUsers")(&err)
	return c.broadcastReadStrings(ctx, accesscontrol.User, "retrieve", "users", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetUsers(ctx)
	})
}

// AddUser adds user (Point-routed write, spec §4.6).
func (c *Coordinator) AddUser(ctx context.Context, user string) (err error) {
	defer metrics.Scope(c.metrics, "AddUser")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "add", "user", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddUser(ctx, user)
	})
}

// ContainsUser reports whether user exists (Point-routed read).
func (c *Coordinator) ContainsUser(ctx context.Context, user string) (_ bool, err error) {
	defer metrics.Scope(c.metrics, "ContainsUser")(&err)
	return c.pointReadBool(ctx, accesscontrol.User, user, func(ctx context.Context, ref accesscontrol.ShardRef) (bool, error) {
		return ref.Client.ContainsUser(ctx, user)
	})
}

// RemoveUser removes user (Point-routed write).
func (c *Coordinator) RemoveUser(ctx context.Context, user string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveUser")(&err)
	return c.pointWrite(ctx, accesscontrol.User, user, "remove", "user", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveUser(ctx, user)
	})
}
