package coordinator

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// GetEntityTypes returns every entity type known to the system. Entity
// types have no owning shard of their own (there is no EntityType
// DataElement, spec §3) — they are vocabulary replicated across every
// User and Group shard, so the read broadcasts over both and unions.
func (c *Coordinator) GetEntityTypes(ctx context.Context) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetEntityTypes")(&err)
	return c.broadcastReadStringsMulti(ctx, writeTargets["EntityType"], "retrieve", "entity types", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetEntityTypes(ctx)
	})
}

// AddEntityType adds entityType to the vocabulary shared by every User and
// Group shard (Broadcast write, no single owning shard).
func (c *Coordinator) AddEntityType(ctx context.Context, entityType string) (err error) {
	defer metrics.Scope(c.metrics, "AddEntityType")(&err)
	return c.vocabularyWrite(ctx, writeTargets["EntityType"], entityType, "add", "entity type", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddEntityType(ctx, entityType)
	})
}

// ContainsEntityType reports whether entityType exists on any User or
// Group shard.
func (c *Coordinator) ContainsEntityType(ctx context.Context, entityType string) (_ bool, err error) {
	defer metrics.Scope(c.metrics, "ContainsEntityType")(&err)
	return c.broadcastReadBoolMulti(ctx, writeTargets["EntityType"], "check", "entity type", func(ctx context.Context, ref accesscontrol.ShardRef) (bool, error) {
		return ref.Client.ContainsEntityType(ctx, entityType)
	})
}

// RemoveEntityType removes entityType from every User and Group shard.
func (c *Coordinator) RemoveEntityType(ctx context.Context, entityType string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveEntityType")(&err)
	return c.vocabularyWrite(ctx, writeTargets["EntityType"], entityType, "remove", "entity type", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveEntityType(ctx, entityType)
	})
}

// GetEntities returns every entity of entityType, broadcasting over every
// User and Group shard.
func (c *Coordinator) GetEntities(ctx context.Context, entityType string) (_ accesscontrol.StringSet, err error) {
	defer metrics.Scope(c.metrics, "GetEntities")(&err)
	return c.broadcastReadStringsMulti(ctx, writeTargets["Entity"], "retrieve", "entities", func(ctx context.Context, ref accesscontrol.ShardRef) ([]string, error) {
		return ref.Client.GetEntities(ctx, entityType)
	})
}

// AddEntity adds entity of entityType to every User and Group shard.
func (c *Coordinator) AddEntity(ctx context.Context, entityType, entity string) (err error) {
	defer metrics.Scope(c.metrics, "AddEntity")(&err)
	return c.vocabularyWrite(ctx, writeTargets["Entity"], entity, "add", "entity", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.AddEntity(ctx, entityType, entity)
	})
}

// ContainsEntity reports whether entity of entityType exists on any User
// or Group shard.
func (c *Coordinator) ContainsEntity(ctx context.Context, entityType, entity string) (_ bool, err error) {
	defer metrics.Scope(c.metrics, "ContainsEntity")(&err)
	return c.broadcastReadBoolMulti(ctx, writeTargets["Entity"], "check", "entity", func(ctx context.Context, ref accesscontrol.ShardRef) (bool, error) {
		return ref.Client.ContainsEntity(ctx, entityType, entity)
	})
}

// RemoveEntity removes entity of entityType from every User and Group
// shard.
func (c *Coordinator) RemoveEntity(ctx context.Context, entityType, entity string) (err error) {
	defer metrics.Scope(c.metrics, "RemoveEntity")(&err)
	return c.vocabularyWrite(ctx, writeTargets["Entity"], entity, "remove", "entity", func(ctx context.Context, ref accesscontrol.ShardRef) error {
		return ref.Client.RemoveEntity(ctx, entityType, entity)
	})
}
