// Package resolver implements the Authorization Resolver: the three-phase
// transitive-closure traversal (spec §4.4) that answers every query whose
// answer is not on a single shard — HasAccessToApplicationComponent,
// HasAccessToEntity, GetApplicationComponentsAccessibleByUser/Group,
// GetEntitiesAccessibleByUser/Group, and the indirect forms of the mapping
// readers.
//
// Phase 1 resolves a user down to its directly-mapped groups D (or, for a
// group-centric query, starts from the identity set {group}). Phase 2
// expands D through the group-to-group graph to its transitive closure G.
// Phase 3 evaluates the actual query against every shard owning a member of
// G and combines the partials. Every phase is itself a fanout.Execute or
// fanout.ExecuteBuckets call — the Resolver's job is sequencing those calls
// correctly and translating shard errors per the §4.5 policy table, not
// reimplementing concurrency.
//
// None of this has a direct analogue in the teacher repo, which has no
// notion of transitive membership; it is grounded on the fan-out primitives
// of internal/fanout, generalized from single-round broadcast to the
// multi-round traversal the access-management domain requires.
package resolver
