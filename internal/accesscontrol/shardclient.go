package accesscontrol

import "context"

// ShardClient is the asynchronous RPC surface every backend shard exposes,
// regardless of which DataElement it owns. It is never constructed by the
// coordinator directly — only obtained from a ShardDirectory (spec §3, §6).
//
// The interface is intentionally wide: a shard dedicated to one DataElement
// only ever receives calls relevant to that element (the directory only
// hands out ShardRefs for the (element, operation) pair being resolved), so
// concrete implementations are free to panic or return a Fatal error on the
// methods that don't apply to them, the way a User shard's
// HasAccessToApplicationComponent(groups, ...) implementation never actually
// gets called by a correctly wired Coordinator.
//
// Every method takes a context.Context as its first parameter: it is the
// sole suspension point in the system (spec §5), and first-fatal-failure /
// boolean-short-circuit cancellation flows through it.
type ShardClient interface {
	// User/Group/EntityType/Entity primitive CRUD.

	GetUsers(ctx context.Context) ([]string, error)
	AddUser(ctx context.Context, user string) error
	ContainsUser(ctx context.Context, user string) (bool, error)
	RemoveUser(ctx context.Context, user string) error

	GetGroups(ctx context.Context) ([]string, error)
	AddGroup(ctx context.Context, group string) error
	ContainsGroup(ctx context.Context, group string) (bool, error)
	RemoveGroup(ctx context.Context, group string) error

	GetEntityTypes(ctx context.Context) ([]string, error)
	AddEntityType(ctx context.Context, entityType string) error
	ContainsEntityType(ctx context.Context, entityType string) (bool, error)
	RemoveEntityType(ctx context.Context, entityType string) error

	GetEntities(ctx context.Context, entityType string) ([]string, error)
	AddEntity(ctx context.Context, entityType, entity string) error
	ContainsEntity(ctx context.Context, entityType, entity string) (bool, error)
	RemoveEntity(ctx context.Context, entityType, entity string) error

	// User <-> Group mappings.

	AddUserToGroupMapping(ctx context.Context, user, group string) error
	GetUserToGroupMappings(ctx context.Context, user string, indirect bool) ([]string, error)
	GetGroupToUserMappings(ctx context.Context, groups []string, indirect bool) ([]string, error)
	RemoveUserToGroupMapping(ctx context.Context, user, group string) error

	// Group <-> Group mappings.

	AddGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) error
	GetGroupToGroupMappings(ctx context.Context, groups []string, indirect bool) ([]string, error)
	GetGroupToGroupReverseMappings(ctx context.Context, groups []string, indirect bool) ([]string, error)
	RemoveGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) error

	// User/Group <-> ApplicationComponent+AccessLevel mappings.

	AddUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) error
	GetUserToApplicationComponentAndAccessLevelMappings(ctx context.Context, user string) ([]Pair, error)
	RemoveUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) error

	AddGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) error
	GetGroupToApplicationComponentAndAccessLevelMappings(ctx context.Context, group string) ([]Pair, error)
	GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]Pair, error)
	GetApplicationComponentAndAccessLevelToGroupMappings(ctx context.Context, component, accessLevel string, indirect bool) ([]string, error)
	RemoveGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) error

	// User/Group <-> Entity mappings.

	AddUserToEntityMapping(ctx context.Context, user, entityType, entity string) error
	GetUserToEntityMappings(ctx context.Context, user string) ([]Pair, error)
	RemoveUserToEntityMapping(ctx context.Context, user, entityType, entity string) error

	AddGroupToEntityMapping(ctx context.Context, group, entityType, entity string) error
	GetGroupToEntityMappings(ctx context.Context, group string) ([]Pair, error)
	GetEntitiesAccessibleByGroups(ctx context.Context, groups []string, entityType string) ([]string, error)
	GetEntityToGroupMappings(ctx context.Context, entityType, entity string, indirect bool) ([]string, error)
	GetEntityToUserMappings(ctx context.Context, entityType, entity string, indirect bool) ([]string, error)
	RemoveGroupToEntityMapping(ctx context.Context, group, entityType, entity string) error

	// Authorization checks.

	HasAccessToApplicationComponentUser(ctx context.Context, user, component, accessLevel string) (bool, error)
	HasAccessToApplicationComponentGroups(ctx context.Context, groups []string, component, accessLevel string) (bool, error)
	HasAccessToEntityUser(ctx context.Context, user, entityType, entity string) (bool, error)
	HasAccessToEntityGroups(ctx context.Context, groups []string, entityType, entity string) (bool, error)
}

// Pair is the unordered pair result shape used for component+accessLevel and
// entityType+entity mapping queries (spec §3).
type Pair struct {
	First  string
	Second string
}
