package shardclient

import (
	"context"
	"sort"
	"sync"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// InMemoryShardClient is a single-process accesscontrol.ShardClient backed
// by plain Go maps, generalized from the teacher's
// internal/shard.Shard + internal/storage.MemoryStore pair — the same
// "mutex-guarded map, thread-safe, returns copies" shape, extended from one
// KV namespace to the full access-management relation set.
//
// One InMemoryShardClient represents one shard's worth of data; a test
// wiring multiple shards constructs one instance per shard and assigns
// disjoint key ranges to each, the way torua's cmd/node hosts one
// shard.Shard per assigned shard ID.
type InMemoryShardClient struct {
	mu sync.RWMutex

	users  map[string]struct{}
	groups map[string]struct{}

	entityTypes map[string]map[string]struct{} // entityType -> set of entities

	userToGroup  map[string]map[string]struct{} // user -> direct groups
	groupToGroup map[string]map[string]struct{} // group -> direct "to" groups (forward edges)

	userToComponent  map[string]map[accesscontrol.Pair]struct{}
	groupToComponent map[string]map[accesscontrol.Pair]struct{}

	userToEntity  map[string]map[accesscontrol.Pair]struct{}
	groupToEntity map[string]map[accesscontrol.Pair]struct{}
}

// NewInMemoryShardClient creates an empty shard.
func NewInMemoryShardClient() *InMemoryShardClient {
	return &InMemoryShardClient{
		users:            make(map[string]struct{}),
		groups:           make(map[string]struct{}),
		entityTypes:      make(map[string]map[string]struct{}),
		userToGroup:      make(map[string]map[string]struct{}),
		groupToGroup:     make(map[string]map[string]struct{}),
		userToComponent:  make(map[string]map[accesscontrol.Pair]struct{}),
		groupToComponent: make(map[string]map[accesscontrol.Pair]struct{}),
		userToEntity:     make(map[string]map[accesscontrol.Pair]struct{}),
		groupToEntity:    make(map[string]map[accesscontrol.Pair]struct{}),
	}
}

// --- User/Group/EntityType/Entity primitive CRUD ---

func (c *InMemoryShardClient) GetUsers(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return keysOf(c.users), nil
}

func (c *InMemoryShardClient) AddUser(ctx context.Context, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) ContainsUser(ctx context.Context, user string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.users[user]
	return ok, nil
}

func (c *InMemoryShardClient) RemoveUser(ctx context.Context, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, user)
	delete(c.userToGroup, user)
	return nil
}

func (c *InMemoryShardClient) GetGroups(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return keysOf(c.groups), nil
}

func (c *InMemoryShardClient) AddGroup(ctx context.Context, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[group] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) ContainsGroup(ctx context.Context, group string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.groups[group]
	return ok, nil
}

func (c *InMemoryShardClient) RemoveGroup(ctx context.Context, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.groups, group)
	delete(c.groupToGroup, group)
	return nil
}

func (c *InMemoryShardClient) GetEntityTypes(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entityTypes))
	for et := range c.entityTypes {
		out = append(out, et)
	}
	return out, nil
}

func (c *InMemoryShardClient) AddEntityType(ctx context.Context, entityType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entityTypes[entityType] == nil {
		c.entityTypes[entityType] = make(map[string]struct{})
	}
	return nil
}

func (c *InMemoryShardClient) ContainsEntityType(ctx context.Context, entityType string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entityTypes[entityType]
	return ok, nil
}

func (c *InMemoryShardClient) RemoveEntityType(ctx context.Context, entityType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entityTypes, entityType)
	return nil
}

func (c *InMemoryShardClient) GetEntities(ctx context.Context, entityType string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entities, ok := c.entityTypes[entityType]
	if !ok {
		return nil, &accesscontrol.EntityTypeNotFoundError{EntityType: entityType}
	}
	return keysOf(entities), nil
}

func (c *InMemoryShardClient) AddEntity(ctx context.Context, entityType, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entityTypes[entityType] == nil {
		c.entityTypes[entityType] = make(map[string]struct{})
	}
	c.entityTypes[entityType][entity] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) ContainsEntity(ctx context.Context, entityType, entity string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entities, ok := c.entityTypes[entityType]
	if !ok {
		return false, nil
	}
	_, ok = entities[entity]
	return ok, nil
}

func (c *InMemoryShardClient) RemoveEntity(ctx context.Context, entityType, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entities, ok := c.entityTypes[entityType]; ok {
		delete(entities, entity)
	}
	return nil
}

// --- User <-> Group mappings ---

func (c *InMemoryShardClient) AddUserToGroupMapping(ctx context.Context, user, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userToGroup[user] == nil {
		c.userToGroup[user] = make(map[string]struct{})
	}
	c.userToGroup[user][group] = struct{}{}
	return nil
}

// GetUserToGroupMappings returns user's direct groups when indirect is
// false (spec §4.4 Phase 1). When indirect is true it additionally follows
// the locally-known group-to-group edges to a fixpoint, mirroring the
// shard-local transitive closure spec §4.4 Phase 2 relies on the g2g shard
// to compute.
func (c *InMemoryShardClient) GetUserToGroupMappings(ctx context.Context, user string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.users[user]; !ok {
		return nil, &accesscontrol.UserNotFoundError{User: user}
	}

	direct := keysOf(c.userToGroup[user])
	if !indirect {
		return direct, nil
	}
	closure := c.closureLocked(direct)
	return setKeys(closure), nil
}

// GetGroupToUserMappings returns, for the union of the given groups, every
// user directly mapped to any of them. indirect additionally expands groups
// through the local group-to-group graph before looking up users — used by
// the reverse-direction queries of spec §4.4.
func (c *InMemoryShardClient) GetGroupToUserMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	targetGroups := groups
	if indirect {
		targetGroups = setKeys(c.closureLocked(groups))
	}
	wanted := toSet(targetGroups)

	out := accesscontrol.NewStringSet()
	for user, memberships := range c.userToGroup {
		for g := range memberships {
			if _, ok := wanted[g]; ok {
				out.Add(user)
				break
			}
		}
	}
	return out.Slice(), nil
}

func (c *InMemoryShardClient) RemoveUserToGroupMapping(ctx context.Context, user, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if memberships, ok := c.userToGroup[user]; ok {
		delete(memberships, group)
	}
	return nil
}

// --- Group <-> Group mappings ---

func (c *InMemoryShardClient) AddGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groupToGroup[fromGroup] == nil {
		c.groupToGroup[fromGroup] = make(map[string]struct{})
	}
	c.groupToGroup[fromGroup][toGroup] = struct{}{}
	return nil
}

// GetGroupToGroupMappings returns the direct (or, if indirect, transitive)
// closure reachable by following forward edges from groups. Per spec §4.4
// Phase 2, the returned set includes the input groups themselves.
func (c *InMemoryShardClient) GetGroupToGroupMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !indirect {
		out := accesscontrol.NewStringSet(groups)
		for _, g := range groups {
			out.AddAll(accesscontrol.NewStringSet(keysOf(c.groupToGroup[g])))
		}
		return out.Slice(), nil
	}
	return setKeys(c.closureLocked(groups)), nil
}

// GetGroupToGroupReverseMappings mirrors GetGroupToGroupMappings but follows
// edges in reverse, for the reverse-direction queries of spec §4.4.
func (c *InMemoryShardClient) GetGroupToGroupReverseMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reverse := make(map[string]map[string]struct{})
	for from, tos := range c.groupToGroup {
		for to := range tos {
			if reverse[to] == nil {
				reverse[to] = make(map[string]struct{})
			}
			reverse[to][from] = struct{}{}
		}
	}

	if !indirect {
		out := accesscontrol.NewStringSet(groups)
		for _, g := range groups {
			out.AddAll(accesscontrol.NewStringSet(keysOf(reverse[g])))
		}
		return out.Slice(), nil
	}

	visited := toSet(groups)
	frontier := append([]string(nil), groups...)
	for len(frontier) > 0 {
		var next []string
		for _, g := range frontier {
			for n := range reverse[g] {
				if _, ok := visited[n]; !ok {
					visited[n] = struct{}{}
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return setKeys(visited), nil
}

func (c *InMemoryShardClient) RemoveGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tos, ok := c.groupToGroup[fromGroup]; ok {
		delete(tos, toGroup)
	}
	return nil
}

// --- User/Group <-> ApplicationComponent+AccessLevel mappings ---

func (c *InMemoryShardClient) AddUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userToComponent[user] == nil {
		c.userToComponent[user] = make(map[accesscontrol.Pair]struct{})
	}
	c.userToComponent[user][accesscontrol.Pair{First: component, Second: accessLevel}] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) GetUserToApplicationComponentAndAccessLevelMappings(ctx context.Context, user string) ([]accesscontrol.Pair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return pairKeysOf(c.userToComponent[user]), nil
}

func (c *InMemoryShardClient) RemoveUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.userToComponent[user]; ok {
		delete(m, accesscontrol.Pair{First: component, Second: accessLevel})
	}
	return nil
}

func (c *InMemoryShardClient) AddGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groupToComponent[group] == nil {
		c.groupToComponent[group] = make(map[accesscontrol.Pair]struct{})
	}
	c.groupToComponent[group][accesscontrol.Pair{First: component, Second: accessLevel}] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) GetGroupToApplicationComponentAndAccessLevelMappings(ctx context.Context, group string) ([]accesscontrol.Pair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return pairKeysOf(c.groupToComponent[group]), nil
}

func (c *InMemoryShardClient) GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]accesscontrol.Pair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := accesscontrol.NewPairSet()
	for _, g := range groups {
		out.AddAll(accesscontrol.NewPairSet(pairKeysOf(c.groupToComponent[g])))
	}
	return out.Slice(), nil
}

func (c *InMemoryShardClient) GetApplicationComponentAndAccessLevelToGroupMappings(ctx context.Context, component, accessLevel string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := accesscontrol.Pair{First: component, Second: accessLevel}
	direct := accesscontrol.NewStringSet()
	for g, pairs := range c.groupToComponent {
		if _, ok := pairs[want]; ok {
			direct.Add(g)
		}
	}
	if !indirect {
		return direct.Slice(), nil
	}
	return setKeys(c.closureLocked(direct.Slice())), nil
}

func (c *InMemoryShardClient) RemoveGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.groupToComponent[group]; ok {
		delete(m, accesscontrol.Pair{First: component, Second: accessLevel})
	}
	return nil
}

// --- User/Group <-> Entity mappings ---

func (c *InMemoryShardClient) AddUserToEntityMapping(ctx context.Context, user, entityType, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userToEntity[user] == nil {
		c.userToEntity[user] = make(map[accesscontrol.Pair]struct{})
	}
	c.userToEntity[user][accesscontrol.Pair{First: entityType, Second: entity}] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) GetUserToEntityMappings(ctx context.Context, user string) ([]accesscontrol.Pair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.users[user]; !ok {
		return nil, &accesscontrol.UserNotFoundError{User: user}
	}
	return pairKeysOf(c.userToEntity[user]), nil
}

func (c *InMemoryShardClient) RemoveUserToEntityMapping(ctx context.Context, user, entityType, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.userToEntity[user]; ok {
		delete(m, accesscontrol.Pair{First: entityType, Second: entity})
	}
	return nil
}

func (c *InMemoryShardClient) AddGroupToEntityMapping(ctx context.Context, group, entityType, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groupToEntity[group] == nil {
		c.groupToEntity[group] = make(map[accesscontrol.Pair]struct{})
	}
	c.groupToEntity[group][accesscontrol.Pair{First: entityType, Second: entity}] = struct{}{}
	return nil
}

func (c *InMemoryShardClient) GetGroupToEntityMappings(ctx context.Context, group string) ([]accesscontrol.Pair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return pairKeysOf(c.groupToEntity[group]), nil
}

// GetEntitiesAccessibleByGroups returns, for the union of groups, the
// entities of entityType they are directly mapped to. An empty entityType
// means "every entity type". This is the batched group-side getter spec §6
// names, used by Phase 3 of the Resolver (spec §8 property P6: a group with
// no further group memberships must still return its direct entities).
func (c *InMemoryShardClient) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string, entityType string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := accesscontrol.NewStringSet()
	for _, g := range groups {
		for pair := range c.groupToEntity[g] {
			if entityType == "" || pair.First == entityType {
				out.Add(pair.Second)
			}
		}
	}
	return out.Slice(), nil
}

func (c *InMemoryShardClient) GetEntityToGroupMappings(ctx context.Context, entityType, entity string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := accesscontrol.Pair{First: entityType, Second: entity}
	direct := accesscontrol.NewStringSet()
	for g, pairs := range c.groupToEntity {
		if _, ok := pairs[want]; ok {
			direct.Add(g)
		}
	}
	if !indirect {
		return direct.Slice(), nil
	}
	return setKeys(c.closureLocked(direct.Slice())), nil
}

func (c *InMemoryShardClient) GetEntityToUserMappings(ctx context.Context, entityType, entity string, indirect bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := accesscontrol.Pair{First: entityType, Second: entity}
	out := accesscontrol.NewStringSet()
	for u, pairs := range c.userToEntity {
		if _, ok := pairs[want]; ok {
			out.Add(u)
		}
	}
	_ = indirect // indirect expansion for this reverse form is performed by the resolver over group closures, not locally
	return out.Slice(), nil
}

func (c *InMemoryShardClient) RemoveGroupToEntityMapping(ctx context.Context, group, entityType, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.groupToEntity[group]; ok {
		delete(m, accesscontrol.Pair{First: entityType, Second: entity})
	}
	return nil
}

// --- Authorization checks ---

func (c *InMemoryShardClient) HasAccessToApplicationComponentUser(ctx context.Context, user, component, accessLevel string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.users[user]; !ok {
		return false, &accesscontrol.UserNotFoundError{User: user}
	}
	_, ok := c.userToComponent[user][accesscontrol.Pair{First: component, Second: accessLevel}]
	return ok, nil
}

func (c *InMemoryShardClient) HasAccessToApplicationComponentGroups(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := accesscontrol.Pair{First: component, Second: accessLevel}
	for _, g := range groups {
		if _, ok := c.groupToComponent[g][want]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *InMemoryShardClient) HasAccessToEntityUser(ctx context.Context, user, entityType, entity string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.users[user]; !ok {
		return false, &accesscontrol.UserNotFoundError{User: user}
	}
	_, ok := c.userToEntity[user][accesscontrol.Pair{First: entityType, Second: entity}]
	return ok, nil
}

func (c *InMemoryShardClient) HasAccessToEntityGroups(ctx context.Context, groups []string, entityType, entity string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := accesscontrol.Pair{First: entityType, Second: entity}
	for _, g := range groups {
		if _, ok := c.groupToEntity[g][want]; ok {
			return true, nil
		}
	}
	return false, nil
}

// closureLocked computes the transitive closure reachable from seeds by
// following forward group-to-group edges, including the seeds themselves
// (spec §4.4 Phase 2). Caller must hold at least c.mu.RLock().
func (c *InMemoryShardClient) closureLocked(seeds []string) map[string]struct{} {
	visited := toSet(seeds)
	frontier := append([]string(nil), seeds...)
	for len(frontier) > 0 {
		var next []string
		for _, g := range frontier {
			for n := range c.groupToGroup[g] {
				if _, ok := visited[n]; !ok {
					visited[n] = struct{}{}
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return visited
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func pairKeysOf(m map[accesscontrol.Pair]struct{}) []accesscontrol.Pair {
	out := make([]accesscontrol.Pair, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(keys []string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
