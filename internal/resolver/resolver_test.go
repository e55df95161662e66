package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
)

// fakeShardClient implements accesscontrol.ShardClient by delegating each
// method a test cares about to a function field; anything else panics, the
// same "embed the interface, override what you use" pattern
// directory/static_directory_test.go uses for its stub.
type fakeShardClient struct {
	accesscontrol.ShardClient

	getUserToGroupMappings               func(ctx context.Context, user string, indirect bool) ([]string, error)
	hasAccessToApplicationComponentUser  func(ctx context.Context, user, component, accessLevel string) (bool, error)
	hasAccessToApplicationComponentGroup func(ctx context.Context, groups []string, component, accessLevel string) (bool, error)
	getGroupToGroupMappings              func(ctx context.Context, groups []string, indirect bool) ([]string, error)
	getEntitiesAccessibleByGroups        func(ctx context.Context, groups []string, entityType string) ([]string, error)
}

func (c fakeShardClient) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string, entityType string) ([]string, error) {
	return c.getEntitiesAccessibleByGroups(ctx, groups, entityType)
}

func (c fakeShardClient) GetUserToGroupMappings(ctx context.Context, user string, indirect bool) ([]string, error) {
	return c.getUserToGroupMappings(ctx, user, indirect)
}

func (c fakeShardClient) HasAccessToApplicationComponentUser(ctx context.Context, user, component, accessLevel string) (bool, error) {
	return c.hasAccessToApplicationComponentUser(ctx, user, component, accessLevel)
}

func (c fakeShardClient) HasAccessToApplicationComponentGroups(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	return c.hasAccessToApplicationComponentGroup(ctx, groups, component, accessLevel)
}

func (c fakeShardClient) GetGroupToGroupMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	return c.getGroupToGroupMappings(ctx, groups, indirect)
}

// fakeDirectory is a directory.ShardDirectory fully under test control: it
// maps a fixed GetClient answer per element, a fixed GetAllClients list per
// element, and a caller-supplied partitioning function for GetClients.
type fakeDirectory struct {
	client    map[accesscontrol.DataElement]accesscontrol.ShardRef
	partition func(de accesscontrol.DataElement, keys []string) []accesscontrol.ShardBucket
}

func (d *fakeDirectory) GetClient(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, key string) (accesscontrol.ShardRef, error) {
	return d.client[de], nil
}

func (d *fakeDirectory) GetAllClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation) ([]accesscontrol.ShardRef, error) {
	return []accesscontrol.ShardRef{d.client[de]}, nil
}

func (d *fakeDirectory) GetClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, keys []string) ([]accesscontrol.ShardBucket, error) {
	return d.partition(de, keys), nil
}

func (d *fakeDirectory) RefreshConfiguration(ctx context.Context, cfg directory.Config) error {
	return nil
}

// TestResolver_HasAccessToApplicationComponentUser_TransitiveTrueViaGroupShard
// covers spec §8 scenario 3.
func TestResolver_HasAccessToApplicationComponentUser_TransitiveTrueViaGroupShard(t *testing.T) {
	userShard := fakeShardClient{
		getUserToGroupMappings: func(ctx context.Context, user string, indirect bool) ([]string, error) {
			return []string{"group1", "group2", "group3"}, nil
		},
		hasAccessToApplicationComponentUser: func(ctx context.Context, user, component, accessLevel string) (bool, error) {
			return false, nil
		},
	}
	g2gShard := fakeShardClient{
		getGroupToGroupMappings: func(ctx context.Context, groups []string, indirect bool) ([]string, error) {
			return []string{"group1", "group2", "group3", "group4", "group5", "group6"}, nil
		},
	}
	groupShardA := fakeShardClient{
		hasAccessToApplicationComponentGroup: func(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
			return false, nil
		},
	}
	groupShardB := fakeShardClient{
		hasAccessToApplicationComponentGroup: func(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
			return true, nil
		},
	}

	bucketASet := map[string]bool{"group3": true, "group5": true}

	dir := &fakeDirectory{
		client: map[accesscontrol.DataElement]accesscontrol.ShardRef{
			accesscontrol.User:                 {Client: userShard, Description: "user-shard"},
			accesscontrol.GroupToGroupMapping:   {Client: g2gShard, Description: "g2g-shard"},
		},
		partition: func(de accesscontrol.DataElement, keys []string) []accesscontrol.ShardBucket {
			switch de {
			case accesscontrol.GroupToGroupMapping:
				return []accesscontrol.ShardBucket{{Ref: accesscontrol.ShardRef{Client: g2gShard, Description: "g2g-shard"}, Keys: keys}}
			case accesscontrol.Group:
				var a, b []string
				for _, k := range keys {
					if bucketASet[k] {
						a = append(a, k)
					} else {
						b = append(b, k)
					}
				}
				return []accesscontrol.ShardBucket{
					{Ref: accesscontrol.ShardRef{Client: groupShardA, Description: "group-shard-a"}, Keys: a},
					{Ref: accesscontrol.ShardRef{Client: groupShardB, Description: "group-shard-b"}, Keys: b},
				}
			}
			return nil
		},
	}

	logger := metrics.NewRecordingLogger()
	r := New(dir, logger)

	has, err := r.HasAccessToApplicationComponentUser(context.Background(), "user1", "Order", "Create")
	require.NoError(t, err)
	require.True(t, has)
	require.NoError(t, logger.AssertNoLeakedTokens())
}

// TestResolver_HasAccessToApplicationComponentUser_UserNotFound covers spec
// §8 scenario 4.
func TestResolver_HasAccessToApplicationComponentUser_UserNotFound(t *testing.T) {
	userShard := fakeShardClient{
		getUserToGroupMappings: func(ctx context.Context, user string, indirect bool) ([]string, error) {
			return nil, &accesscontrol.UserNotFoundError{User: user}
		},
		hasAccessToApplicationComponentUser: func(ctx context.Context, user, component, accessLevel string) (bool, error) {
			return false, &accesscontrol.UserNotFoundError{User: user}
		},
	}
	dir := &fakeDirectory{
		client: map[accesscontrol.DataElement]accesscontrol.ShardRef{
			accesscontrol.User: {Client: userShard, Description: "user-shard"},
		},
	}

	logger := metrics.NewRecordingLogger()
	r := New(dir, logger)

	has, err := r.HasAccessToApplicationComponentUser(context.Background(), "user1", "Order", "Create")
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, logger.AssertNoLeakedTokens())
}

// TestResolver_GetUserToGroupMappingsIndirect_MultiShardClosure covers spec
// §8 scenario 5.
func TestResolver_GetUserToGroupMappingsIndirect_MultiShardClosure(t *testing.T) {
	userShard := fakeShardClient{
		getUserToGroupMappings: func(ctx context.Context, user string, indirect bool) ([]string, error) {
			return []string{"group2", "group3", "group1", "group5", "group4"}, nil
		},
	}
	g2gShardOne := fakeShardClient{
		getGroupToGroupMappings: func(ctx context.Context, groups []string, indirect bool) ([]string, error) {
			return []string{"group6", "group2", "group1", "group4", "group3"}, nil
		},
	}
	g2gShardTwo := fakeShardClient{
		getGroupToGroupMappings: func(ctx context.Context, groups []string, indirect bool) ([]string, error) {
			return []string{"group7", "group3", "group5", "group1"}, nil
		},
	}

	bucketOneSet := map[string]bool{"group1": true, "group2": true, "group4": true}

	dir := &fakeDirectory{
		client: map[accesscontrol.DataElement]accesscontrol.ShardRef{
			accesscontrol.User: {Client: userShard, Description: "user-shard"},
		},
		partition: func(de accesscontrol.DataElement, keys []string) []accesscontrol.ShardBucket {
			var one, two []string
			for _, k := range keys {
				if bucketOneSet[k] {
					one = append(one, k)
				} else {
					two = append(two, k)
				}
			}
			return []accesscontrol.ShardBucket{
				{Ref: accesscontrol.ShardRef{Client: g2gShardOne, Description: "g2g-shard-1"}, Keys: one},
				{Ref: accesscontrol.ShardRef{Client: g2gShardTwo, Description: "g2g-shard-2"}, Keys: two},
			}
		},
	}

	logger := metrics.NewRecordingLogger()
	r := New(dir, logger)

	got, err := r.GetUserToGroupMappingsIndirect(context.Background(), "user1")
	require.NoError(t, err)
	require.Equal(t, 7, got.Len())
	for i := 1; i <= 7; i++ {
		require.True(t, got.Contains(groupName(i)))
	}
	require.NoError(t, logger.AssertNoLeakedTokens())
}

func groupName(i int) string {
	names := []string{"", "group1", "group2", "group3", "group4", "group5", "group6", "group7"}
	return names[i]
}

// TestResolver_GetEntitiesAccessibleByGroup_NoFurtherGroups covers spec §8
// property P6: a group with no further group memberships must still return
// its direct entity mappings — Phase 2's closure on a group with no outgoing
// edges is just the singleton {group}, and Phase 3 must still run on it
// rather than being skipped as though the closure were empty.
func TestResolver_GetEntitiesAccessibleByGroup_NoFurtherGroups(t *testing.T) {
	g2gShard := fakeShardClient{
		getGroupToGroupMappings: func(ctx context.Context, groups []string, indirect bool) ([]string, error) {
			return groups, nil // no further memberships: closure is the identity
		},
	}
	groupShard := fakeShardClient{
		getEntitiesAccessibleByGroups: func(ctx context.Context, groups []string, entityType string) ([]string, error) {
			require.Equal(t, []string{"group1"}, groups)
			return []string{"ClientA"}, nil
		},
	}
	dir := &fakeDirectory{
		client: map[accesscontrol.DataElement]accesscontrol.ShardRef{},
		partition: func(de accesscontrol.DataElement, keys []string) []accesscontrol.ShardBucket {
			switch de {
			case accesscontrol.GroupToGroupMapping:
				return []accesscontrol.ShardBucket{{Ref: accesscontrol.ShardRef{Client: g2gShard, Description: "g2g-shard"}, Keys: keys}}
			case accesscontrol.Group:
				return []accesscontrol.ShardBucket{{Ref: accesscontrol.ShardRef{Client: groupShard, Description: "group-shard"}, Keys: keys}}
			}
			return nil
		},
	}

	logger := metrics.NewRecordingLogger()
	r := New(dir, logger)

	got, err := r.GetEntitiesAccessibleByGroup(context.Background(), "group1", "ClientAccount")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.True(t, got.Contains("ClientA"))
}
