package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/shardclient"
)

// fakeDirectory routes everything to one shard per element, with a
// caller-supplied partition function for GetClients (unused by most of
// these tests, which only exercise point/broadcast shapes).
type fakeDirectory struct {
	client map[accesscontrol.DataElement]accesscontrol.ShardRef
}

func (d *fakeDirectory) GetClient(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, key string) (accesscontrol.ShardRef, error) {
	return d.client[de], nil
}

func (d *fakeDirectory) GetAllClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation) ([]accesscontrol.ShardRef, error) {
	return []accesscontrol.ShardRef{d.client[de]}, nil
}

func (d *fakeDirectory) GetClients(ctx context.Context, de accesscontrol.DataElement, op accesscontrol.Operation, keys []string) ([]accesscontrol.ShardBucket, error) {
	return []accesscontrol.ShardBucket{{Ref: d.client[de], Keys: keys}}, nil
}

func (d *fakeDirectory) RefreshConfiguration(ctx context.Context, cfg directory.Config) error {
	return nil
}

func newTestCoordinator() (*Coordinator, *metrics.RecordingLogger) {
	userShard := shardclient.NewInMemoryShardClient()
	groupShard := shardclient.NewInMemoryShardClient()
	g2gShard := shardclient.NewInMemoryShardClient()

	dir := &fakeDirectory{
		client: map[accesscontrol.DataElement]accesscontrol.ShardRef{
			accesscontrol.User:                {Client: userShard, Description: "user-shard"},
			accesscontrol.Group:               {Client: groupShard, Description: "group-shard"},
			accesscontrol.GroupToGroupMapping: {Client: g2gShard, Description: "g2g-shard"},
		},
	}

	logger := metrics.NewRecordingLogger()
	return New(dir, logger), logger
}

func TestCoordinator_AddUser_PointRoutedWrite(t *testing.T) {
	c, logger := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, c.AddUser(ctx, "user1"))
	has, err := c.ContainsUser(ctx, "user1")
	require.NoError(t, err)
	require.True(t, has)
	require.NoError(t, logger.AssertNoLeakedTokens())
}

func TestCoordinator_GetUserToEntityMappings_PropagatesTypedNotFound(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	_, err := c.GetUserToEntityMappings(ctx, "ghost")
	require.Error(t, err)
	var notFound *accesscontrol.UserNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCoordinator_AddGroup_BroadcastsAcrossThreeElements(t *testing.T) {
	c, logger := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, c.AddGroup(ctx, "group1"))

	has, err := c.ContainsGroup(ctx, "group1")
	require.NoError(t, err)
	require.True(t, has)

	// The broadcast reached the GroupToGroupMapping and User shards too:
	// both now accept group1 as a valid group-to-group / user-to-group
	// mapping endpoint without a GroupNotFoundError.
	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group1", "group1"))
	require.NoError(t, c.AddUser(ctx, "user1"))
	require.NoError(t, c.AddUserToGroupMapping(ctx, "user1", "group1"))

	require.NoError(t, logger.AssertNoLeakedTokens())
}

func TestCoordinator_GetUsers_BroadcastReadUnion(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, c.AddUser(ctx, "user1"))
	require.NoError(t, c.AddUser(ctx, "user2"))

	users, err := c.GetUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, users.Len())
	require.True(t, users.Contains("user1"))
	require.True(t, users.Contains("user2"))
}

func TestCoordinator_HasAccessToApplicationComponentUser_DelegatesToResolver(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	require.NoError(t, c.AddUser(ctx, "user1"))
	require.NoError(t, c.AddUserToApplicationComponentAndAccessLevelMapping(ctx, "user1", "Order", "Create"))

	has, err := c.HasAccessToApplicationComponentUser(ctx, "user1", "Order", "Create")
	require.NoError(t, err)
	require.True(t, has)

	has, err = c.HasAccessToApplicationComponentUser(ctx, "user1", "Order", "Delete")
	require.NoError(t, err)
	require.False(t, has)
}
