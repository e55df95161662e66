package shardclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

func TestInMemoryShardClient_UserCRUD(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddUser(ctx, "user1"))
	ok, err := c.ContainsUser(ctx, "user1")
	require.NoError(t, err)
	require.True(t, ok)

	users, err := c.GetUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"user1"}, users)

	require.NoError(t, c.RemoveUser(ctx, "user1"))
	ok, err = c.ContainsUser(ctx, "user1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInMemoryShardClient_GetEntities_UnknownTypeIsNotFound(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	_, err := c.GetEntities(ctx, "ClientAccount")
	require.Error(t, err)
	var notFound *accesscontrol.EntityTypeNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "ClientAccount", notFound.EntityType)
}

func TestInMemoryShardClient_GetUserToGroupMappings_UnknownUserIsNotFound(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	_, err := c.GetUserToGroupMappings(ctx, "ghost", false)
	require.Error(t, err)
	var notFound *accesscontrol.UserNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "ghost", notFound.User)
}

func TestInMemoryShardClient_GetUserToGroupMappings_DirectVsIndirect(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddUser(ctx, "user1"))
	require.NoError(t, c.AddUserToGroupMapping(ctx, "user1", "group1"))
	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group1", "group2"))
	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group2", "group3"))

	direct, err := c.GetUserToGroupMappings(ctx, "user1", false)
	require.NoError(t, err)
	require.Equal(t, []string{"group1"}, direct)

	indirect, err := c.GetUserToGroupMappings(ctx, "user1", true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"group1", "group2", "group3"}, indirect)
}

func TestInMemoryShardClient_GetGroupToGroupMappings_ClosureIncludesSeeds(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group1", "group2"))
	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group2", "group3"))

	got, err := c.GetGroupToGroupMappings(ctx, []string{"group1"}, true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"group1", "group2", "group3"}, got)
}

func TestInMemoryShardClient_GetGroupToGroupReverseMappings(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group1", "group2"))
	require.NoError(t, c.AddGroupToGroupMapping(ctx, "group2", "group3"))

	got, err := c.GetGroupToGroupReverseMappings(ctx, []string{"group3"}, true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"group1", "group2", "group3"}, got)
}

func TestInMemoryShardClient_ApplicationComponentMappings(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddGroupToApplicationComponentAndAccessLevelMapping(ctx, "group1", "Order", "Create"))
	require.NoError(t, c.AddGroupToApplicationComponentAndAccessLevelMapping(ctx, "group2", "Order", "Create"))

	got, err := c.GetApplicationComponentAndAccessLevelToGroupMappings(ctx, "Order", "Create", false)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"group1", "group2"}, got)

	has, err := c.HasAccessToApplicationComponentGroups(ctx, []string{"group1"}, "Order", "Create")
	require.NoError(t, err)
	require.True(t, has)

	has, err = c.HasAccessToApplicationComponentGroups(ctx, []string{"group3"}, "Order", "Create")
	require.NoError(t, err)
	require.False(t, has)
}

func TestInMemoryShardClient_EntityMappings_AccessibleByGroupsFiltersByType(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddGroupToEntityMapping(ctx, "group1", "ClientAccount", "ClientA"))
	require.NoError(t, c.AddGroupToEntityMapping(ctx, "group1", "BusinessUnit", "Sales"))

	got, err := c.GetEntitiesAccessibleByGroups(ctx, []string{"group1"}, "ClientAccount")
	require.NoError(t, err)
	require.Equal(t, []string{"ClientA"}, got)

	all, err := c.GetEntitiesAccessibleByGroups(ctx, []string{"group1"}, "")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"ClientA", "Sales"}, all)
}

func TestInMemoryShardClient_HasAccessToEntityUser(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryShardClient()

	require.NoError(t, c.AddUser(ctx, "user1"))
	require.NoError(t, c.AddUserToEntityMapping(ctx, "user1", "ClientAccount", "ClientA"))

	has, err := c.HasAccessToEntityUser(ctx, "user1", "ClientAccount", "ClientA")
	require.NoError(t, err)
	require.True(t, has)

	has, err = c.HasAccessToEntityUser(ctx, "user1", "ClientAccount", "ClientB")
	require.NoError(t, err)
	require.False(t, has)

	_, err = c.HasAccessToEntityUser(ctx, "ghost", "ClientAccount", "ClientA")
	require.Error(t, err)
	var notFound *accesscontrol.UserNotFoundError
	require.True(t, errors.As(err, &notFound))
}
