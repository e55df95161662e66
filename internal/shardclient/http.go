package shardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// httpClient is the shared client used for all shard communication,
// configured the way the teacher's internal/cluster package configures its
// package-level httpClient: a bounded timeout so an unresponsive shard fails
// fast instead of hanging the fan-out it participates in.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// errorEnvelope is the shape a shard returns instead of a 2xx body when a
// call fails in a way the coordinator needs to classify (spec §4.5):
// NotFound errors carry enough structure to be reconstructed as the typed
// accesscontrol error the ShardClient contract promises, everything else
// is surfaced as an opaque Fatal error by the caller.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Arg1/Arg2 carry the identifier(s) the NotFound error needs to
	// reconstruct itself (user, group, entityType, entity).
	Arg1 string `json:"arg1,omitempty"`
	Arg2 string `json:"arg2,omitempty"`
}

// HTTPShardClient is an accesscontrol.ShardClient that talks to a shard over
// HTTP/JSON, adapted from the teacher's internal/cluster.PostJSON/GetJSON
// pair. Spec §1 and §6 describe the wire format only by contract — this is
// one concrete instance of it, not something the coordinator depends on.
type HTTPShardClient struct {
	baseURL string
}

// NewHTTPShardClient builds a client against a shard reachable at baseURL
// (e.g. "http://shard-3.internal:8090").
func NewHTTPShardClient(baseURL string) *HTTPShardClient {
	return &HTTPShardClient{baseURL: baseURL}
}

func (c *HTTPShardClient) post(ctx context.Context, path string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var envelope errorEnvelope
		if decErr := json.NewDecoder(resp.Body).Decode(&envelope); decErr != nil {
			return fmt.Errorf("shardclient: decoding error envelope from %s: %w", path, decErr)
		}
		return envelope.asError()
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("shardclient: %s%s: http %d", c.baseURL, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// asError reconstructs the typed accesscontrol NotFound errors the
// ShardClient contract requires shards to be able to produce (spec §4.5),
// falling back to a plain error for anything the coordinator should treat
// as Fatal.
func (e errorEnvelope) asError() error {
	switch e.Code {
	case "user_not_found":
		return &accesscontrol.UserNotFoundError{User: e.Arg1}
	case "group_not_found":
		return &accesscontrol.GroupNotFoundError{Group: e.Arg1}
	case "entity_type_not_found":
		return &accesscontrol.EntityTypeNotFoundError{EntityType: e.Arg1}
	case "entity_not_found":
		return &accesscontrol.EntityNotFoundError{EntityType: e.Arg1, Entity: e.Arg2}
	default:
		return fmt.Errorf("shardclient: %s", e.Message)
	}
}

type stringListResponse struct {
	Values []string `json:"values"`
}

type pairListResponse struct {
	Values []accesscontrol.Pair `json:"values"`
}

type boolResponse struct {
	Value bool `json:"value"`
}

func (c *HTTPShardClient) getStrings(ctx context.Context, path string, body any) ([]string, error) {
	var out stringListResponse
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

func (c *HTTPShardClient) getPairs(ctx context.Context, path string, body any) ([]accesscontrol.Pair, error) {
	var out pairListResponse
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

func (c *HTTPShardClient) getBool(ctx context.Context, path string, body any) (bool, error) {
	var out boolResponse
	if err := c.post(ctx, path, body, &out); err != nil {
		return false, err
	}
	return out.Value, nil
}

// --- User/Group/EntityType/Entity primitive CRUD ---

func (c *HTTPShardClient) GetUsers(ctx context.Context) ([]string, error) {
	return c.getStrings(ctx, "/users/list", nil)
}

func (c *HTTPShardClient) AddUser(ctx context.Context, user string) error {
	return c.post(ctx, "/users/add", map[string]string{"user": user}, nil)
}

func (c *HTTPShardClient) ContainsUser(ctx context.Context, user string) (bool, error) {
	return c.getBool(ctx, "/users/contains", map[string]string{"user": user})
}

func (c *HTTPShardClient) RemoveUser(ctx context.Context, user string) error {
	return c.post(ctx, "/users/remove", map[string]string{"user": user}, nil)
}

func (c *HTTPShardClient) GetGroups(ctx context.Context) ([]string, error) {
	return c.getStrings(ctx, "/groups/list", nil)
}

func (c *HTTPShardClient) AddGroup(ctx context.Context, group string) error {
	return c.post(ctx, "/groups/add", map[string]string{"group": group}, nil)
}

func (c *HTTPShardClient) ContainsGroup(ctx context.Context, group string) (bool, error) {
	return c.getBool(ctx, "/groups/contains", map[string]string{"group": group})
}

func (c *HTTPShardClient) RemoveGroup(ctx context.Context, group string) error {
	return c.post(ctx, "/groups/remove", map[string]string{"group": group}, nil)
}

func (c *HTTPShardClient) GetEntityTypes(ctx context.Context) ([]string, error) {
	return c.getStrings(ctx, "/entity-types/list", nil)
}

func (c *HTTPShardClient) AddEntityType(ctx context.Context, entityType string) error {
	return c.post(ctx, "/entity-types/add", map[string]string{"entityType": entityType}, nil)
}

func (c *HTTPShardClient) ContainsEntityType(ctx context.Context, entityType string) (bool, error) {
	return c.getBool(ctx, "/entity-types/contains", map[string]string{"entityType": entityType})
}

func (c *HTTPShardClient) RemoveEntityType(ctx context.Context, entityType string) error {
	return c.post(ctx, "/entity-types/remove", map[string]string{"entityType": entityType}, nil)
}

func (c *HTTPShardClient) GetEntities(ctx context.Context, entityType string) ([]string, error) {
	return c.getStrings(ctx, "/entities/list", map[string]string{"entityType": entityType})
}

func (c *HTTPShardClient) AddEntity(ctx context.Context, entityType, entity string) error {
	return c.post(ctx, "/entities/add", map[string]string{"entityType": entityType, "entity": entity}, nil)
}

func (c *HTTPShardClient) ContainsEntity(ctx context.Context, entityType, entity string) (bool, error) {
	return c.getBool(ctx, "/entities/contains", map[string]string{"entityType": entityType, "entity": entity})
}

func (c *HTTPShardClient) RemoveEntity(ctx context.Context, entityType, entity string) error {
	return c.post(ctx, "/entities/remove", map[string]string{"entityType": entityType, "entity": entity}, nil)
}

// --- User <-> Group mappings ---

func (c *HTTPShardClient) AddUserToGroupMapping(ctx context.Context, user, group string) error {
	return c.post(ctx, "/user-to-group/add", map[string]string{"user": user, "group": group}, nil)
}

func (c *HTTPShardClient) GetUserToGroupMappings(ctx context.Context, user string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/user-to-group/list", map[string]any{"user": user, "indirect": indirect})
}

func (c *HTTPShardClient) GetGroupToUserMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/group-to-user/list", map[string]any{"groups": groups, "indirect": indirect})
}

func (c *HTTPShardClient) RemoveUserToGroupMapping(ctx context.Context, user, group string) error {
	return c.post(ctx, "/user-to-group/remove", map[string]string{"user": user, "group": group}, nil)
}

// --- Group <-> Group mappings ---

func (c *HTTPShardClient) AddGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) error {
	return c.post(ctx, "/group-to-group/add", map[string]string{"fromGroup": fromGroup, "toGroup": toGroup}, nil)
}

func (c *HTTPShardClient) GetGroupToGroupMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/group-to-group/list", map[string]any{"groups": groups, "indirect": indirect})
}

func (c *HTTPShardClient) GetGroupToGroupReverseMappings(ctx context.Context, groups []string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/group-to-group/reverse-list", map[string]any{"groups": groups, "indirect": indirect})
}

func (c *HTTPShardClient) RemoveGroupToGroupMapping(ctx context.Context, fromGroup, toGroup string) error {
	return c.post(ctx, "/group-to-group/remove", map[string]string{"fromGroup": fromGroup, "toGroup": toGroup}, nil)
}

// --- User/Group <-> ApplicationComponent+AccessLevel mappings ---

func (c *HTTPShardClient) AddUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) error {
	return c.post(ctx, "/user-to-component/add", map[string]string{"user": user, "component": component, "accessLevel": accessLevel}, nil)
}

func (c *HTTPShardClient) GetUserToApplicationComponentAndAccessLevelMappings(ctx context.Context, user string) ([]accesscontrol.Pair, error) {
	return c.getPairs(ctx, "/user-to-component/list", map[string]string{"user": user})
}

func (c *HTTPShardClient) RemoveUserToApplicationComponentAndAccessLevelMapping(ctx context.Context, user, component, accessLevel string) error {
	return c.post(ctx, "/user-to-component/remove", map[string]string{"user": user, "component": component, "accessLevel": accessLevel}, nil)
}

func (c *HTTPShardClient) AddGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) error {
	return c.post(ctx, "/group-to-component/add", map[string]string{"group": group, "component": component, "accessLevel": accessLevel}, nil)
}

func (c *HTTPShardClient) GetGroupToApplicationComponentAndAccessLevelMappings(ctx context.Context, group string) ([]accesscontrol.Pair, error) {
	return c.getPairs(ctx, "/group-to-component/list", map[string]string{"group": group})
}

func (c *HTTPShardClient) GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]accesscontrol.Pair, error) {
	return c.getPairs(ctx, "/group-to-component/accessible-by-groups", map[string][]string{"groups": groups})
}

func (c *HTTPShardClient) GetApplicationComponentAndAccessLevelToGroupMappings(ctx context.Context, component, accessLevel string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/group-to-component/reverse-list", map[string]any{"component": component, "accessLevel": accessLevel, "indirect": indirect})
}

func (c *HTTPShardClient) RemoveGroupToApplicationComponentAndAccessLevelMapping(ctx context.Context, group, component, accessLevel string) error {
	return c.post(ctx, "/group-to-component/remove", map[string]string{"group": group, "component": component, "accessLevel": accessLevel}, nil)
}

// --- User/Group <-> Entity mappings ---

func (c *HTTPShardClient) AddUserToEntityMapping(ctx context.Context, user, entityType, entity string) error {
	return c.post(ctx, "/user-to-entity/add", map[string]string{"user": user, "entityType": entityType, "entity": entity}, nil)
}

func (c *HTTPShardClient) GetUserToEntityMappings(ctx context.Context, user string) ([]accesscontrol.Pair, error) {
	return c.getPairs(ctx, "/user-to-entity/list", map[string]string{"user": user})
}

func (c *HTTPShardClient) RemoveUserToEntityMapping(ctx context.Context, user, entityType, entity string) error {
	return c.post(ctx, "/user-to-entity/remove", map[string]string{"user": user, "entityType": entityType, "entity": entity}, nil)
}

func (c *HTTPShardClient) AddGroupToEntityMapping(ctx context.Context, group, entityType, entity string) error {
	return c.post(ctx, "/group-to-entity/add", map[string]string{"group": group, "entityType": entityType, "entity": entity}, nil)
}

func (c *HTTPShardClient) GetGroupToEntityMappings(ctx context.Context, group string) ([]accesscontrol.Pair, error) {
	return c.getPairs(ctx, "/group-to-entity/list", map[string]string{"group": group})
}

func (c *HTTPShardClient) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string, entityType string) ([]string, error) {
	return c.getStrings(ctx, "/group-to-entity/accessible-by-groups", map[string]any{"groups": groups, "entityType": entityType})
}

func (c *HTTPShardClient) GetEntityToGroupMappings(ctx context.Context, entityType, entity string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/group-to-entity/reverse-list", map[string]any{"entityType": entityType, "entity": entity, "indirect": indirect})
}

func (c *HTTPShardClient) GetEntityToUserMappings(ctx context.Context, entityType, entity string, indirect bool) ([]string, error) {
	return c.getStrings(ctx, "/user-to-entity/reverse-list", map[string]any{"entityType": entityType, "entity": entity, "indirect": indirect})
}

func (c *HTTPShardClient) RemoveGroupToEntityMapping(ctx context.Context, group, entityType, entity string) error {
	return c.post(ctx, "/group-to-entity/remove", map[string]string{"group": group, "entityType": entityType, "entity": entity}, nil)
}

// --- Authorization checks ---

func (c *HTTPShardClient) HasAccessToApplicationComponentUser(ctx context.Context, user, component, accessLevel string) (bool, error) {
	return c.getBool(ctx, "/access/component/user", map[string]string{"user": user, "component": component, "accessLevel": accessLevel})
}

func (c *HTTPShardClient) HasAccessToApplicationComponentGroups(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	return c.getBool(ctx, "/access/component/groups", map[string]any{"groups": groups, "component": component, "accessLevel": accessLevel})
}

func (c *HTTPShardClient) HasAccessToEntityUser(ctx context.Context, user, entityType, entity string) (bool, error) {
	return c.getBool(ctx, "/access/entity/user", map[string]string{"user": user, "entityType": entityType, "entity": entity})
}

func (c *HTTPShardClient) HasAccessToEntityGroups(ctx context.Context, groups []string, entityType, entity string) (bool, error) {
	return c.getBool(ctx, "/access/entity/groups", map[string]any{"groups": groups, "entityType": entityType, "entity": entity})
}
