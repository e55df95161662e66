package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/coordinator"
)

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStrings(w http.ResponseWriter, values accesscontrol.StringSet) {
	writeJSON(w, map[string][]string{"values": values.Slice()})
}

func writePairs(w http.ResponseWriter, values accesscontrol.PairSet) {
	writeJSON(w, map[string][]accesscontrol.Pair{"values": values.Slice()})
}

func writeBool(w http.ResponseWriter, value bool) {
	writeJSON(w, map[string]bool{"value": value})
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeCoordError maps a Coordinator error to an HTTP status: a typed
// NotFound error becomes 404 (the caller asked about something that
// genuinely doesn't exist), everything else — a wrapped
// *accesscontrol.ShardOperationError or a bare transport failure — becomes
// 502, since it reflects a backend shard problem rather than a bad request.
func writeCoordError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch err.(type) {
	case *accesscontrol.UserNotFoundError, *accesscontrol.GroupNotFoundError,
		*accesscontrol.EntityTypeNotFoundError, *accesscontrol.EntityNotFoundError:
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

// registerOperationRoutes wires one HTTP path per Coordinator operation
// (spec §4.6's Public Operation Surface). Point/broadcast routing, fan-out,
// and error classification all happen inside the Coordinator itself — these
// handlers are thin JSON adapters, the same role internal/shardserver's
// handlers play for cmd/node.
func registerOperationRoutes(mux *http.ServeMux, c *coordinator.Coordinator) {
	// --- Users ---

	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		vals, err := c.GetUsers(r.Context())
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/users/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddUser(r.Context(), req.User); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/users/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.ContainsUser(r.Context(), req.User)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/users/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveUser(r.Context(), req.User); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})

	// --- Groups ---

	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		vals, err := c.GetGroups(r.Context())
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/groups/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddGroup(r.Context(), req.Group); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/groups/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.ContainsGroup(r.Context(), req.Group)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/groups/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveGroup(r.Context(), req.Group); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})

	// --- EntityTypes / Entities ---

	mux.HandleFunc("/entity-types", func(w http.ResponseWriter, r *http.Request) {
		vals, err := c.GetEntityTypes(r.Context())
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/entity-types/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddEntityType(r.Context(), req.EntityType); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/entity-types/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.ContainsEntityType(r.Context(), req.EntityType)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/entity-types/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveEntityType(r.Context(), req.EntityType); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})

	mux.HandleFunc("/entities/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetEntities(r.Context(), req.EntityType)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/entities/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddEntity(r.Context(), req.EntityType, req.Entity); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/entities/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.ContainsEntity(r.Context(), req.EntityType, req.Entity)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/entities/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveEntity(r.Context(), req.EntityType, req.Entity); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})

	// --- User <-> Group mappings ---

	mux.HandleFunc("/user-to-group/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddUserToGroupMapping(r.Context(), req.User, req.Group); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-group/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			User     string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetUserToGroupMappings(r.Context(), req.User, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-user/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Group    string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetGroupToUserMappings(r.Context(), req.Group, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/user-to-group/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveUserToGroupMapping(r.Context(), req.User, req.Group); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})

	// --- Group <-> Group mappings ---

	mux.HandleFunc("/group-to-group/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ FromGroup, ToGroup string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddGroupToGroupMapping(r.Context(), req.FromGroup, req.ToGroup); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-group/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Group    string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetGroupToGroupMappings(r.Context(), req.Group, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-group/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Group    string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetGroupToGroupReverseMappings(r.Context(), req.Group, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-group/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ FromGroup, ToGroup string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveGroupToGroupMapping(r.Context(), req.FromGroup, req.ToGroup); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})

	// --- User/Group <-> ApplicationComponent+AccessLevel mappings ---

	mux.HandleFunc("/user-to-component/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddUserToApplicationComponentAndAccessLevelMapping(r.Context(), req.User, req.Component, req.AccessLevel); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-component/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetUserToApplicationComponentAndAccessLevelMappings(r.Context(), req.User)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/user-to-component/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveUserToApplicationComponentAndAccessLevelMapping(r.Context(), req.User, req.Component, req.AccessLevel); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-component/accessible", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetApplicationComponentsAccessibleByUser(r.Context(), req.User)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/user-to-component/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetApplicationComponentAndAccessLevelToUserMappings(r.Context(), req.Component, req.AccessLevel)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})

	mux.HandleFunc("/group-to-component/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddGroupToApplicationComponentAndAccessLevelMapping(r.Context(), req.Group, req.Component, req.AccessLevel); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-component/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetGroupToApplicationComponentAndAccessLevelMappings(r.Context(), req.Group)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/group-to-component/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Component, AccessLevel string
			Indirect               bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetApplicationComponentAndAccessLevelToGroupMappings(r.Context(), req.Component, req.AccessLevel, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-component/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveGroupToApplicationComponentAndAccessLevelMapping(r.Context(), req.Group, req.Component, req.AccessLevel); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-component/accessible", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetApplicationComponentsAccessibleByGroup(r.Context(), req.Group)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writePairs(w, vals)
	})

	// --- User/Group <-> Entity mappings ---

	mux.HandleFunc("/user-to-entity/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddUserToEntityMapping(r.Context(), req.User, req.EntityType, req.Entity); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-entity/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetUserToEntityMappings(r.Context(), req.User)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/user-to-entity/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveUserToEntityMapping(r.Context(), req.User, req.EntityType, req.Entity); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-entity/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EntityType, Entity string
			Indirect           bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetEntityToUserMappings(r.Context(), req.EntityType, req.Entity, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/user-to-entity/accessible", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetEntitiesAccessibleByUser(r.Context(), req.User, req.EntityType)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})

	mux.HandleFunc("/group-to-entity/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.AddGroupToEntityMapping(r.Context(), req.Group, req.EntityType, req.Entity); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-entity/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetGroupToEntityMappings(r.Context(), req.Group)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/group-to-entity/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EntityType, Entity string
			Indirect           bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetEntityToGroupMappings(r.Context(), req.EntityType, req.Entity, req.Indirect)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-entity/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		if err := c.RemoveGroupToEntityMapping(r.Context(), req.Group, req.EntityType, req.Entity); err != nil {
			writeCoordError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-entity/accessible", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		vals, err := c.GetEntitiesAccessibleByGroup(r.Context(), req.Group, req.EntityType)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeStrings(w, vals)
	})

	// --- Authorization checks ---

	mux.HandleFunc("/access/component/user", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.HasAccessToApplicationComponentUser(r.Context(), req.User, req.Component, req.AccessLevel)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/access/component/group", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.HasAccessToApplicationComponentGroup(r.Context(), req.Group, req.Component, req.AccessLevel)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/access/entity/user", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.HasAccessToEntityUser(r.Context(), req.User, req.EntityType, req.Entity)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/access/entity/group", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeCoordError(w, err)
			return
		}
		ok, err := c.HasAccessToEntityGroup(r.Context(), req.Group, req.EntityType, req.Entity)
		if err != nil {
			writeCoordError(w, err)
			return
		}
		writeBool(w, ok)
	})
}
