package shardserver

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// errorEnvelope mirrors shardclient.errorEnvelope — the two types describe
// the same wire shape from opposite ends of the connection and are kept as
// separate small structs rather than a shared import, the way a generated
// client/server stub pair would be.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Arg1    string `json:"arg1,omitempty"`
	Arg2    string `json:"arg2,omitempty"`
}

func toEnvelope(err error) errorEnvelope {
	switch e := err.(type) {
	case *accesscontrol.UserNotFoundError:
		return errorEnvelope{Code: "user_not_found", Message: e.Error(), Arg1: e.User}
	case *accesscontrol.GroupNotFoundError:
		return errorEnvelope{Code: "group_not_found", Message: e.Error(), Arg1: e.Group}
	case *accesscontrol.EntityTypeNotFoundError:
		return errorEnvelope{Code: "entity_type_not_found", Message: e.Error(), Arg1: e.EntityType}
	case *accesscontrol.EntityNotFoundError:
		return errorEnvelope{Code: "entity_not_found", Message: e.Error(), Arg1: e.EntityType, Arg2: e.Entity}
	default:
		return errorEnvelope{Code: "internal", Message: err.Error()}
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	envelope := toEnvelope(err)
	status := http.StatusUnprocessableEntity
	if envelope.Code == "internal" {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func writeStrings(w http.ResponseWriter, values []string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"values": values})
}

func writePairs(w http.ResponseWriter, values []accesscontrol.Pair) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]accesscontrol.Pair{"values": values})
}

func writeBool(w http.ResponseWriter, value bool) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"value": value})
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// NewHandler builds the HTTP surface a shard node exposes for client, the
// server side of the contract shardclient.HTTPShardClient speaks against.
// One handler is registered per path; every handler decodes its request
// body, calls through to client, and translates a typed NotFound error into
// the 422 error envelope spec §4.5 requires shards to be able to produce.
func NewHandler(client accesscontrol.ShardClient) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// --- User/Group/EntityType/Entity primitive CRUD ---

	mux.HandleFunc("/users/list", func(w http.ResponseWriter, r *http.Request) {
		vals, err := client.GetUsers(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/users/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddUser(r.Context(), req.User); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/users/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.ContainsUser(r.Context(), req.User)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/users/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveUser(r.Context(), req.User); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	mux.HandleFunc("/groups/list", func(w http.ResponseWriter, r *http.Request) {
		vals, err := client.GetGroups(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/groups/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddGroup(r.Context(), req.Group); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/groups/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.ContainsGroup(r.Context(), req.Group)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/groups/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveGroup(r.Context(), req.Group); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	mux.HandleFunc("/entity-types/list", func(w http.ResponseWriter, r *http.Request) {
		vals, err := client.GetEntityTypes(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/entity-types/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddEntityType(r.Context(), req.EntityType); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/entity-types/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.ContainsEntityType(r.Context(), req.EntityType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/entity-types/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveEntityType(r.Context(), req.EntityType); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	mux.HandleFunc("/entities/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetEntities(r.Context(), req.EntityType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/entities/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddEntity(r.Context(), req.EntityType, req.Entity); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/entities/contains", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.ContainsEntity(r.Context(), req.EntityType, req.Entity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/entities/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveEntity(r.Context(), req.EntityType, req.Entity); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	// --- User <-> Group mappings ---

	mux.HandleFunc("/user-to-group/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddUserToGroupMapping(r.Context(), req.User, req.Group); err != nil {
			writeError(w, err)
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
			writeError(w, err)
			return
		}
		vals, err := client.GetUserToGroupMappings(r.Context(), req.User, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-user/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Groups   []string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetGroupToUserMappings(r.Context(), req.Groups, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/user-to-group/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveUserToGroupMapping(r.Context(), req.User, req.Group); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	// --- Group <-> Group mappings ---

	mux.HandleFunc("/group-to-group/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ FromGroup, ToGroup string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddGroupToGroupMapping(r.Context(), req.FromGroup, req.ToGroup); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-group/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Groups   []string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetGroupToGroupMappings(r.Context(), req.Groups, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-group/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Groups   []string
			Indirect bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetGroupToGroupReverseMappings(r.Context(), req.Groups, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-group/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ FromGroup, ToGroup string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveGroupToGroupMapping(r.Context(), req.FromGroup, req.ToGroup); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	// --- User/Group <-> ApplicationComponent+AccessLevel mappings ---

	mux.HandleFunc("/user-to-component/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddUserToApplicationComponentAndAccessLevelMapping(r.Context(), req.User, req.Component, req.AccessLevel); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-component/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetUserToApplicationComponentAndAccessLevelMappings(r.Context(), req.User)
		if err != nil {
			writeError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/user-to-component/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveUserToApplicationComponentAndAccessLevelMapping(r.Context(), req.User, req.Component, req.AccessLevel); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	mux.HandleFunc("/group-to-component/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddGroupToApplicationComponentAndAccessLevelMapping(r.Context(), req.Group, req.Component, req.AccessLevel); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-component/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetGroupToApplicationComponentAndAccessLevelMappings(r.Context(), req.Group)
		if err != nil {
			writeError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/group-to-component/accessible-by-groups", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Groups []string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetApplicationComponentsAccessibleByGroups(r.Context(), req.Groups)
		if err != nil {
			writeError(w, err)
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
			writeError(w, err)
			return
		}
		vals, err := client.GetApplicationComponentAndAccessLevelToGroupMappings(r.Context(), req.Component, req.AccessLevel, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-component/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveGroupToApplicationComponentAndAccessLevelMapping(r.Context(), req.Group, req.Component, req.AccessLevel); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	// --- User/Group <-> Entity mappings ---

	mux.HandleFunc("/user-to-entity/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddUserToEntityMapping(r.Context(), req.User, req.EntityType, req.Entity); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/user-to-entity/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetUserToEntityMappings(r.Context(), req.User)
		if err != nil {
			writeError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/user-to-entity/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveUserToEntityMapping(r.Context(), req.User, req.EntityType, req.Entity); err != nil {
			writeError(w, err)
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
			writeError(w, err)
			return
		}
		vals, err := client.GetEntityToUserMappings(r.Context(), req.EntityType, req.Entity, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})

	mux.HandleFunc("/group-to-entity/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.AddGroupToEntityMapping(r.Context(), req.Group, req.EntityType, req.Entity); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})
	mux.HandleFunc("/group-to-entity/list", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetGroupToEntityMappings(r.Context(), req.Group)
		if err != nil {
			writeError(w, err)
			return
		}
		writePairs(w, vals)
	})
	mux.HandleFunc("/group-to-entity/accessible-by-groups", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Groups     []string
			EntityType string
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetEntitiesAccessibleByGroups(r.Context(), req.Groups, req.EntityType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-entity/reverse-list", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EntityType, Entity string
			Indirect           bool
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		vals, err := client.GetEntityToGroupMappings(r.Context(), req.EntityType, req.Entity, req.Indirect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeStrings(w, vals)
	})
	mux.HandleFunc("/group-to-entity/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Group, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := client.RemoveGroupToEntityMapping(r.Context(), req.Group, req.EntityType, req.Entity); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	})

	// --- Authorization checks ---

	mux.HandleFunc("/access/component/user", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, Component, AccessLevel string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.HasAccessToApplicationComponentUser(r.Context(), req.User, req.Component, req.AccessLevel)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/access/component/groups", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Groups                 []string
			Component, AccessLevel string
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.HasAccessToApplicationComponentGroups(r.Context(), req.Groups, req.Component, req.AccessLevel)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/access/entity/user", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ User, EntityType, Entity string }
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.HasAccessToEntityUser(r.Context(), req.User, req.EntityType, req.Entity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})
	mux.HandleFunc("/access/entity/groups", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Groups             []string
			EntityType, Entity string
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ok, err := client.HasAccessToEntityGroups(r.Context(), req.Groups, req.EntityType, req.Entity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeBool(w, ok)
	})

	return logRequests(mux)
}

// logRequests is the teacher's own style of access logging (cmd/node and
// cmd/coordinator both log.Printf per request rather than pulling in a
// middleware library).
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("shardserver: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
