package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/coordinator"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/shardclient"
)

func TestGetenv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      string
		expected string
	}{
		{name: "environment variable set", key: "TEST_COORDINATOR_VAR", value: "test_value", def: "default", expected: "test_value"},
		{name: "environment variable not set", key: "UNSET_COORDINATOR_VAR", value: "", def: "default_value", expected: "default_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
				defer os.Unsetenv(tt.key)
			}
			if result := getenv(tt.key, tt.def); result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestMustGetenv_MissingCallsLogFatal(t *testing.T) {
	os.Unsetenv("UNSET_REQUIRED_VAR")
	called := false
	orig := logFatal
	logFatal = func(format string, args ...any) { called = true }
	defer func() { logFatal = orig }()

	mustGetenv("UNSET_REQUIRED_VAR")

	if !called {
		t.Error("expected logFatal to be called for missing required env var")
	}
}

// writeSingleShardConfig writes a one-shard YAML configuration routing every
// DataElement at one address, enough to exercise the HTTP surface end to
// end without standing up real shard-node processes.
func writeSingleShardConfig(t *testing.T, addr string) string {
	t.Helper()
	body := `
userShards:
  query:
    - {description: u0, address: "` + addr + `"}
  event:
    - {description: u0, address: "` + addr + `"}
groupShards:
  query:
    - {description: g0, address: "` + addr + `"}
  event:
    - {description: g0, address: "` + addr + `"}
groupToGroupShards:
  query:
    - {description: gg0, address: "` + addr + `"}
  event:
    - {description: gg0, address: "` + addr + `"}
`
	path := filepath.Join(t.TempDir(), "shards.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func TestCoordinatorOperationRoutes(t *testing.T) {
	// A single shared in-memory shard client stands in for a real shard-node
	// process; the factory ignores the endpoint and always returns it, since
	// this test only exercises routing through one shard.
	client := shardclient.NewInMemoryShardClient()
	coordDirectory := directory.NewStaticDirectory(func(directory.ShardEndpoint) (accesscontrol.ShardClient, error) {
		return client, nil
	})

	configPath := writeSingleShardConfig(t, "http://unused.invalid")
	cfg, err := directory.LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("failed to load config fixture: %v", err)
	}
	if err := coordDirectory.RefreshConfiguration(context.Background(), cfg); err != nil {
		t.Fatalf("failed to apply config fixture: %v", err)
	}

	c := coordinator.New(coordDirectory, metrics.NewRecordingLogger())

	mux := http.NewServeMux()
	registerOperationRoutes(mux, c)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)
	defer srv.Shutdown(context.Background())
	time.Sleep(10 * time.Millisecond)

	base := "http://" + listener.Addr().String()

	post := func(path string, req, resp any) int {
		var body bytes.Buffer
		if req != nil {
			if err := json.NewEncoder(&body).Encode(req); err != nil {
				t.Fatalf("failed to encode request for %s: %v", path, err)
			}
		}
		r, err := http.Post(base+path, "application/json", &body)
		if err != nil {
			t.Fatalf("POST %s failed: %v", path, err)
		}
		defer r.Body.Close()
		if resp != nil && r.StatusCode < 300 {
			if err := json.NewDecoder(r.Body).Decode(resp); err != nil {
				t.Fatalf("failed to decode response from %s: %v", path, err)
			}
		}
		return r.StatusCode
	}

	if status := post("/users/add", map[string]string{"User": "alice"}, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 from /users/add, got %d", status)
	}

	var contains map[string]bool
	if status := post("/users/contains", map[string]string{"User": "alice"}, &contains); status != http.StatusOK {
		t.Fatalf("expected 200 from /users/contains, got %d", status)
	}
	if !contains["value"] {
		t.Error("expected ContainsUser to report true for alice")
	}

	if status := post("/groups/add", map[string]string{"Group": "admins"}, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 from /groups/add, got %d", status)
	}

	if status := post("/user-to-group/add", map[string]string{"User": "alice", "Group": "admins"}, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 from /user-to-group/add, got %d", status)
	}

	var groups map[string][]string
	if status := post("/user-to-group/list", map[string]any{"User": "alice", "Indirect": false}, &groups); status != http.StatusOK {
		t.Fatalf("expected 200 from /user-to-group/list, got %d", status)
	}
	if len(groups["values"]) != 1 || groups["values"][0] != "admins" {
		t.Errorf("expected [admins], got %v", groups["values"])
	}

	if err := client.AddUser(context.Background(), "bob"); err != nil {
		t.Fatalf("failed to seed bob directly on the shard: %v", err)
	}
	var seeded map[string]bool
	if status := post("/users/contains", map[string]string{"User": "bob"}, &seeded); status != http.StatusOK || !seeded["value"] {
		t.Fatalf("expected ContainsUser(bob) true after direct seed, got status=%d body=%v", status, seeded)
	}
}

func TestCoordinatorNotFoundMapsTo404(t *testing.T) {
	client := shardclient.NewInMemoryShardClient()
	coordDirectory := directory.NewStaticDirectory(func(directory.ShardEndpoint) (accesscontrol.ShardClient, error) {
		return client, nil
	})
	configPath := writeSingleShardConfig(t, "http://unused.invalid")
	cfg, err := directory.LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("failed to load config fixture: %v", err)
	}
	if err := coordDirectory.RefreshConfiguration(context.Background(), cfg); err != nil {
		t.Fatalf("failed to apply config fixture: %v", err)
	}

	c := coordinator.New(coordDirectory, metrics.NewRecordingLogger())
	mux := http.NewServeMux()
	registerOperationRoutes(mux, c)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)
	defer srv.Shutdown(context.Background())
	time.Sleep(10 * time.Millisecond)

	var body bytes.Buffer
	json.NewEncoder(&body).Encode(map[string]any{"User": "nobody", "Indirect": false})
	resp, err := http.Post("http://"+listener.Addr().String()+"/user-to-group/list", "application/json", &body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for listing groups of an unknown user, got %d", resp.StatusCode)
	}
}
