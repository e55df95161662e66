package directory

import (
	"context"
	"testing"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

type stubShardClient struct {
	accesscontrol.ShardClient
}

func stubFactory(ep ShardEndpoint) (accesscontrol.ShardClient, error) {
	return stubShardClient{}, nil
}

func testConfig() Config {
	userEndpoints := []ShardEndpoint{
		{Description: "user-shard-0", Address: "http://u0"},
		{Description: "user-shard-1", Address: "http://u1"},
	}
	groupEndpoints := []ShardEndpoint{
		{Description: "group-shard-0", Address: "http://g0"},
	}
	return Config{
		UserShards:         ElementShards{Query: userEndpoints, Event: userEndpoints},
		GroupShards:        ElementShards{Query: groupEndpoints, Event: groupEndpoints},
		GroupToGroupShards: ElementShards{Query: groupEndpoints, Event: groupEndpoints},
	}
}

func TestStaticDirectory_GetClient_Deterministic(t *testing.T) {
	d := NewStaticDirectory(stubFactory)
	if err := d.RefreshConfiguration(context.Background(), testConfig()); err != nil {
		t.Fatalf("RefreshConfiguration: %v", err)
	}

	first, err := d.GetClient(context.Background(), accesscontrol.User, accesscontrol.Query, "user1")
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	second, err := d.GetClient(context.Background(), accesscontrol.User, accesscontrol.Query, "user1")
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if first.Description != second.Description {
		t.Fatalf("expected deterministic routing, got %q then %q", first.Description, second.Description)
	}
}

func TestStaticDirectory_GetAllClients_UnconfiguredElement(t *testing.T) {
	d := NewStaticDirectory(stubFactory)
	if _, err := d.GetAllClients(context.Background(), accesscontrol.User, accesscontrol.Query); err == nil {
		t.Fatal("expected error for unconfigured element")
	}
}

func TestStaticDirectory_GetClients_PartitionsKeys(t *testing.T) {
	d := NewStaticDirectory(stubFactory)
	if err := d.RefreshConfiguration(context.Background(), testConfig()); err != nil {
		t.Fatalf("RefreshConfiguration: %v", err)
	}

	keys := []string{"group1", "group2", "group3", "group4", "group5"}
	buckets, err := d.GetClients(context.Background(), accesscontrol.GroupToGroupMapping, accesscontrol.Query, keys)
	if err != nil {
		t.Fatalf("GetClients: %v", err)
	}

	seen := make(map[string]bool)
	total := 0
	for _, b := range buckets {
		for _, k := range b.Keys {
			if seen[k] {
				t.Fatalf("key %q appeared in more than one bucket", k)
			}
			seen[k] = true
			total++
		}
	}
	if total != len(keys) {
		t.Fatalf("expected %d keys partitioned, got %d", len(keys), total)
	}
}

func TestStaticDirectory_RefreshConfiguration_LeavesPriorTableOnFailure(t *testing.T) {
	failingFactory := func(ep ShardEndpoint) (accesscontrol.ShardClient, error) {
		if ep.Description == "bad" {
			return nil, context.DeadlineExceeded
		}
		return stubShardClient{}, nil
	}
	d := NewStaticDirectory(failingFactory)
	if err := d.RefreshConfiguration(context.Background(), testConfig()); err != nil {
		t.Fatalf("initial RefreshConfiguration: %v", err)
	}

	badConfig := Config{
		UserShards: ElementShards{
			Query: []ShardEndpoint{{Description: "bad"}},
			Event: []ShardEndpoint{{Description: "bad"}},
		},
	}
	err := d.RefreshConfiguration(context.Background(), badConfig)
	if err == nil {
		t.Fatal("expected refresh to fail")
	}
	var cfgErr *accesscontrol.ConfigurationRefreshError
	if !isConfigurationRefreshError(err, &cfgErr) {
		t.Fatalf("expected *accesscontrol.ConfigurationRefreshError, got %T", err)
	}

	// Prior table must still be intact.
	if _, err := d.GetAllClients(context.Background(), accesscontrol.User, accesscontrol.Query); err != nil {
		t.Fatalf("expected prior table to remain usable, got error: %v", err)
	}
}

func isConfigurationRefreshError(err error, target **accesscontrol.ConfigurationRefreshError) bool {
	e, ok := err.(*accesscontrol.ConfigurationRefreshError)
	if ok {
		*target = e
	}
	return ok
}
