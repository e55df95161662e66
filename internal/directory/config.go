package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// Config is the YAML-decodable shape describing shard-to-client assignments
// per data element and operation kind. A host process loads this from disk
// (see internal/config) and hands it to ShardDirectory.RefreshConfiguration.
//
// Example file:
//
//	userShards:
//	  query:
//	    - description: "user-shard-0"
//	      address: "http://user0.internal:8080"
//	    - description: "user-shard-1"
//	      address: "http://user1.internal:8080"
//	  event:
//	    - description: "user-shard-0"
//	      address: "http://user0.internal:8080"
//	groupShards: {...}
//	groupToGroupShards: {...}
type Config struct {
	UserShards           ElementShards `yaml:"userShards"`
	GroupShards          ElementShards `yaml:"groupShards"`
	GroupToGroupShards   ElementShards `yaml:"groupToGroupShards"`
}

// ElementShards is the per-operation shard list for one DataElement.
type ElementShards struct {
	Query []ShardEndpoint `yaml:"query"`
	Event []ShardEndpoint `yaml:"event"`
}

// ShardEndpoint describes one shard entry in the configuration file: its
// human-readable description (round-tripped into error messages, spec §3)
// and the address used to construct the backing ShardClient.
type ShardEndpoint struct {
	Description string `yaml:"description"`
	Address     string `yaml:"address"`
}

// LoadConfigFile reads and parses a Config from a YAML file.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read directory config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse directory config %q: %w", path, err)
	}
	return cfg, nil
}

// AllShardEndpoints flattens every Query and Event endpoint across all three
// DataElements into one deduplicated list, keyed by Description. It is the
// shape the health-check shardProvider that cmd/coordinator hands to
// coordinator.ShardHealthMonitor needs: one health
// check per physical shard process, not one per (element, operation) slot
// that happens to name it.
func (c Config) AllShardEndpoints() []ShardEndpoint {
	seen := make(map[string]struct{})
	var all []ShardEndpoint
	for _, es := range []ElementShards{c.UserShards, c.GroupShards, c.GroupToGroupShards} {
		for _, list := range [][]ShardEndpoint{es.Query, es.Event} {
			for _, ep := range list {
				if _, ok := seen[ep.Description]; ok {
					continue
				}
				seen[ep.Description] = struct{}{}
				all = append(all, ep)
			}
		}
	}
	return all
}

// shardsFor returns the configured endpoint list for (de, op).
func (c Config) shardsFor(de accesscontrol.DataElement, op accesscontrol.Operation) []ShardEndpoint {
	var es ElementShards
	switch de {
	case accesscontrol.User:
		es = c.UserShards
	case accesscontrol.Group:
		es = c.GroupShards
	case accesscontrol.GroupToGroupMapping:
		es = c.GroupToGroupShards
	}
	if op == accesscontrol.Event {
		return es.Event
	}
	return es.Query
}
