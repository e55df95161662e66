package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
)

func TestNewShardHealthMonitor(t *testing.T) {
	monitor := NewShardHealthMonitor(5 * time.Second)
	defer monitor.Stop()

	assert.NotNil(t, monitor)
	assert.Equal(t, 5*time.Second, monitor.interval)
	assert.Equal(t, 2*time.Second, monitor.timeout)
	assert.Equal(t, 3, monitor.maxFailures)
	assert.NotNil(t, monitor.shards)
	assert.NotNil(t, monitor.httpClient)
	assert.NotNil(t, monitor.ctx)
	assert.NotNil(t, monitor.cancel)
	assert.Len(t, monitor.shards, 0)
}

func TestShardHealthMonitorStart(t *testing.T) {
	monitor := NewShardHealthMonitor(100 * time.Millisecond)
	defer monitor.Stop()

	checkCalls := 0
	var mu sync.Mutex
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		checkCalls++
		mu.Unlock()
		return nil
	})

	shardProvider := func() []directory.ShardEndpoint {
		return []directory.ShardEndpoint{
			{Description: "shard-1", Address: "http://localhost:8081"},
			{Description: "shard-2", Address: "http://localhost:8082"},
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, shardProvider)

	time.Sleep(350 * time.Millisecond)

	mu.Lock()
	calls := checkCalls
	mu.Unlock()
	assert.GreaterOrEqual(t, calls, 6, "expected at least 6 health checks")

	allHealth := monitor.GetAllShardHealth()
	assert.Len(t, allHealth, 2)
	assert.Contains(t, allHealth, "shard-1")
	assert.Contains(t, allHealth, "shard-2")

	assert.True(t, monitor.IsHealthy("shard-1"))
	assert.True(t, monitor.IsHealthy("shard-2"))
}

func TestShardHealthMonitorFailure(t *testing.T) {
	monitor := NewShardHealthMonitor(50 * time.Millisecond)
	defer monitor.Stop()

	failingShards := make(map[string]bool)
	var mu sync.Mutex
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		defer mu.Unlock()
		if (addr == "http://localhost:8081" || addr == "localhost:8081") && failingShards["shard-1"] {
			return fmt.Errorf("shard is down")
		}
		return nil
	})

	unhealthyCalls := []string{}
	monitor.SetOnUnhealthy(func(description string) {
		mu.Lock()
		unhealthyCalls = append(unhealthyCalls, description)
		mu.Unlock()
	})

	shardProvider := func() []directory.ShardEndpoint {
		return []directory.ShardEndpoint{
			{Description: "shard-1", Address: "http://localhost:8081"},
			{Description: "shard-2", Address: "http://localhost:8082"},
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, shardProvider)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, monitor.IsHealthy("shard-1"))
	assert.True(t, monitor.IsHealthy("shard-2"))

	mu.Lock()
	failingShards["shard-1"] = true
	mu.Unlock()

	time.Sleep(250 * time.Millisecond)

	assert.False(t, monitor.IsHealthy("shard-1"))
	assert.True(t, monitor.IsHealthy("shard-2"))

	mu.Lock()
	assert.Contains(t, unhealthyCalls, "shard-1")
	mu.Unlock()

	health := monitor.GetShardHealth("shard-1")
	require.NotNil(t, health)
	assert.Equal(t, "unhealthy", health.Status)
	assert.GreaterOrEqual(t, health.ConsecutiveFails, 3)
}

func TestShardHealthMonitorRecovery(t *testing.T) {
	monitor := NewShardHealthMonitor(50 * time.Millisecond)
	defer monitor.Stop()

	healthy := true
	var mu sync.Mutex
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		defer mu.Unlock()
		if (addr == "http://localhost:8081" || addr == "localhost:8081") && !healthy {
			return fmt.Errorf("shard is down")
		}
		return nil
	})

	shardProvider := func() []directory.ShardEndpoint {
		return []directory.ShardEndpoint{
			{Description: "shard-1", Address: "http://localhost:8081"},
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, shardProvider)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, monitor.IsHealthy("shard-1"))

	mu.Lock()
	healthy = false
	mu.Unlock()

	time.Sleep(250 * time.Millisecond)
	assert.False(t, monitor.IsHealthy("shard-1"))

	mu.Lock()
	healthy = true
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	assert.True(t, monitor.IsHealthy("shard-1"))

	health := monitor.GetShardHealth("shard-1")
	require.NotNil(t, health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 0, health.ConsecutiveFails)
}

func TestShardHealthMonitorRemoval(t *testing.T) {
	monitor := NewShardHealthMonitor(50 * time.Millisecond)
	defer monitor.Stop()

	monitor.SetCheckFunction(func(addr string) error { return nil })

	var shards []directory.ShardEndpoint
	var mu sync.Mutex
	shardProvider := func() []directory.ShardEndpoint {
		mu.Lock()
		defer mu.Unlock()
		return shards
	}

	mu.Lock()
	shards = []directory.ShardEndpoint{
		{Description: "shard-1", Address: "http://localhost:8081"},
		{Description: "shard-2", Address: "http://localhost:8082"},
	}
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, shardProvider)

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, monitor.GetAllShardHealth(), 2)

	mu.Lock()
	shards = []directory.ShardEndpoint{
		{Description: "shard-1", Address: "http://localhost:8081"},
	}
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	allHealth := monitor.GetAllShardHealth()
	assert.Len(t, allHealth, 1)
	assert.Contains(t, allHealth, "shard-1")
	assert.NotContains(t, allHealth, "shard-2")
}

func TestShardHealthMonitorStop(t *testing.T) {
	monitor := NewShardHealthMonitor(50 * time.Millisecond)

	running := true
	checkCount := 0
	var mu sync.Mutex
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		defer mu.Unlock()
		checkCount++
		return nil
	})

	shardProvider := func() []directory.ShardEndpoint {
		mu.Lock()
		defer mu.Unlock()
		if running {
			return []directory.ShardEndpoint{{Description: "shard-1", Address: "http://localhost:8081"}}
		}
		return nil
	}

	go monitor.Start(nil, shardProvider)

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	checksBeforeStop := checkCount
	mu.Unlock()

	mu.Lock()
	running = false
	mu.Unlock()
	monitor.Stop()

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	checksAfterStop := checkCount
	mu.Unlock()

	assert.Greater(t, checksBeforeStop, 0)
	assert.Equal(t, checksBeforeStop, checksAfterStop)
}

func TestShardHealthMonitorUnhealthyCallbackFiresOnce(t *testing.T) {
	monitor := NewShardHealthMonitor(50 * time.Millisecond)
	defer monitor.Stop()

	failCount := 0
	var mu sync.Mutex
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		defer mu.Unlock()
		if failCount < 3 {
			failCount++
			return fmt.Errorf("failing")
		}
		return nil
	})

	callbackCount := 0
	var callbackMu sync.Mutex
	monitor.SetOnUnhealthy(func(description string) {
		callbackMu.Lock()
		callbackCount++
		callbackMu.Unlock()
	})

	shardProvider := func() []directory.ShardEndpoint {
		return []directory.ShardEndpoint{{Description: "shard-1", Address: "http://localhost:8081"}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, shardProvider)

	time.Sleep(250 * time.Millisecond)

	callbackMu.Lock()
	assert.Equal(t, 1, callbackCount)
	callbackMu.Unlock()

	time.Sleep(150 * time.Millisecond)

	callbackMu.Lock()
	assert.Equal(t, 1, callbackCount)
	callbackMu.Unlock()
}
