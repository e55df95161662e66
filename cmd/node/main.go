// Package main implements a shard node: a process that owns one shard's
// worth of access-control data (a slice of Users, Groups, or
// GroupToGroupMappings) and exposes it over the wire contract
// internal/shardserver hosts, the same contract internal/shardclient's
// HTTPShardClient speaks against as a client.
//
// Unlike the coordinator, a shard node has no knowledge of the other shards
// in the system — it is purely the thing a directory.ShardEndpoint points
// at. Shard topology lives in the coordinator's configuration file, not in
// a registration handshake, so this process never dials out on startup.
//
// Configuration:
//   - SHARD_LISTEN: listen address (default ":8081")
//   - SHARD_DESCRIPTION: human-readable label for this shard's logs (default
//     "shard")
//
// Example usage:
//
//	SHARD_LISTEN=:8081 SHARD_DESCRIPTION=user-shard-0 ./node
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/shardclient"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/shardserver"
)

// logFatal is a variable so tests can intercept a fatal configuration error
// without killing the test process.
var logFatal = log.Fatalf

func main() {
	listen := getenv("SHARD_LISTEN", ":8081")
	description := getenv("SHARD_DESCRIPTION", "shard")

	client := shardclient.NewInMemoryShardClient()
	handler := shardserver.NewHandler(client)

	s := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", description, listen)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("%s stopped", description)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
