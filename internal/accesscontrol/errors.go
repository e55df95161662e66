package accesscontrol

import (
	"fmt"

	goerrors "github.com/go-faster/errors"
)

// UserNotFoundError indicates a shard reported that the named user does not
// exist. It is never wrapped: the same type, with the same payload, reaches
// the caller unchanged (spec §7).
type UserNotFoundError struct {
	User string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user '%s' does not exist", e.User)
}

// GroupNotFoundError indicates a shard reported that the named group does
// not exist.
type GroupNotFoundError struct {
	Group string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("group '%s' does not exist", e.Group)
}

// EntityTypeNotFoundError indicates a shard reported that the named entity
// type does not exist.
type EntityTypeNotFoundError struct {
	EntityType string
}

func (e *EntityTypeNotFoundError) Error() string {
	return fmt.Sprintf("entity type '%s' does not exist", e.EntityType)
}

// EntityNotFoundError indicates a shard reported that the named entity does
// not exist for the given entity type.
type EntityNotFoundError struct {
	EntityType string
	Entity     string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity '%s' of type '%s' does not exist", e.Entity, e.EntityType)
}

// ShardOperationError is the generic wrapped error of spec §4.3/§7: a shard
// RPC failed for a reason that is not one of the typed NotFound variants and
// not classified as benign. It carries the shard's description so the
// failure can be attributed, and retains the original shard error as Cause.
//
// Message shape follows the contract tests assert against:
//
//	"Failed to <verb> <object>[ for <key>] from/to/in shard with configuration '<description>'."
type ShardOperationError struct {
	Cause           error
	Verb            string
	Object          string
	Key             string
	Preposition     string // "from", "to", or "in"
	ShardDescription string
}

func (e *ShardOperationError) Error() string {
	key := ""
	if e.Key != "" {
		key = fmt.Sprintf(" for '%s'", e.Key)
	}
	return fmt.Sprintf("Failed to %s %s%s %s shard with configuration '%s'.",
		e.Verb, e.Object, key, e.Preposition, e.ShardDescription)
}

// Unwrap exposes Cause to errors.Is/errors.As.
func (e *ShardOperationError) Unwrap() error {
	return e.Cause
}

// NewShardOperationError builds a ShardOperationError. The original shard
// error is retained unmodified as Cause so that errors.Is/errors.As and
// direct identity comparisons in tests keep working (spec §7: "the original
// shard error is retained as cause").
func NewShardOperationError(verb, object, key, preposition, shardDescription string, cause error) *ShardOperationError {
	return &ShardOperationError{
		Cause:            cause,
		Verb:             verb,
		Object:           object,
		Key:              key,
		Preposition:      preposition,
		ShardDescription: shardDescription,
	}
}

// wrapInternal adds stack context to an error this package raises on its own
// behalf (as opposed to a shard-originated cause) using go-faster/errors,
// matching the wrapping idiom jordigilh-kubernaut uses instead of fmt.Errorf.
func wrapInternal(err error, context string) error {
	return goerrors.Wrap(err, context)
}

// ConfigurationRefreshError indicates RefreshConfiguration failed. The prior
// routing table is guaranteed untouched (spec §4.1, §7).
type ConfigurationRefreshError struct {
	Cause error
}

func (e *ConfigurationRefreshError) Error() string {
	return fmt.Sprintf("failed to refresh shard configuration: %v", e.Cause)
}

func (e *ConfigurationRefreshError) Unwrap() error {
	return e.Cause
}
