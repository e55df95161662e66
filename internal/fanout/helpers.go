package fanout

import "github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"

// FatalOnly is the ClassifyFunc for fan-outs where every shard error is
// fatal — the common case for writes and for list reads with no documented
// benign-error policy (spec §4.5: "anything not listed is Fatal").
func FatalOnly(err error) Classification {
	return Fatal
}

// WrapShardError builds a WrapFunc that produces the generic
// *accesscontrol.ShardOperationError of spec §4.3/§7, with verb/object/key
// fixed for one operation and the failing shard's description/cause filled
// in per call.
func WrapShardError(verb, object, key, preposition string) WrapFunc {
	return func(ref accesscontrol.ShardRef, cause error) error {
		return accesscontrol.NewShardOperationError(verb, object, key, preposition, ref.Description, cause)
	}
}
