package fanout

import (
	"context"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// UnionStringsCombiner implements the UnionStrings aggregation shape of
// spec §4.3: set-union over string, used by list queries (GetUsers,
// GetGroups, Get...Mappings list form, ...).
func UnionStringsCombiner() Combiner[accesscontrol.StringSet] {
	return Combiner[accesscontrol.StringSet]{
		Zero: accesscontrol.NewStringSet(),
		Combine: func(acc, partial accesscontrol.StringSet) accesscontrol.StringSet {
			acc.AddAll(partial)
			return acc
		},
	}
}

// UnionPairsCombiner implements the UnionPairs aggregation shape of spec
// §4.3: set-union over (string,string), used by
// GetUserToEntityMappings(user), GetApplicationComponentsAccessibleByUser,
// and similar.
func UnionPairsCombiner() Combiner[accesscontrol.PairSet] {
	return Combiner[accesscontrol.PairSet]{
		Zero: accesscontrol.NewPairSet(),
		Combine: func(acc, partial accesscontrol.PairSet) accesscontrol.PairSet {
			acc.AddAll(partial)
			return acc
		},
	}
}

// OrBoolCombiner implements the OrBool aggregation shape of spec §4.3:
// boolean OR with short-circuit, used by ContainsUser/Group/EntityType/
// Entity and HasAccessTo... The first true from any shard cancels peers and
// becomes the result (spec §4.3 step 5, §8 property P3: no later shard can
// flip the answer back to false).
func OrBoolCombiner() Combiner[bool] {
	return Combiner[bool]{
		Zero: false,
		Combine: func(acc, partial bool) bool {
			return acc || partial
		},
		ShortCircuit: func(acc bool) bool {
			return acc
		},
	}
}

// allResult is the void aggregate of the All shape: every task must
// succeed, there is nothing to combine.
type allResult struct{}

// AllCombiner implements the All aggregation shape of spec §4.3: every task
// must succeed, the aggregate is void. Used by broadcast writes (AddGroup,
// AddEntityType, RemoveEntityType, ...).
func AllCombiner() Combiner[allResult] {
	return Combiner[allResult]{
		Zero: allResult{},
		Combine: func(acc, partial allResult) allResult {
			return acc
		},
	}
}

// ExecuteAll is a convenience wrapper around Execute for broadcast writes,
// where the per-shard call has no result value to aggregate and callers
// only care whether every shard succeeded (spec §4.3's All shape).
func ExecuteAll(
	ctx context.Context,
	shards []accesscontrol.ShardRef,
	classify ClassifyFunc,
	wrap WrapFunc,
	call func(ctx context.Context, ref accesscontrol.ShardRef) error,
) error {
	_, err := Execute(ctx, shards, classify, wrap,
		func(ctx context.Context, ref accesscontrol.ShardRef) (allResult, error) {
			return allResult{}, call(ctx, ref)
		},
		AllCombiner(),
	)
	return err
}
