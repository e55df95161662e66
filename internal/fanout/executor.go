package fanout

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// Classification is the caller's verdict on a shard error: Fatal aborts the
// whole fan-out (spec §4.3 step 2), Benign means "this shard contributes
// nothing, keep going" (spec §4.3 step 3).
type Classification int

const (
	Fatal Classification = iota
	Benign
)

// ClassifyFunc is supplied by the caller (ultimately the per-operation
// policy table of spec §4.5) to tell Execute how to treat a given shard
// error. Execute never inspects error types itself — it only ever sees the
// two-way Fatal/Benign verdict this function returns, which is what spec §9
// means by "never catch(Exception) in aggregation code".
type ClassifyFunc func(err error) Classification

// WrapFunc builds the error surfaced to the caller for a Fatal shard
// failure. Implementations return an *accesscontrol.ShardOperationError with
// the verb/object/key baked in for the operation being executed (spec §4.3
// step 2, §7).
type WrapFunc func(ref accesscontrol.ShardRef, cause error) error

// Combiner describes an associative, commutative aggregation over partial
// per-shard results (spec §4.3 step 4). ShortCircuit, if non-nil, is
// evaluated after every successful combine; when it returns true the
// fan-out cancels the context of the calls still running, ignores their
// results, and returns the accumulated value once they have returned (spec
// §4.3 step 5, the OrBool shape).
type Combiner[T any] struct {
	Zero         T
	Combine      func(acc, partial T) T
	ShortCircuit func(acc T) bool
}

// errShortCircuited is the internal sentinel used to unwind the errgroup
// early on a short-circuit hit without it being mistaken for a Fatal shard
// failure.
var errShortCircuited = errors.New("fanout: short-circuited")

// Execute runs call concurrently against every shard in shards — one
// goroutine per shard, no sequential chaining (spec §4.3 step 1) — and
// aggregates the results with combiner.
//
// On the first Fatal error, Execute cancels every outstanding peer task (via
// the errgroup-derived context passed to subsequent call invocations),
// discards any already-computed partials, and returns the error built by
// wrap (spec §4.3 step 2). Benign errors contribute nothing and do not
// affect the other shards (spec §4.3 step 3). If combiner.ShortCircuit
// fires, Execute cancels peers and returns the accumulated value
// immediately as a success (spec §4.3 step 5) — callers (the metric
// harness) must still record this as a successful terminal.
func Execute[T any](
	ctx context.Context,
	shards []accesscontrol.ShardRef,
	classify ClassifyFunc,
	wrap WrapFunc,
	call func(ctx context.Context, ref accesscontrol.ShardRef) (T, error),
	combiner Combiner[T],
) (T, error) {
	if len(shards) == 0 {
		return combiner.Zero, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	acc := combiner.Zero
	shortCircuited := false

	for _, ref := range shards {
		ref := ref
		g.Go(func() error {
			partial, err := call(gctx, ref)
			if err != nil {
				if classify(err) == Benign {
					return nil
				}
				return wrap(ref, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if shortCircuited {
				return nil
			}
			acc = combiner.Combine(acc, partial)
			if combiner.ShortCircuit != nil && combiner.ShortCircuit(acc) {
				shortCircuited = true
				return errShortCircuited
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, errShortCircuited) {
			mu.Lock()
			defer mu.Unlock()
			return acc, nil
		}
		// combiner.Zero may be the very set the partials were merged into.
		var zero T
		return zero, err
	}

	mu.Lock()
	defer mu.Unlock()
	return acc, nil
}
