package fanout

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
)

// ExecuteBuckets is the bucketed counterpart to Execute: instead of running
// the same zero-argument call against a flat shard list, each task receives
// the accesscontrol.ShardBucket the Directory partitioned a key set into
// (spec §4.4 Phase 2 and Phase 3 both partition a working set by ownership
// before fanning out). The cancellation, classification and aggregation
// rules are identical to Execute.
func ExecuteBuckets[T any](
	ctx context.Context,
	buckets []accesscontrol.ShardBucket,
	classify ClassifyFunc,
	wrap WrapFunc,
	call func(ctx context.Context, bucket accesscontrol.ShardBucket) (T, error),
	combiner Combiner[T],
) (T, error) {
	if len(buckets) == 0 {
		return combiner.Zero, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	acc := combiner.Zero
	shortCircuited := false
	for _, bucket := range buckets {
		bucket := bucket
		g.Go(func() error {
			partial, err := call(gctx, bucket)
			if err != nil {
				if classify(err) == Benign {
					return nil
				}
				return wrap(bucket.Ref, err)
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
		var zero T
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return acc, nil
}
