// Package fanout implements the Fan-out Executor of spec §4.3: the engine
// that launches N concurrent shard RPCs, aggregates successes with
// associative/commutative combiners, short-circuits on the first fatal
// error or first boolean true, and cancels peers.
//
// # Architecture
//
// Built on golang.org/x/sync/errgroup, the structured-concurrency
// primitive spec §9's Design Notes ask for ("the source's async/await
// chains become a task-group primitive"). Each shard RPC runs as one
// errgroup.Group.Go task; errgroup.WithContext gives every task a context
// that is cancelled the instant any task returns a non-nil error, which is
// exactly the "first-failure wins... cancels all outstanding peer tasks"
// behavior of spec §4.3 step 2 — with one twist: not every shard error is
// fatal (spec §4.3 step 3, "benign-error tolerance"), so Execute classifies
// each error before deciding whether to let it propagate out of the
// errgroup task (which cancels peers) or swallow it locally (which doesn't).
//
// A single mutex-guarded accumulator collects successful partials, fed by
// each task directly — not by a result channel drained by a second
// goroutine — because errgroup.Group already serializes completion via
// Wait; the spec's Design Notes describe both shapes ("a mutex... or a
// result-collecting channel feeding a single aggregator goroutine") as
// acceptable, and the mutex form needs one fewer goroutine per fan-out.
package fanout
