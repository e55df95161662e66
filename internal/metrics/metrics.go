package metrics

import (
	"github.com/google/uuid"
)

// Token is an opaque id returned by Begin and consumed by exactly one of
// End or CancelBegin. It lives only from Begin to its terminal transition
// (spec §3 "Lifecycles").
type Token uuid.UUID

// MetricLogger is the consumed metric contract of spec §4.2/§6. Begin opens
// a scoped timer for tag; End closes it successfully; CancelBegin closes it
// on failure. Increment and Add record free-standing counters and gauges;
// Scope pairs every End with an Increment of the same tag.
type MetricLogger interface {
	Begin(tag string) (Token, error)
	End(id Token, tag string)
	CancelBegin(id Token, tag string)
	Increment(tag string)
	Add(tag string, n int64)
}

// Scope begins tag on logger and returns a finish function. Call finish
// exactly once, passing the address of the named error return value of the
// enclosing operation (or nil if the operation has no error return) so that
// a single defer guarantees the End/CancelBegin pairing on every exit path,
// including early returns and panics that are recovered upstream.
//
// Example:
//
//	func (c *Coordinator) GetUsers(ctx context.Context) (_ accesscontrol.StringSet, err error) {
//	    defer metrics.Scope(c.metrics, "GetUsers")(&err)
//	    ...
//	}
func Scope(logger MetricLogger, tag string) func(errp *error) {
	id, err := logger.Begin(tag)
	if err != nil {
		// Begin itself failed: there is no token to close, so there is
		// nothing further for the deferred finisher to do.
		return func(*error) {}
	}
	return func(errp *error) {
		if errp != nil && *errp != nil {
			logger.CancelBegin(id, tag)
			return
		}
		logger.End(id, tag)
		logger.Increment(tag)
	}
}
