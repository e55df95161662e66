// Package metrics implements the Metric Harness of spec §4.2: the scoped
// begin/end/cancel timers and counters wrapped around every public
// operation.
//
// # Contract
//
// Every public operation opens exactly one Token with Begin and closes it
// with exactly one of End (success) or CancelBegin (any surfaced error) —
// spec invariant I2. No other terminal transition is legal. Some queries
// additionally Add a gauge value (e.g. "groups mapped to user", "group
// shards queried").
//
// Two implementations are provided: RecordingLogger, an in-memory logger
// tests use to assert the Begin/End/CancelBegin pairing property, and
// PrometheusLogger, which wires github.com/prometheus/client_golang for a
// host that wants real metric emission — the concrete implementation spec §1
// describes only by contract ("Metric storage/emission ... out of scope").
package metrics
