package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PrometheusLogger is a production MetricLogger implementation backed by
// github.com/prometheus/client_golang, the metrics library
// jordigilh-kubernaut wires throughout its service tree. It is the concrete
// implementation a hosting layer plugs in where tests use RecordingLogger.
//
// Structured logging of Begin/End/CancelBegin pairing violations uses
// go.uber.org/zap, since a duration histogram alone can't explain *why* a
// scope never closed.
type PrometheusLogger struct {
	duration *prometheus.HistogramVec
	counter  *prometheus.CounterVec
	gauge    *prometheus.GaugeVec
	log      *zap.Logger

	mu    sync.Mutex
	start map[Token]startedScope
}

type startedScope struct {
	tag string
	at  time.Time
}

// NewPrometheusLogger registers a duration histogram, a counter, and a gauge
// under the given namespace and returns a ready-to-use PrometheusLogger.
func NewPrometheusLogger(namespace string, registerer prometheus.Registerer, log *zap.Logger) *PrometheusLogger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &PrometheusLogger{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of coordinator operations, labeled by tag.",
		}, []string{"tag"}),
		counter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_total",
			Help:      "Count of successfully completed coordinator operations.",
		}, []string{"tag"}),
		gauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operation_gauge",
			Help:      "Ad-hoc gauge values reported by coordinator operations (e.g. groups mapped, shards queried).",
		}, []string{"tag"}),
		log:   log,
		start: make(map[Token]startedScope),
	}
	if registerer != nil {
		registerer.MustRegister(l.duration, l.counter, l.gauge)
	}
	return l
}

func (l *PrometheusLogger) Begin(tag string) (Token, error) {
	id := Token(uuid.New())
	l.mu.Lock()
	l.start[id] = startedScope{tag: tag, at: time.Now()}
	l.mu.Unlock()
	return id, nil
}

func (l *PrometheusLogger) End(id Token, tag string) {
	l.finish(id, tag, true)
}

func (l *PrometheusLogger) CancelBegin(id Token, tag string) {
	l.finish(id, tag, false)
}

func (l *PrometheusLogger) finish(id Token, tag string, success bool) {
	l.mu.Lock()
	scope, ok := l.start[id]
	delete(l.start, id)
	l.mu.Unlock()

	if !ok {
		l.log.Warn("metric scope closed without a matching Begin", zap.String("tag", tag))
		return
	}
	l.duration.WithLabelValues(tag).Observe(time.Since(scope.at).Seconds())
	if !success {
		l.log.Debug("operation cancelled", zap.String("tag", tag))
	}
}

func (l *PrometheusLogger) Increment(tag string) {
	l.counter.WithLabelValues(tag).Inc()
}

func (l *PrometheusLogger) Add(tag string, n int64) {
	l.gauge.WithLabelValues(tag).Add(float64(n))
}
