package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/packwire/internal/protocol"
	"github.com/danmuck/packwire/internal/protocol/frame"
	"github.com/danmuck/packwire/internal/protocol/packed"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "packwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	codecSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packwire",
			Subsystem: "codec",
			Name:      "sessions_total",
			Help:      "Packed stream sessions by direction and result.",
		},
		[]string{"node", "direction", "result"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packwire",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Bytes moved through packed stream sessions.",
		},
		[]string{"node", "direction", "form"},
	)
	codecRatio = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "packwire",
			Subsystem: "codec",
			Name:      "packed_ratio",
			Help:      "Packed size divided by unpacked size per session.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 12),
		},
		[]string{"node", "direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecSessions, codecBytes, codecRatio)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCodecSession(node string, dir packed.Direction, stats packed.Stats, err error) {
	RegisterMetrics()
	direction := string(dir)
	codecSessions.WithLabelValues(node, direction, ResultLabel(err)).Inc()
	codecBytes.WithLabelValues(node, direction, "packed").Add(float64(stats.PackedBytes))
	codecBytes.WithLabelValues(node, direction, "unpacked").Add(float64(stats.UnpackedBytes))
	if err == nil && stats.UnpackedBytes > 0 {
		codecRatio.WithLabelValues(node, direction).
			Observe(float64(stats.PackedBytes) / float64(stats.UnpackedBytes))
	}
}

// ResultLabel maps a codec session error to a bounded metric label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, packed.ErrMalformed):
		return "malformed"
	case errors.Is(err, packed.ErrUnaligned):
		return "unaligned"
	case errors.Is(err, packed.ErrIncomplete):
		return "incomplete"
	case errors.Is(err, frame.ErrTruncated),
		errors.Is(err, frame.ErrTooManySegments),
		errors.Is(err, frame.ErrMessageTooLarge),
		errors.Is(err, frame.ErrSegmentUnaligned),
		errors.Is(err, frame.ErrNoSegments),
		errors.Is(err, protocol.ErrTrailingData):
		return "framing"
	default:
		return "io"
	}
}

// CodecObserver records packed stream sessions under a node label.
type CodecObserver struct {
	Node string
}

var _ packed.Observer = CodecObserver{}

func (o CodecObserver) ObserveSession(dir packed.Direction, stats packed.Stats, err error) {
	RecordCodecSession(o.Node, dir, stats, err)
}
