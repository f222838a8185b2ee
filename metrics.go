package h2wire

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the optional set of counters/gauges a Connection reports to,
// mirroring packetd-packetd's controller/metrics.go layout but built
// against an injectable *prometheus.Registry instead of the default global
// one, so a host embedding several connections' worth of metrics controls
// where they land.
type Metrics struct {
	framesReceived *prometheus.CounterVec
	framesSent     *prometheus.CounterVec
	dynTableSize   *prometheus.GaugeVec
	goAwaysTotal   prometheus.Counter
}

// NewMetrics registers h2wire's collectors on reg and returns a Metrics
// ready to pass to Config.Metrics. A nil reg is valid and yields a Metrics
// whose methods are no-ops.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2wire",
			Name:      "frames_received_total",
			Help:      "Frames received, by type.",
		}, []string{"type"}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2wire",
			Name:      "frames_sent_total",
			Help:      "Frames sent, by type.",
		}, []string{"type"}),
		dynTableSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "h2wire",
			Name:      "dynamic_table_size_bytes",
			Help:      "HPACK dynamic table size in bytes, by direction.",
		}, []string{"direction"}),
		goAwaysTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "h2wire",
			Name:      "goaways_total",
			Help:      "GOAWAY frames sent or received.",
		}),
	}

	reg.MustRegister(m.framesReceived, m.framesSent, m.dynTableSize, m.goAwaysTotal)
	return m
}

func (m *Metrics) observeReceived(t FrameType) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) observeSent(t FrameType) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) observeDynTableSize(direction string, size int) {
	if m == nil {
		return
	}
	m.dynTableSize.WithLabelValues(direction).Set(float64(size))
}

func (m *Metrics) observeGoAway() {
	if m == nil {
		return
	}
	m.goAwaysTotal.Inc()
}
