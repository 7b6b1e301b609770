package metrics

import "github.com/prometheus/client_golang/prometheus"

// PollMetrics exposes counters for the authenticate/poll loop.
type PollMetrics struct {
	authTotal    *prometheus.CounterVec
	queryTotal   *prometheus.CounterVec
	viableTotal  *prometheus.CounterVec
	attempts     prometheus.Gauge
	uptime       prometheus.Gauge
	queryLatency *prometheus.HistogramVec
}

func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	m := &PollMetrics{
		authTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vicroadsq",
			Subsystem: "portal",
			Name:      "authentications_total",
			Help:      "Total authentication handshakes by result",
		}, []string{"result"}),
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vicroadsq",
			Subsystem: "portal",
			Name:      "queries_total",
			Help:      "Total appointment queries by office and status",
		}, []string{"office", "status"}),
		viableTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vicroadsq",
			Subsystem: "portal",
			Name:      "viable_slots_total",
			Help:      "Total viable slots seen per office",
		}, []string{"office"}),
		attempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vicroadsq",
			Subsystem: "retry",
			Name:      "attempts",
			Help:      "Consecutive failed attempts since the last success",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vicroadsq",
			Name:      "uptime_seconds",
			Help:      "Seconds since the run started",
		}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vicroadsq",
			Subsystem: "portal",
			Name:      "query_latency_seconds",
			Help:      "Latency of appointment queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"office"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.authTotal, m.queryTotal, m.viableTotal, m.attempts, m.uptime, m.queryLatency)
	return m
}

func (m *PollMetrics) ObserveAuth(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "ok"
	}
	m.authTotal.WithLabelValues(result).Inc()
}

func (m *PollMetrics) ObserveQuery(office, status string, seconds float64) {
	if m == nil {
		return
	}
	m.queryTotal.WithLabelValues(office, status).Inc()
	m.queryLatency.WithLabelValues(office).Observe(seconds)
}

func (m *PollMetrics) ObserveViable(office string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.viableTotal.WithLabelValues(office).Add(float64(n))
}

func (m *PollMetrics) SetAttempts(n int) {
	if m == nil {
		return
	}
	m.attempts.Set(float64(n))
}

func (m *PollMetrics) SetUptime(seconds float64) {
	if m == nil {
		return
	}
	m.uptime.Set(seconds)
}
