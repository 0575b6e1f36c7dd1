// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/micro-ha/wol-server/internal/model"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	WakePackets       *prometheus.CounterVec
	Scans             *prometheus.CounterVec
	ScanCandidates    *prometheus.GaugeVec
	HTTPRequests      *prometheus.CounterVec
	RegisteredDevices prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WakePackets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wol_wake_packets_total",
				Help: "Magic packets handed to the network stack, by result.",
			},
			[]string{"result"},
		),
		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wol_scans_total",
				Help: "Network scan attempts, by command and result.",
			},
			[]string{"source", "result"},
		),
		ScanCandidates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wol_scan_candidates",
				Help: "Hosts found by the last successful scan, by command.",
			},
			[]string{"source"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wol_http_requests_total",
				Help: "HTTP requests served, by method and status code.",
			},
			[]string{"method", "status"},
		),
		RegisteredDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wol_registered_devices",
			Help: "Devices currently in the registry.",
		}),
	}
	m.registry.MustRegister(
		m.WakePackets,
		m.Scans,
		m.ScanCandidates,
		m.HTTPRequests,
		m.RegisteredDevices,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) WakeSent(_ model.WakeTarget, err error) {
	m.WakePackets.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ScanFinished(source string, found int, err error) {
	m.Scans.WithLabelValues(source, result(err)).Inc()
	if err == nil {
		m.ScanCandidates.WithLabelValues(source).Set(float64(found))
	}
}

func (m *Metrics) ObserveHTTP(method string, status int) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
