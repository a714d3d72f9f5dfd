package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	TCPAccepted      prometheus.Counter
	TCPBytesReceived prometheus.Counter
	ConnActive       prometheus.Gauge
	FramesDecoded    *prometheus.CounterVec // labels: kind=status|beacon_scan|parse_error|unknown_header
	SensorSightings  prometheus.Counter
	BeaconEvents     *prometheus.CounterVec // labels: kind=sighting|ignition_change
	SinkErrors       *prometheus.CounterVec // labels: sink
	MessageHistory   prometheus.Gauge
	EventHistory     prometheus.Gauge
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		TCPAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_accept_total",
			Help: "Total accepted TCP connections.",
		}),
		TCPBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_bytes_received_total",
			Help: "Total bytes received over TCP.",
		}),
		ConnActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcp_connections_active",
			Help: "Currently open TCP connections.",
		}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suntech_decode_total",
			Help: "Decoded frames by result kind.",
		}, []string{"kind"}),
		SensorSightings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "suntech_sensor_sightings_total",
			Help: "Beacon sensor sightings extracted from scan reports.",
		}),
		BeaconEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suntech_beacon_events_total",
			Help: "Enriched events emitted by the session tracker.",
		}, []string{"kind"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suntech_sink_errors_total",
			Help: "Event sink write failures.",
		}, []string{"sink"}),
		MessageHistory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "suntech_message_history_size",
			Help: "Raw report entries currently held in the bounded history.",
		}),
		EventHistory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "suntech_event_history_size",
			Help: "Enriched events currently held in the bounded history.",
		}),
	}
	reg.MustRegister(m.TCPAccepted, m.TCPBytesReceived, m.ConnActive, m.FramesDecoded,
		m.SensorSightings, m.BeaconEvents, m.SinkErrors, m.MessageHistory, m.EventHistory)
	return m
}
