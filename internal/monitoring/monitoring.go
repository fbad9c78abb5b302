package monitoring

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

const namespace = "curecraft"

// Config holds monitoring configuration
type Config struct {
	LogLevel    string
	MetricsPath string
}

// Service records monitor health as Prometheus metrics.
type Service struct {
	config   Config
	gatherer prometheus.Gatherer

	events            *prometheus.CounterVec
	hubCommands       *prometheus.CounterVec
	attachedSensors   prometheus.Gauge
	streamClients     *prometheus.GaugeVec
	streamFrames      *prometheus.CounterVec
	telemetryMessages *prometheus.CounterVec
}

// NewService creates the metrics and registers them with reg. A nil reg
// gets a private registry, which keeps tests independent of each other.
func NewService(config Config, reg prometheus.Registerer) *Service {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Service{
		config: config,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Lifecycle events such as sensor attach and component shutdown.",
		}, []string{"event"}),
		hubCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_commands_total",
			Help:      "Commands sent to the sensor hub by outcome.",
		}, []string{"command", "result"}),
		attachedSensors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_attached_sensors",
			Help:      "Physical sensors attached at the last scan.",
		}),
		streamClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected streaming clients.",
		}, []string{"transport"}),
		streamFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_frames_total",
			Help:      "Frames delivered to streaming clients.",
		}, []string{"transport"}),
		telemetryMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_messages_total",
			Help:      "Telemetry messages by topic group and outcome.",
		}, []string{"group", "result"}),
	}
	reg.MustRegister(s.events, s.hubCommands, s.attachedSensors,
		s.streamClients, s.streamFrames, s.telemetryMessages)

	if g, ok := reg.(prometheus.Gatherer); ok {
		s.gatherer = g
	} else {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.events.WithLabelValues(eventName).Inc()
	nuts.L.Debugf("[Monitoring] Event %s recorded at %v with labels: %s", eventName, time.Now().Format(time.RFC3339), formatLabels(labels))
}

// ObserveCommand counts one hub command.
func (s *Service) ObserveCommand(command string, err error) {
	s.hubCommands.WithLabelValues(command, result(err)).Inc()
}

func (s *Service) SetAttached(n int) {
	s.attachedSensors.Set(float64(n))
}

func (s *Service) ClientConnected(transport string) {
	s.streamClients.WithLabelValues(transport).Inc()
}

func (s *Service) ClientDisconnected(transport string) {
	s.streamClients.WithLabelValues(transport).Dec()
}

func (s *Service) FrameSent(transport string) {
	s.streamFrames.WithLabelValues(transport).Inc()
}

// TelemetryMessage counts one message, grouped by the first topic segment.
func (s *Service) TelemetryMessage(topic string, err error) {
	group, _, _ := strings.Cut(topic, "/")
	if group == "" {
		group = "unknown"
	}
	s.telemetryMessages.WithLabelValues(group, result(err)).Inc()
}

// Handler exposes the registered metrics.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

func (s *Service) MetricsPath() string {
	if s.config.MetricsPath == "" {
		return "/metrics"
	}
	return s.config.MetricsPath
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}
