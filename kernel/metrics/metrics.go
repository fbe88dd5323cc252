package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
}

type MetricName string

const (
	MetricNameBootstrapRuns       MetricName = "runs"
	MetricNameBootstrapFailures   MetricName = "failures"
	MetricNamePolicyViolations    MetricName = "policy_violations"
	MetricNameNodesBootstrapped   MetricName = "nodes_bootstrapped"
	MetricNamePinsSucceeded       MetricName = "pins_succeeded"
	MetricNamePinsFailed          MetricName = "pins_failed"
	MetricNameAnnouncements       MetricName = "announcements"
	MetricNamePeersConnected      MetricName = "peers_connected"
	MetricNameAnnouncementsDenied MetricName = "announcements_rejected"
	MetricNameOperationsAccepted  MetricName = "accepted"
	MetricNameOperationsRejected  MetricName = "rejected"
	MetricNameOperationsMalformed MetricName = "malformed"
)

func (m MetricName) String() string {
	return string(m)
}

const (
	NamespaceSynthia    = "synthia"
	SubsystemBootstrap  = "bootstrap"
	SubsystemStorage    = "storage"
	SubsystemP2P        = "p2p"
	SubsystemValidation = "validation"
)

var (
	counters = map[MetricName]prometheus.Counter{
		MetricNameBootstrapRuns:       newCounter(SubsystemBootstrap, MetricNameBootstrapRuns, "Number of completed bootstrap sequences"),
		MetricNameBootstrapFailures:   newCounter(SubsystemBootstrap, MetricNameBootstrapFailures, "Number of aborted bootstrap sequences"),
		MetricNamePolicyViolations:    newCounter(SubsystemBootstrap, MetricNamePolicyViolations, "Number of policy violations detected during bootstrap"),
		MetricNameNodesBootstrapped:   newCounter(SubsystemBootstrap, MetricNameNodesBootstrapped, "Number of network nodes seeded"),
		MetricNamePinsSucceeded:       newCounter(SubsystemStorage, MetricNamePinsSucceeded, "Number of genesis snapshots pinned"),
		MetricNamePinsFailed:          newCounter(SubsystemStorage, MetricNamePinsFailed, "Number of failed or timed out pin attempts"),
		MetricNameAnnouncements:       newCounter(SubsystemP2P, MetricNameAnnouncements, "Number of content addresses announced to peers"),
		MetricNamePeersConnected:      newCounter(SubsystemP2P, MetricNamePeersConnected, "Number of successful bootstrap peer connections"),
		MetricNameAnnouncementsDenied: newCounter(SubsystemP2P, MetricNameAnnouncementsDenied, "Number of announcements rejected by the topic validator"),
		MetricNameOperationsAccepted:  newCounter(SubsystemValidation, MetricNameOperationsAccepted, "Number of operations accepted"),
		MetricNameOperationsRejected:  newCounter(SubsystemValidation, MetricNameOperationsRejected, "Number of operations rejected by policy"),
		MetricNameOperationsMalformed: newCounter(SubsystemValidation, MetricNameOperationsMalformed, "Number of malformed operations"),
	}
)

func newCounter(subsystem string, name MetricName, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: NamespaceSynthia,
		Subsystem: subsystem,
		Name:      name.String(),
		Help:      help,
	})
}

// NewMetrics registers the counters with the default registry. Registering
// twice is harmless, the second registration is ignored.
func NewMetrics() *Metrics {
	for _, counter := range counters {
		_ = prometheus.Register(counter)
	}
	return &Metrics{}
}

// IncrCounter increments the named counter. A nil receiver is a no-op so
// components can run without metrics.
func (m *Metrics) IncrCounter(name MetricName) {
	if m == nil {
		return
	}
	if counter, ok := counters[name]; ok {
		counter.Inc()
	}
}

func RegisterHandlers(router *mux.Router) {
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}
