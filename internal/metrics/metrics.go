// Package metrics exposes the process counters on the default Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetrack_mutations_total",
		Help: "Store mutations by collection, operation and result",
	}, []string{"collection", "operation", "result"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetrack_notifications_total",
		Help: "Notifications emitted by type",
	}, []string{"type"})

	notificationsTrimmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "budgetrack_notifications_trimmed_total",
		Help: "Notifications dropped by the retention cap",
	})

	persistWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetrack_persist_writes_total",
		Help: "Debounced persistence writes by key and result",
	}, []string{"key", "result"})

	persistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetrack_persist_failures_total",
		Help: "Persistence failures by category",
	}, []string{"category"})

	mirroredChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetrack_mirrored_changes_total",
		Help: "Change events forwarded to the remote mirror by collection and result",
	}, []string{"collection", "result"})

	remoteSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetrack_remote_sync_total",
		Help: "Change messages applied by the remote sync worker",
	}, []string{"kind", "result"})
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObserveMutation records one store mutation.
func ObserveMutation(collection, operation string, err error) {
	mutationsTotal.WithLabelValues(collection, operation, result(err)).Inc()
}

// ObserveNotifications adds n notifications of the given type.
func ObserveNotifications(notificationType string, n int) {
	notificationsTotal.WithLabelValues(notificationType).Add(float64(n))
}

func ObserveTrimmed(n int) {
	notificationsTrimmed.Add(float64(n))
}

func ObservePersistWrite(key string, err error) {
	persistWrites.WithLabelValues(key, result(err)).Inc()
}

func ObservePersistFailure(category string) {
	persistFailures.WithLabelValues(category).Inc()
}

func ObserveMirror(collection string, err error) {
	mirroredChanges.WithLabelValues(collection, result(err)).Inc()
}

func ObserveRemoteSync(kind string, err error) {
	remoteSyncs.WithLabelValues(kind, result(err)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
