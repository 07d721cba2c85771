package transcription

import (
	"bitbucket.org/airenas/speechjobs/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "speechjobs"

var (
	submitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submissions by result",
		}, []string{"result"})
	callbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Resolved callbacks by job status and result",
		}, []string{"status", "result"})
	requestDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_durations_seconds",
			Help:      "Request latency distributions.",
		}, []string{"handler"})
)

func registerMetrics(pending func() float64, held func() float64) error {
	return metrics.Register(submitTotal, callbackTotal, requestDur,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "callbacks_pending",
			Help:      "Registered and not yet consumed callbacks",
		}, pending),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "results_held",
			Help:      "Results waiting for a subscriber",
		}, held))
}
