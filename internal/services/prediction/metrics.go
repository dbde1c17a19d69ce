package prediction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	predictions *prometheus.CounterVec
	failures    prometheus.Counter
	scores      prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		predictions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "potability_predictions_total",
			Help: "Valutazioni completate, per verdetto.",
		}, []string{"verdict"}),
		failures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "potability_prediction_failures_total",
			Help: "Valutazioni fallite (input non valido arrivato al rule engine).",
		}),
		scores: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "potability_score",
			Help:    "Distribuzione dello score 0-100.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}
