package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SkinAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skin_analyses_total",
			Help: "Total number of skin analyses by resulting skin type",
		},
		[]string{"skin_type", "fallback"},
	)

	SkinAnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skin_analysis_duration_seconds",
			Help:    "Duration of the image analysis pipeline in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"stage"},
	)

	ProductMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_matches_total",
			Help: "Total number of issues matched to catalog products",
		},
		[]string{"issue"},
	)

	ReportDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_deliveries_total",
			Help: "Total number of report deliveries by channel and outcome",
		},
		[]string{"channel", "status"},
	)
)
