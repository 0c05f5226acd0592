package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examlink_sessions_opened_total",
			Help: "Total number of exam sessions opened, by outcome",
		},
		[]string{"outcome"}, // created, resumed, rejected
	)

	SubmissionsFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "examlink_submissions_finalized_total",
			Help: "Total number of exam submissions finalized exactly once",
		},
	)

	DuplicateSubmits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "examlink_duplicate_submits_total",
			Help: "Submit attempts rejected because the session was already completed",
		},
	)

	AutoScoreHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "examlink_auto_score",
			Help:    "Distribution of automatically graded scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ExamDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "examlink_exam_duration_seconds",
			Help:    "Elapsed time between session open and finalization",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10),
		},
	)
)
