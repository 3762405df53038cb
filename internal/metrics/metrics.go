package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdfwala/pdfops"
)

const Namespace = "pdfops"

const (
	LabelOperation = "operation"
	LabelKind      = "kind"
)

var Jobs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "jobs_total",
		Help:      "Processed jobs by operation and outcome",
		Namespace: Namespace,
	},
	[]string{LabelOperation, LabelKind},
)

var JobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      "job_duration_seconds",
		Help:      "Job duration by operation",
		Namespace: Namespace,
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
	},
	[]string{LabelOperation},
)

var StagedBytes = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "staged_bytes_total",
		Help:      "Bytes written to the upload staging area",
		Namespace: Namespace,
	},
)

var SweptFiles = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "swept_files_total",
		Help:      "Expired staged files removed by the sweeper",
		Namespace: Namespace,
	},
)

// JobObserver records pipeline job outcomes.
type JobObserver struct{}

func (JobObserver) ObserveJob(op string, duration time.Duration, err error) {
	JobDuration.WithLabelValues(op).Observe(duration.Seconds())
	Jobs.WithLabelValues(op, KindLabel(err)).Inc()
}

// KindLabel returns the metric label of an error classification.
func KindLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch pdfops.KindOf(err) {
	case pdfops.ErrValidation:
		return "validation"
	case pdfops.ErrResourceLimit:
		return "resource_limit"
	case pdfops.ErrCorruptDocument:
		return "corrupt"
	case pdfops.ErrIndexOutOfRange:
		return "index_out_of_range"
	default:
		return "internal"
	}
}
