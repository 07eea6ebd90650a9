package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type CacheMetrics struct {
	LookupsTotal *prometheus.CounterVec
}

type EventMetrics struct {
	ConsumedTotal *prometheus.CounterVec
}

type LoanMetrics struct {
	OperationsTotal    *prometheus.CounterVec
	MarkedOverdueTotal prometheus.Counter
	JobDuration        prometheus.Histogram
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "library_loan_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Cache = CacheMetrics{
		LookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_loan_cache_lookups_total",
				Help: "Loan cache lookups by result.",
			},
			[]string{"result"},
		),
	}

	Events = EventMetrics{
		ConsumedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_loan_events_consumed_total",
				Help: "Loan events received from RabbitMQ by routing key and outcome.",
			},
			[]string{"routing_key", "outcome"},
		),
	}

	Loan = LoanMetrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_loan_operations_total",
				Help: "Loan service write operations by kind and outcome.",
			},
			[]string{"operation", "status"},
		),
		MarkedOverdueTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_loan_marked_overdue_total",
				Help: "Total number of loans moved to OVERDUE by the batch job.",
			},
		),
		JobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "library_loan_overdue_job_duration_seconds",
				Help:    "Duration of overdue batch job runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCacheLookup(result string) {
	Cache.LookupsTotal.WithLabelValues(result).Inc()
}

func RecordLoanOperation(operation, status string) {
	Loan.OperationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordMarkedOverdue(count int) {
	Loan.MarkedOverdueTotal.Add(float64(count))
}

func RecordOverdueJob(duration time.Duration) {
	Loan.JobDuration.Observe(duration.Seconds())
}

func RecordEventConsumed(routingKey, outcome string) {
	Events.ConsumedTotal.WithLabelValues(routingKey, outcome).Inc()
}
