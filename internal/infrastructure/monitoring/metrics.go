package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type BusinessMetrics struct {
	CustomersRegisteredTotal prometheus.Counter
	LoansApprovedTotal       prometheus.Counter
	LoansRejectedTotal       *prometheus.CounterVec
	ImportRowsTotal          *prometheus.CounterVec
}

var Business = BusinessMetrics{
	CustomersRegisteredTotal: promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_engine_customers_registered_total",
			Help: "Total number of customers registered.",
		},
	),
	LoansApprovedTotal: promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_engine_loans_approved_total",
			Help: "Total number of loan applications approved.",
		},
	),
	LoansRejectedTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_engine_loans_rejected_total",
			Help: "Total number of loan applications rejected, by reason.",
		},
		[]string{"reason"},
	),
	ImportRowsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_engine_import_rows_total",
			Help: "Total number of import rows processed, by source and outcome.",
		},
		[]string{"source", "outcome"},
	),
}
