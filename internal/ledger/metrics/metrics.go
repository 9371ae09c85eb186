package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the product ledger.
// Tracks mutation counts and critical path durations.
type Metrics struct {
	ProductsRegistered prometheus.Counter
	Transfers          prometheus.Counter
	TransferFailures   prometheus.Counter
	Certifications     prometheus.Counter

	RegisterDuration prometheus.Histogram
	TransferDuration prometheus.Histogram
	LookupDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		ProductsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrace_products_registered_total",
			Help: "Total number of products registered",
		}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrace_transfers_total",
			Help: "Total number of committed ownership transfers",
		}),
		TransferFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrace_transfer_failures_total",
			Help: "Total number of transfers rejected or rolled back",
		}),
		Certifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrace_certifications_total",
			Help: "Total number of certifications appended",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agritrace_register_duration_seconds",
			Help:    "Duration of product registration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agritrace_transfer_duration_seconds",
			Help:    "Duration of ownership transfers including payment settlement",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agritrace_lookup_duration_seconds",
			Help:    "Duration of product lookups (trace critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistered records a successful product registration.
func (m *Metrics) IncrementRegistered() {
	m.ProductsRegistered.Inc()
}

// IncrementTransfers records a committed ownership transfer.
func (m *Metrics) IncrementTransfers() {
	m.Transfers.Inc()
}

// IncrementTransferFailures records a rejected or rolled-back transfer.
func (m *Metrics) IncrementTransferFailures() {
	m.TransferFailures.Inc()
}

// IncrementCertifications records an appended certification.
func (m *Metrics) IncrementCertifications() {
	m.Certifications.Inc()
}

// ObserveRegister records the duration of a registration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveTransfer records the duration of a transfer.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	m.TransferDuration.Observe(time.Since(start).Seconds())
}

// ObserveLookup records the duration of a lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
