// Package metrics exposes prometheus counters for signer operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service holds the signer-gateway metric set. Registered once at startup.
type Service struct {
	OpsTotal      *prometheus.CounterVec
	OpFailures    *prometheus.CounterVec
	ConnectsTotal *prometheus.CounterVec
}

// New registers the metric set on the given registerer.
func New(reg prometheus.Registerer) *Service {
	factory := promauto.With(reg)
	return &Service{
		OpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_gateway_operations_total",
			Help: "Signer operations by backend and operation.",
		}, []string{"backend", "op"}),
		OpFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_gateway_operation_failures_total",
			Help: "Failed signer operations by backend and operation.",
		}, []string{"backend", "op"}),
		ConnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_gateway_connects_total",
			Help: "Backend connect calls by backend.",
		}, []string{"backend"}),
	}
}

// ObserveOp counts one operation and, when failed is true, one failure.
func (s *Service) ObserveOp(backend, op string, failed bool) {
	s.OpsTotal.WithLabelValues(backend, op).Inc()
	if failed {
		s.OpFailures.WithLabelValues(backend, op).Inc()
	}
}
