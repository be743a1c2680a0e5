package service

import (
	"errors"

	"github.com/locvowork/employee_records/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var gatekeeperDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hr",
	Subsystem: "gatekeeper",
	Name:      "decisions_total",
	Help:      "Mutations seen by the consistency gatekeeper broken down by relation, operation and outcome.",
}, []string{"relation", "operation", "outcome"})

func observe(relation, operation string, err error) {
	gatekeeperDecisions.WithLabelValues(relation, operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, domain.ErrValidationFailed):
		return "validation_failed"
	default:
		return "error"
	}
}
