package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quote submission outcomes
const (
	outcomeCreated     = "created"
	outcomeOverwritten = "overwritten"
	outcomeInvalid     = "invalid"
	outcomeConflict    = "conflict"
	outcomeUnavailable = "rate_unavailable"
	outcomeError       = "error"
)

var (
	quotesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freight_quotes_submitted_total",
			Help: "Quote submissions partitioned by outcome",
		},
		[]string{"outcome"},
	)

	quoteStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freight_quote_status_changes_total",
			Help: "Applied quote review decisions partitioned by target status",
		},
		[]string{"to"},
	)

	reconciliationLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freight_reconciliation_lines_total",
			Help: "Reconciled invoice lines partitioned by classification",
		},
		[]string{"classification"},
	)
)

// submitOutcome maps a submission result to its metric label
func submitOutcome(err error, overwritten bool) string {
	switch {
	case err == nil && overwritten:
		return outcomeOverwritten
	case err == nil:
		return outcomeCreated
	case IsValidation(err):
		return outcomeInvalid
	case IsRateUnavailable(err):
		return outcomeUnavailable
	case IsStorageConflict(err):
		return outcomeConflict
	default:
		return outcomeError
	}
}
