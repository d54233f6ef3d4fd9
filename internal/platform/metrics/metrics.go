package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsCreated      prometheus.Counter
	RecordsUpdated      prometheus.Counter
	RecordsDeleted      prometheus.Counter
	AccessDenied        prometheus.Counter
	SuggestionsProposed prometheus.Counter
	SuggestionsResolved *prometheus.CounterVec
	HistoryWritten      prometheus.Counter
	ArchiveFailures     prometheus.Counter
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_records_created_total",
			Help: "Total number of records created",
		}),
		RecordsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_records_updated_total",
			Help: "Total number of records updated (no-op updates excluded)",
		}),
		RecordsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_records_deleted_total",
			Help: "Total number of records deleted",
		}),
		AccessDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_access_denied_total",
			Help: "Total number of operations rejected by the role evaluator",
		}),
		SuggestionsProposed: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_suggestions_proposed_total",
			Help: "Total number of field-edit suggestions proposed",
		}),
		SuggestionsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoatlas_suggestions_resolved_total",
			Help: "Total number of suggestions resolved, by outcome",
		}, []string{"outcome"}),
		HistoryWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_history_entries_total",
			Help: "Total number of history entries appended",
		}),
		ArchiveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "geoatlas_history_archive_failures_total",
			Help: "Total number of failed history archive writes",
		}),
	}
}
