package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the two core batch operations. Registered with the default
// prometheus registry and exposed via Handler() on /metrics.
var (
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracksub_reminders_sent_total",
		Help: "Reminder emails delivered successfully",
	})
	RemindersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracksub_reminders_failed_total",
		Help: "Reminder emails that could not be delivered",
	})
	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksub_bank_syncs_total",
		Help: "Bank sync attempts by outcome",
	}, []string{"outcome"})
	TransactionsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracksub_bank_transactions_imported_total",
		Help: "New bank transactions persisted by sync runs",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
