package conversation

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mayak/orderbot/core/metrics"
)

func init() {
	metrics.Register(eventsTotal, leadsTotal, catalogErrorsTotal)
}

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_conversation_events_total",
			Help: "Conversation events by kind and action.",
		},
		[]string{"kind", "action"},
	)

	leadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_leads_total",
			Help: "Leads by service and outcome (saved, failed).",
		},
		[]string{"service", "outcome"},
	)

	catalogErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_catalog_errors_total",
			Help: "Catalog reads that could not be shown to the user.",
		},
		[]string{"op"},
	)
)
