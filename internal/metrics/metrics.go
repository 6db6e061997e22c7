// Package metrics holds Prometheus instruments that are used across the
// app.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PropertySavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_saves_total",
			Help: "Cumulative number of calculator sessions saved, by outcome.",
		}, []string{"outcome"})

	SurveyMergesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_merges_total",
			Help: "Cumulative number of guest-survey merges run.",
		})

	SurveyLinkedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_linked_total",
			Help: "Cumulative number of properties re-linked to accounts.",
		})

	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Cumulative number of PDF summary emails, by outcome.",
		}, []string{"outcome"})

	AuthRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Cumulative number of auth API calls, by operation and outcome.",
		}, []string{"op", "outcome"})

	IdleLogoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "idle_logouts_total",
			Help: "Cumulative number of sessions ended by the idle timeout.",
		})
)

func init() {
	prometheus.MustRegister(
		PropertySavesTotal,
		SurveyMergesTotal,
		SurveyLinkedTotal,
		EmailsSentTotal,
		AuthRequestsTotal,
		IdleLogoutsTotal,
	)
}
