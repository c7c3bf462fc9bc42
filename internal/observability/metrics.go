package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeAccepted        = "accepted"
	OutcomeInvalid         = "invalid"
	OutcomePersistenceFail = "persistence_failed"
)

var (
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsvp",
		Subsystem: "submissions",
		Name:      "total",
		Help:      "RSVP submissions by outcome.",
	}, []string{"outcome"})
	responsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsvp",
		Subsystem: "submissions",
		Name:      "responses_total",
		Help:      "Persisted RSVP responses by attendance answer.",
	}, []string{"attendance"})
	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsvp",
		Subsystem: "notifications",
		Name:      "total",
		Help:      "Host notification delivery attempts by channel and result.",
	}, []string{"channel", "result"})
	lastPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rsvp",
		Subsystem: "storage",
		Name:      "last_response_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent RSVP persisted.",
	})
)

func init() {
	prometheus.MustRegister(submissionsTotal, responsesTotal, notificationsTotal, lastPersistGauge)
}

// RecordSubmission counts one submission outcome.
func RecordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordResponse counts one persisted response and moves the persistence watermark.
func RecordResponse(attending bool, ts time.Time) {
	label := "declined"
	if attending {
		label = "attending"
	}
	responsesTotal.WithLabelValues(label).Inc()
	if !ts.IsZero() {
		lastPersistGauge.Set(float64(ts.Unix()))
	}
}

// RecordNotification counts one delivery attempt on a channel.
func RecordNotification(channel string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(channel, result).Inc()
}
