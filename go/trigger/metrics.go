package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trigger_events_total",
	Help: "Recognized pipeline events received, by event name.",
}, []string{"event"})

var duplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "trigger_duplicate_events_total",
	Help: "Events ignored because their (date, event) pair was already routed.",
})

var forwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trigger_forwards_total",
	Help: "Forwards of {date} to downstream workers, by stage and status.",
}, []string{"stage", "status"})
