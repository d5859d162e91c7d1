package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the game counters exposed on /metrics.
type Collectors struct {
	SessionsStarted   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	SessionsAbandoned *prometheus.CounterVec
	Answers           *prometheus.CounterVec
	PointsAwarded     *prometheus.CounterVec
	LevelUps          prometheus.Counter
	ActiveSessions    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbreak",
			Name:      "sessions_started_total",
			Help:      "Game sessions launched, by game id.",
		}, []string{"game"}),
		SessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbreak",
			Name:      "sessions_completed_total",
			Help:      "Game sessions whose results were acknowledged, by game id.",
		}, []string{"game"}),
		SessionsAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbreak",
			Name:      "sessions_abandoned_total",
			Help:      "Game sessions closed before the results were acknowledged.",
		}, []string{"game"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbreak",
			Name:      "answers_total",
			Help:      "Resolved questions by game id and result (correct, incorrect, timeout).",
		}, []string{"game", "result"}),
		PointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbreak",
			Name:      "points_awarded_total",
			Help:      "Points credited to profiles, by subject.",
		}, []string{"subject"}),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartbreak",
			Name:      "level_ups_total",
			Help:      "Profiles that reached a new level.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smartbreak",
			Name:      "active_sessions",
			Help:      "Sessions currently held by the server.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.SessionsStarted,
			c.SessionsCompleted,
			c.SessionsAbandoned,
			c.Answers,
			c.PointsAwarded,
			c.LevelUps,
			c.ActiveSessions,
		)
	}
	return c
}

// AnswerResult maps a resolution to the "result" label.
func AnswerResult(correct, timedOut bool) string {
	switch {
	case correct:
		return "correct"
	case timedOut:
		return "timeout"
	default:
		return "incorrect"
	}
}
