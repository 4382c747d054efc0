package services

import "github.com/prometheus/client_golang/prometheus"

var (
	activitiesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_activities_recorded_total",
		Help: "Qualifying daily activities recorded (new days only)",
	})
	milestonesGranted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_milestones_granted_total",
		Help: "Streak milestones awarded",
	})
	levelUps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_level_ups_total",
		Help: "Level increases observed after XP credits",
	})
)

// InitMetrics registers the engine counters. Call once from main.go.
func InitMetrics() {
	prometheus.MustRegister(activitiesRecorded)
	prometheus.MustRegister(milestonesGranted)
	prometheus.MustRegister(levelUps)
}
