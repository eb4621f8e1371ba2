package systems

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality (no per-unit or per-player labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "simcore_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simcore_hits_total",
		Help: "Hits resolved, by outcome",
	}, []string{"outcome"}) // Bounded: "ignored", "damaged", "killed", "captured"

	absorbedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simcore_shield_absorbed_total",
		Help: "Damage absorbed by shields",
	})

	ownerChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simcore_owner_changes_total",
		Help: "Ownership transfers",
	}, []string{"reason"}) // Bounded: "capture", "rescue", "direct"

	fogTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simcore_fog_transitions_total",
		Help: "Unit visibility transitions",
	}, []string{"direction"}) // Bounded: "out", "under"

	liveUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simcore_units_live",
		Help: "Allocated units",
	})

	pendingReleases = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simcore_units_pending_release",
		Help: "Freed slots waiting out their hold period",
	})

	hiddenUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simcore_units_hidden_under_fog",
		Help: "References held by players on units they left under fog",
	})
)
