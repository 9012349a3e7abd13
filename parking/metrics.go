package parking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_system_entries_total",
		Help: "Vehicles parked, by spot type",
	}, []string{"spot_type"})

	ExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_system_exits_total",
		Help: "Vehicles that left with a completed ticket, by spot type",
	}, []string{"spot_type"})

	RejectedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_system_rejected_entries_total",
		Help: "Entries aborted because of an invalid selection or a full parking",
	})

	FareAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_system_fare_amount",
		Help:    "Fares charged on exit",
		Buckets: []float64{0, 0.5, 1, 2, 5, 10, 20, 50},
	})

	StoreLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_system_store_latency_seconds",
		Help:    "Time spent in spot and ticket store calls",
		Buckets: prometheus.DefBuckets,
	})
)
