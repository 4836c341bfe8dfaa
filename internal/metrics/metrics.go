// Package metrics exposes the tracker's operational metrics on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Feed label values for per-feed counters and histograms
const (
	FeedVehiclePositions = "vehicle_positions"
	FeedTripUpdates      = "trip_updates"
)

type Collector struct {
	reg *prometheus.Registry

	PollCycles   prometheus.Counter
	PollFailures *prometheus.CounterVec // feed label: vehicle_positions|trip_updates

	TrackedVehicles *prometheus.GaugeVec // group label
	CachedTrips     prometheus.Gauge

	FetchDuration *prometheus.HistogramVec // feed label
	CycleDuration prometheus.Histogram

	MeanArrivalDelay   prometheus.Gauge
	ArrivalDelayStddev prometheus.Gauge
	DelaySamples       prometheus.Gauge

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	PollInterval prometheus.Gauge // seconds
}

func NewCollector(pollInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_poll_cycles_total",
			Help: "Total reconciliation cycles attempted.",
		}),
		PollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_poll_failures_total",
			Help: "Total feed fetch or decode failures.",
		}, []string{"feed"}),
		TrackedVehicles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracker_tracked_vehicles",
			Help: "Vehicles in the latest snapshot per tracked group.",
		}, []string{"group"}),
		CachedTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_cached_trips",
			Help: "Trips held in the trip-update cache.",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_fetch_duration_seconds",
			Help:    "Duration of realtime feed fetches.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"feed"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_cycle_duration_seconds",
			Help:    "Duration of full reconciliation cycles.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		MeanArrivalDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_mean_arrival_delay_seconds",
			Help: "Mean realtime arrival delay across upcoming stops in the latest cycle.",
		}),
		ArrivalDelayStddev: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_arrival_delay_stddev_seconds",
			Help: "Standard deviation of realtime arrival delays in the latest cycle.",
		}),
		DelaySamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_arrival_delay_samples",
			Help: "Realtime delay observations behind the latest delay statistics.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_poll_interval_seconds",
			Help: "Configured polling interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.PollCycles, c.PollFailures,
		c.TrackedVehicles, c.CachedTrips,
		c.FetchDuration, c.CycleDuration,
		c.MeanArrivalDelay, c.ArrivalDelayStddev, c.DelaySamples,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.PollInterval,
	)

	c.PollInterval.Set(pollInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// SetDelayStats publishes one cycle's delay statistics
func (c *Collector) SetDelayStats(stats *DelayStats) {
	c.MeanArrivalDelay.Set(stats.Mean())
	c.ArrivalDelayStddev.Set(stats.StdDev())
	c.DelaySamples.Set(float64(stats.Count()))
}
