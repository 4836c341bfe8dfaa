// Package tracker reconciles the live vehicle-position feed with the static
// schedule and the trip-update cache into per-group snapshots of vehicle and
// route features, republished atomically after every polling cycle.
package tracker

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/buswatch-live/tracker/internal/geojson"
	"github.com/buswatch-live/tracker/internal/metrics"
	"github.com/buswatch-live/tracker/internal/predict"
	"github.com/buswatch-live/tracker/internal/publisher"
	"github.com/buswatch-live/tracker/internal/realtime"
)

// VehiclePublisher fans tracked vehicle updates out after each publish.
// Satisfied by publisher.NATSPublisher; nil disables the fan-out.
type VehiclePublisher interface {
	PublishVehicle(group, vehicleID string, msg publisher.VehicleMessage) error
}

// Options wires a Reconciler
type Options struct {
	Vehicles  *realtime.VehicleClient
	Updates   *realtime.TripUpdateCache
	Predictor *predict.Predictor
	Registry  *Registry
	Metrics   *metrics.Collector
	Publisher VehiclePublisher

	PollInterval     time.Duration
	SamplePattern    string
	SampleMatchCount int
	SampleOtherCount int
}

// Reconciler drives the polling cycles and owns the published snapshot.
// Snapshots are immutable; the pointer swap in pollOnce is the only write.
type Reconciler struct {
	vehicles  *realtime.VehicleClient
	updates   *realtime.TripUpdateCache
	predictor *predict.Predictor
	registry  *Registry
	collector *metrics.Collector
	publisher VehiclePublisher

	pollInterval  time.Duration
	samplePattern *regexp.Regexp
	sampleMatch   int
	sampleOther   int
	rng           *rand.Rand

	// sample maps vehicle id to palette index. Written once by Bootstrap
	// before Run starts, read-only afterwards.
	sample map[string]int

	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
}

// New creates a Reconciler from explicit dependencies
func New(opts Options) (*Reconciler, error) {
	pattern, err := regexp.Compile(opts.SamplePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid sample id pattern %q: %w", opts.SamplePattern, err)
	}

	return &Reconciler{
		vehicles:      opts.Vehicles,
		updates:       opts.Updates,
		predictor:     opts.Predictor,
		registry:      opts.Registry,
		collector:     opts.Metrics,
		publisher:     opts.Publisher,
		pollInterval:  opts.PollInterval,
		samplePattern: pattern,
		sampleMatch:   opts.SampleMatchCount,
		sampleOther:   opts.SampleOtherCount,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		sample:        map[string]int{},
		now:           time.Now,
	}, nil
}

// Bootstrap selects the sample group: vehicles outside the registry that
// currently have at least one upcoming stop, randomly drawn up to the
// configured counts from the id-pattern partition. The selection is fixed
// for the process lifetime. On feed failure the sample stays empty and the
// tracker runs with the primary group only.
func (r *Reconciler) Bootstrap(ctx context.Context) error {
	if err := r.updates.Refresh(ctx); err != nil {
		log.Printf("tracker: trip updates unavailable during bootstrap: %v", err)
	}

	positions, err := r.vehicles.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("sample selection fetch failed: %w", err)
	}

	now := r.now()
	var candidates []string
	seen := map[string]bool{}
	for _, v := range positions {
		if v.VehicleID == "" || seen[v.VehicleID] {
			continue
		}
		seen[v.VehicleID] = true

		if r.registry.Contains(v.VehicleID) || !v.HasFix() || v.TripID == nil {
			continue
		}
		pred := r.predictor.PredictUpcomingRoute(*v.TripID, *v.Lat, *v.Lon, now)
		if pred == nil || len(pred.Stops) == 0 {
			continue
		}
		candidates = append(candidates, v.VehicleID)
	}

	matching, other := partitionCandidates(r.samplePattern, candidates)
	selected := pickSample(r.rng, matching, r.sampleMatch)
	selected = append(selected, pickSample(r.rng, other, r.sampleOther)...)

	for i, id := range selected {
		r.sample[id] = i
	}

	log.Printf("tracker: sample group selected: %d of %d candidates", len(selected), len(candidates))
	return nil
}

// Run polls at the configured interval until the context is cancelled. One
// cycle runs at a time; a slow cycle delays the next tick instead of
// overlapping with it.
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("tracker: polling every %v", r.pollInterval)
	r.pollOnce(ctx)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.pollOnce(ctx)
		case <-ctx.Done():
			log.Println("tracker: polling stopped")
			return
		}
	}
}

// pollOnce runs one reconciliation cycle. The two feed fetches run
// concurrently and are joined before the snapshot is built, since
// predictions read the trip-update cache the refresh produces.
func (r *Reconciler) pollOnce(ctx context.Context) {
	start := time.Now()
	r.collector.PollCycles.Inc()

	var wg sync.WaitGroup
	var positions []realtime.VehiclePosition
	var posErr, tuErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		t := time.Now()
		tuErr = r.updates.Refresh(ctx)
		r.collector.FetchDuration.WithLabelValues(metrics.FeedTripUpdates).Observe(time.Since(t).Seconds())
	}()
	go func() {
		defer wg.Done()
		t := time.Now()
		positions, posErr = r.vehicles.Fetch(ctx)
		r.collector.FetchDuration.WithLabelValues(metrics.FeedVehiclePositions).Observe(time.Since(t).Seconds())
	}()
	wg.Wait()

	if tuErr != nil {
		// Predictions degrade to schedule-only; the cycle still publishes.
		r.collector.PollFailures.WithLabelValues(metrics.FeedTripUpdates).Inc()
		log.Printf("tracker: trip updates refresh failed: %v", tuErr)
	}
	r.collector.CachedTrips.Set(float64(r.updates.TripCount()))

	if posErr != nil {
		r.collector.PollFailures.WithLabelValues(metrics.FeedVehiclePositions).Inc()
		log.Printf("tracker: vehicle positions fetch failed, keeping previous snapshot: %v", posErr)
		return
	}

	snap, messages := r.buildSnapshot(positions)
	r.snapshot.Store(snap)

	for group, view := range snap.Groups {
		r.collector.TrackedVehicles.WithLabelValues(group).Set(float64(len(view.Buses.Features)))
	}
	r.collector.CycleDuration.Observe(time.Since(start).Seconds())

	if r.publisher != nil {
		for _, m := range messages {
			if err := r.publisher.PublishVehicle(m.Group, m.VehicleID, m); err != nil {
				log.Printf("tracker: publish %s/%s failed: %v", m.Group, m.VehicleID, err)
			}
		}
	}
}

// buildSnapshot assembles one cycle's snapshot plus the fan-out messages
// for every tracked vehicle with a fix.
func (r *Reconciler) buildSnapshot(positions []realtime.VehiclePosition) (*Snapshot, []publisher.VehicleMessage) {
	now := r.now()
	snap := &Snapshot{
		ID:       uuid.New().String(),
		PolledAt: now,
		Groups: map[string]*GroupView{
			GroupPrimary: newGroupView(),
			GroupSample:  newGroupView(),
		},
	}

	var messages []publisher.VehicleMessage
	stats := &metrics.DelayStats{}

	for _, v := range positions {
		group, idx, meta, tracked := r.membership(v.VehicleID)
		if !tracked || !v.HasFix() {
			continue
		}
		color := ColorFor(idx)

		var pred *predict.RoutePrediction
		if v.TripID != nil {
			pred = r.predictor.PredictUpcomingRoute(*v.TripID, *v.Lat, *v.Lon, now)
		}

		view := snap.Groups[group]
		view.Buses.Features = append(view.Buses.Features, busFeature(v, meta, color, pred))
		if pred != nil {
			view.Routes.Features = append(view.Routes.Features, routeFeatures(v.VehicleID, color, pred)...)
			for _, stop := range pred.Stops {
				if stop.ArrivalDelay != nil {
					stats.Observe(float64(*stop.ArrivalDelay))
				}
			}
		}

		messages = append(messages, vehicleMessage(v, group, color, pred, now))
	}

	r.collector.SetDelayStats(stats)
	return snap, messages
}

// membership resolves a vehicle to its tracked group and stable palette
// index. The groups are disjoint: registry membership wins.
func (r *Reconciler) membership(vehicleID string) (group string, index int, meta FleetVehicle, tracked bool) {
	if idx, ok := r.registry.Index(vehicleID); ok {
		rec, _ := r.registry.Lookup(vehicleID)
		return GroupPrimary, idx, rec, true
	}
	if idx, ok := r.sample[vehicleID]; ok {
		return GroupSample, idx, FleetVehicle{}, true
	}
	return "", 0, FleetVehicle{}, false
}

// GetBuses returns the latest vehicle features for a group. Unknown groups
// and the pre-publish state yield an empty, well-formed collection.
func (r *Reconciler) GetBuses(group string) geojson.FeatureCollection {
	snap := r.snapshot.Load()
	if snap == nil {
		return geojson.NewFeatureCollection()
	}
	view, ok := snap.Groups[group]
	if !ok {
		return geojson.NewFeatureCollection()
	}
	return view.Buses
}

// GetRoutes returns the latest route and upcoming-stop features for a group
func (r *Reconciler) GetRoutes(group string) geojson.FeatureCollection {
	snap := r.snapshot.Load()
	if snap == nil {
		return geojson.NewFeatureCollection()
	}
	view, ok := snap.Groups[group]
	if !ok {
		return geojson.NewFeatureCollection()
	}
	return view.Routes
}

// Status reports the latest snapshot's identity and sizes. ok is false
// before the first publish.
func (r *Reconciler) Status() (Status, bool) {
	snap := r.snapshot.Load()
	if snap == nil {
		return Status{}, false
	}

	st := Status{
		SnapshotID:  snap.ID,
		PolledAt:    snap.PolledAt,
		Vehicles:    make(map[string]int, len(snap.Groups)),
		CachedTrips: r.updates.TripCount(),
	}
	for group, view := range snap.Groups {
		st.Vehicles[group] = len(view.Buses.Features)
	}
	return st, true
}
