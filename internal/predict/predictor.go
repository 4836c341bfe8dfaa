// Package predict projects a vehicle's live position onto its scheduled
// trip: which stops it will reach within the prediction window, adjusted by
// realtime trip updates, and the forward slice of the trip's shape from the
// vehicle to its last upcoming stop.
package predict

import (
	"math"
	"time"

	"github.com/buswatch-live/tracker/internal/geo"
	"github.com/buswatch-live/tracker/internal/realtime"
	"github.com/buswatch-live/tracker/internal/schedule"
)

// Prediction window in seconds of local time. The back-window keeps the stop
// a vehicle is currently approaching visible just after its predicted time
// passes.
const (
	windowBehind = 60
	windowAhead  = 1800
)

// PredictionSource supplies realtime predictions keyed by trip and stop
// sequence. Satisfied by realtime.TripUpdateCache.
type PredictionSource interface {
	GetPrediction(tripID string, stopSequence int) (realtime.StopTimePrediction, bool)
}

// UpcomingStop is one stop the vehicle is expected to reach within the
// window. PredictedArrival is empty and IsRealTime false when no realtime
// data exists for the stop.
type UpcomingStop struct {
	StopID             string
	Name               string
	Lat                float64
	Lon                float64
	StopSequence       int
	ScheduledArrival   string
	ScheduledDeparture string
	PredictedArrival   string
	ArrivalDelay       *int
	IsRealTime         bool
}

// RoutePrediction is the upcoming route view for one vehicle. Path is nil
// when the trip has no usable shape or the vehicle has already passed its
// last upcoming stop.
type RoutePrediction struct {
	TripID      string
	RouteID     string
	Headsign    string
	DirectionID int
	Stops       []UpcomingStop
	Path        []schedule.ShapePoint
}

// Predictor combines the static schedule with the realtime prediction cache
type Predictor struct {
	store       *schedule.Store
	predictions PredictionSource
	loc         *time.Location
}

// New creates a Predictor. All times are evaluated in loc, the agency's
// local timezone.
func New(store *schedule.Store, predictions PredictionSource, loc *time.Location) *Predictor {
	return &Predictor{store: store, predictions: predictions, loc: loc}
}

// PredictUpcomingRoute computes the upcoming stops and forward path for a
// vehicle on the given trip at position (lat, lon). Returns nil when there
// is nothing to predict: unknown trip, service not running on now's date,
// or a trip without stop times.
func (p *Predictor) PredictUpcomingRoute(tripID string, lat, lon float64, now time.Time) *RoutePrediction {
	trip, ok := p.store.GetTrip(tripID)
	if !ok {
		return nil
	}

	localNow := now.In(p.loc)
	if !p.store.IsServiceActiveOnDate(trip.ServiceID, localNow) {
		return nil
	}

	stopTimes := p.store.GetStopTimes(tripID)
	if len(stopTimes) == 0 {
		return nil
	}

	nowSec := schedule.SecondsOfDay(localNow)
	upcoming := p.upcomingStops(tripID, stopTimes, nowSec)

	return &RoutePrediction{
		TripID:      trip.TripID,
		RouteID:     trip.RouteID,
		Headsign:    trip.Headsign,
		DirectionID: trip.DirectionID,
		Stops:       upcoming,
		Path:        p.forwardPath(trip.ShapeID, lat, lon, upcoming),
	}
}

// upcomingStops walks the trip's stop times in sequence order and keeps the
// stops whose effective arrival falls inside the window around nowSec.
func (p *Predictor) upcomingStops(tripID string, stopTimes []schedule.StopTimeEntry, nowSec int) []UpcomingStop {
	var upcoming []UpcomingStop

	for _, st := range stopTimes {
		effective := st.ArrivalSec
		predicted := ""
		var delay *int
		isRealTime := false

		if pred, ok := p.predictions.GetPrediction(tripID, st.StopSequence); ok {
			absTime := pred.ArrivalTime
			predDelay := pred.ArrivalDelay
			if absTime == nil && predDelay == nil {
				// Departure-only prediction, use it in place of the arrival.
				absTime = pred.DepartureTime
				predDelay = pred.DepartureDelay
			}
			switch {
			case absTime != nil:
				effective = schedule.SecondsOfDay(absTime.In(p.loc))
				predicted = schedule.FormatSeconds(effective)
				isRealTime = true
				if predDelay != nil {
					d := *predDelay
					delay = &d
				}
			case predDelay != nil:
				effective = st.ArrivalSec + *predDelay
				predicted = schedule.FormatSeconds(effective)
				d := *predDelay
				delay = &d
				isRealTime = true
			}
		}

		if effective < nowSec-windowBehind || effective > nowSec+windowAhead {
			continue
		}

		stop := UpcomingStop{
			StopID:             st.StopID,
			StopSequence:       st.StopSequence,
			ScheduledArrival:   st.Arrival,
			ScheduledDeparture: st.Departure,
			PredictedArrival:   predicted,
			ArrivalDelay:       delay,
			IsRealTime:         isRealTime,
		}
		if s, ok := p.store.GetStop(st.StopID); ok {
			stop.Name = s.Name
			stop.Lat = s.Lat
			stop.Lon = s.Lon
		}
		upcoming = append(upcoming, stop)
	}

	return upcoming
}

// forwardPath slices the trip's shape from the point nearest the vehicle up
// to the point nearest the last upcoming stop, or the shape's end when no
// stops are upcoming. Only forward segments are emitted: a vehicle that has
// already passed the endpoint gets no path.
func (p *Predictor) forwardPath(shapeID string, lat, lon float64, upcoming []UpcomingStop) []schedule.ShapePoint {
	shape := p.store.GetShape(shapeID)
	if len(shape) < 2 {
		return nil
	}

	vehicleIdx := nearestShapeIndex(shape, lat, lon)
	endIdx := len(shape) - 1
	if len(upcoming) > 0 {
		last := upcoming[len(upcoming)-1]
		endIdx = nearestShapeIndex(shape, last.Lat, last.Lon)
	}

	if vehicleIdx >= endIdx {
		return nil
	}
	return shape[vehicleIdx : endIdx+1]
}

// nearestShapeIndex finds the shape point closest to (lat, lon) by
// great-circle distance
func nearestShapeIndex(points []schedule.ShapePoint, lat, lon float64) int {
	minDist := math.MaxFloat64
	minIdx := 0

	for i, pt := range points {
		dist := geo.Haversine(lat, lon, pt.Lat, pt.Lon)
		if dist < minDist {
			minDist = dist
			minIdx = i
		}
	}

	return minIdx
}
