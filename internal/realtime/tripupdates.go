package realtime

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// StopTimePrediction is the realtime arrival/departure information for one
// stop of one trip. Times are absolute; delays are seconds relative to the
// schedule (positive means late). At least one of the four fields is set.
type StopTimePrediction struct {
	StopID         string
	ArrivalTime    *time.Time
	ArrivalDelay   *int
	DepartureTime  *time.Time
	DepartureDelay *int
}

// predictionIndex maps tripID -> stopSequence -> prediction. Built once per
// refresh and never mutated afterwards, so readers can share it freely.
type predictionIndex map[string]map[int]StopTimePrediction

// TripUpdateCache holds the latest decoded trip-update feed. Refresh swaps
// in a whole new index atomically; on failure the previous index stays in
// place so readers keep serving the last good data.
type TripUpdateCache struct {
	url     string
	client  *http.Client
	current atomic.Pointer[predictionIndex]
}

// NewTripUpdateCache creates a cache for the given feed URL. The cache
// starts empty; call Refresh to populate it.
func NewTripUpdateCache(url string, client *http.Client) *TripUpdateCache {
	c := &TripUpdateCache{url: url, client: client}
	empty := predictionIndex{}
	c.current.Store(&empty)
	return c
}

// Refresh fetches the trip-update feed and replaces the cached index. If the
// fetch or decode fails the cache is left untouched and the error returned.
func (c *TripUpdateCache) Refresh(ctx context.Context) error {
	feed, err := fetchFeed(ctx, c.client, c.url)
	if err != nil {
		return err
	}

	index := buildPredictionIndex(feed.Entity)
	c.current.Store(&index)
	return nil
}

// GetPrediction returns the realtime prediction for a stop of a trip, keyed
// by the stop's sequence within the trip.
func (c *TripUpdateCache) GetPrediction(tripID string, stopSequence int) (StopTimePrediction, bool) {
	index := *c.current.Load()
	stops, ok := index[tripID]
	if !ok {
		return StopTimePrediction{}, false
	}
	pred, ok := stops[stopSequence]
	return pred, ok
}

// TripCount returns the number of trips in the cached feed
func (c *TripUpdateCache) TripCount() int {
	return len(*c.current.Load())
}

func buildPredictionIndex(entities []*gtfs.FeedEntity) predictionIndex {
	index := predictionIndex{}

	for _, entity := range entities {
		update := entity.TripUpdate
		if update == nil || update.Trip == nil || update.Trip.TripId == nil {
			continue
		}
		tripID := *update.Trip.TripId

		for _, stu := range update.StopTimeUpdate {
			// Without a stop sequence there is nothing to join the
			// prediction to on the schedule side.
			if stu.StopSequence == nil {
				continue
			}

			pred := StopTimePrediction{}
			if stu.StopId != nil {
				pred.StopID = *stu.StopId
			}
			if stu.Arrival != nil {
				if stu.Arrival.Time != nil {
					t := time.Unix(*stu.Arrival.Time, 0).UTC()
					pred.ArrivalTime = &t
				}
				if stu.Arrival.Delay != nil {
					d := int(*stu.Arrival.Delay)
					pred.ArrivalDelay = &d
				}
			}
			if stu.Departure != nil {
				if stu.Departure.Time != nil {
					t := time.Unix(*stu.Departure.Time, 0).UTC()
					pred.DepartureTime = &t
				}
				if stu.Departure.Delay != nil {
					d := int(*stu.Departure.Delay)
					pred.DepartureDelay = &d
				}
			}
			if pred.ArrivalTime == nil && pred.ArrivalDelay == nil &&
				pred.DepartureTime == nil && pred.DepartureDelay == nil {
				continue
			}

			if index[tripID] == nil {
				index[tripID] = map[int]StopTimePrediction{}
			}
			index[tripID][int(*stu.StopSequence)] = pred
		}
	}

	return index
}
