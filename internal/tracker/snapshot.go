package tracker

import (
	"time"

	"github.com/buswatch-live/tracker/internal/geojson"
)

// GroupView is one tracked group's slice of a snapshot: the vehicle point
// features and the combined route/stop features, both from the same cycle.
type GroupView struct {
	Buses  geojson.FeatureCollection
	Routes geojson.FeatureCollection
}

func newGroupView() *GroupView {
	return &GroupView{
		Buses:  geojson.NewFeatureCollection(),
		Routes: geojson.NewFeatureCollection(),
	}
}

// Snapshot is one polling cycle's complete output. It is built aside, never
// mutated after publication, and replaced as a single unit, so any reader
// holding it sees one internally consistent cycle.
type Snapshot struct {
	ID       string
	PolledAt time.Time
	Groups   map[string]*GroupView
}

// Status summarizes the latest published snapshot for the health endpoint
type Status struct {
	SnapshotID  string         `json:"snapshotId"`
	PolledAt    time.Time      `json:"polledAt"`
	Vehicles    map[string]int `json:"vehicles"`
	CachedTrips int            `json:"cachedTrips"`
}
