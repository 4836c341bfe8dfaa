package schedule

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFixtureTable(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// fixtureDir writes a small but complete static data directory. Stop times
// and shape points are deliberately out of order to exercise load-time
// sorting.
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFixtureTable(t, dir, TripsFile, map[string]Trip{
		"trip-1": {TripID: "trip-1", RouteID: "10", ServiceID: "WEEKDAY", ShapeID: "shape-1", DirectionID: 0, Headsign: "Downtown"},
		"trip-2": {TripID: "trip-2", RouteID: "12", ServiceID: "WEEKEND", DirectionID: 1},
	})

	writeFixtureTable(t, dir, StopTimesFile, map[string][]StopTimeEntry{
		"trip-1": {
			{StopID: "s3", StopSequence: 3, Arrival: "08:45:00", Departure: "08:45:30"},
			{StopID: "s1", StopSequence: 1, Arrival: "08:00:00", Departure: "08:00:30"},
			{StopID: "s2", StopSequence: 2, Arrival: "08:10:00", Departure: "08:10:30"},
		},
	})

	writeFixtureTable(t, dir, StopsFile, map[string]Stop{
		"s1": {StopID: "s1", Name: "Main St", Lat: 40.7128, Lon: -74.0060},
		"s2": {StopID: "s2", Name: "Second Ave", Lat: 40.7200, Lon: -74.0000},
		"s3": {StopID: "s3", Name: "Terminal", Lat: 40.7300, Lon: -73.9900},
	})

	writeFixtureTable(t, dir, ShapesFile, map[string][]ShapePoint{
		"shape-1": {
			{Lat: 40.7200, Lon: -74.0000, Sequence: 2},
			{Lat: 40.7128, Lon: -74.0060, Sequence: 1},
			{Lat: 40.7300, Lon: -73.9900, Sequence: 3},
		},
	})

	writeFixtureTable(t, dir, CalendarFile, map[string]Calendar{
		"WEEKDAY": {
			Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true,
			StartDate: "20250101", EndDate: "20251231",
		},
	})

	writeFixtureTable(t, dir, CalendarDatesFile, map[string][]CalendarException{
		"WEEKDAY": {
			{Date: "20250704", ExceptionType: ExceptionRemoved},
			{Date: "20250302", ExceptionType: ExceptionAdded},
			{Date: "20241230", ExceptionType: ExceptionAdded},
		},
	})

	return dir
}

func TestLoad_BuildsIndexes(t *testing.T) {
	store, err := Load(fixtureDir(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	trip, ok := store.GetTrip("trip-1")
	if !ok {
		t.Fatal("expected trip-1 to be loaded")
	}
	if trip.RouteID != "10" || trip.ShapeID != "shape-1" {
		t.Errorf("unexpected trip: %+v", trip)
	}

	if _, ok := store.GetTrip("nope"); ok {
		t.Error("unknown trip should not resolve")
	}

	stop, ok := store.GetStop("s2")
	if !ok || stop.Name != "Second Ave" {
		t.Errorf("unexpected stop: %+v", stop)
	}

	if store.TripCount() != 2 || store.StopCount() != 3 || store.ShapeCount() != 1 {
		t.Errorf("unexpected counts: %d trips, %d stops, %d shapes",
			store.TripCount(), store.StopCount(), store.ShapeCount())
	}
}

func TestLoad_SortsAndParsesStopTimes(t *testing.T) {
	store, err := Load(fixtureDir(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	entries := store.GetStopTimes("trip-1")
	if len(entries) != 3 {
		t.Fatalf("expected 3 stop times, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].StopSequence < entries[i-1].StopSequence {
			t.Errorf("stop times out of order at %d", i)
		}
	}
	if entries[0].ArrivalSec != 8*3600 {
		t.Errorf("expected first arrival at 28800s, got %d", entries[0].ArrivalSec)
	}
	if entries[2].DepartureSec != 8*3600+45*60+30 {
		t.Errorf("expected last departure at 31530s, got %d", entries[2].DepartureSec)
	}
}

func TestLoad_SortsShapePoints(t *testing.T) {
	store, err := Load(fixtureDir(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	points := store.GetShape("shape-1")
	if len(points) != 3 {
		t.Fatalf("expected 3 shape points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Sequence < points[i-1].Sequence {
			t.Errorf("shape points out of order at %d", i)
		}
	}
	if store.GetShape("missing") != nil {
		t.Error("unknown shape should return nil")
	}
}

func TestLoad_MissingTableFails(t *testing.T) {
	tables := []string{TripsFile, StopTimesFile, StopsFile, ShapesFile, CalendarFile, CalendarDatesFile}
	for _, name := range tables {
		t.Run(name, func(t *testing.T) {
			dir := fixtureDir(t)
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Errorf("Load() should fail without %s", name)
			}
		})
	}
}

func TestLoad_CorruptTableFails(t *testing.T) {
	dir := fixtureDir(t)
	if err := os.WriteFile(filepath.Join(dir, TripsFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load() should fail on corrupt trips.json")
	}
}

func TestLoad_BadScheduledTimeFails(t *testing.T) {
	dir := fixtureDir(t)
	writeFixtureTable(t, dir, StopTimesFile, map[string][]StopTimeEntry{
		"trip-1": {{StopID: "s1", StopSequence: 1, Arrival: "not-a-time", Departure: "08:00:00"}},
	})
	if _, err := Load(dir); err == nil {
		t.Error("Load() should fail on an unparseable scheduled time")
	}
}

func TestIsServiceActiveOnDate(t *testing.T) {
	store, err := Load(fixtureDir(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		serviceID string
		date      time.Time
		want      bool
	}{
		{"weekday inside range", "WEEKDAY", date(2025, time.March, 3), true},       // Monday
		{"weekend flag off", "WEEKDAY", date(2025, time.March, 1), false},          // Saturday
		{"removed exception", "WEEKDAY", date(2025, time.July, 4), false},          // Friday, exception 2
		{"added exception on off day", "WEEKDAY", date(2025, time.March, 2), true}, // Sunday, exception 1
		{"before range despite added exception", "WEEKDAY", date(2024, time.December, 30), false},
		{"after range", "WEEKDAY", date(2026, time.January, 5), false},
		{"unknown service", "NOPE", date(2025, time.March, 3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.IsServiceActiveOnDate(tt.serviceID, tt.date); got != tt.want {
				t.Errorf("IsServiceActiveOnDate(%s, %s) = %v, want %v",
					tt.serviceID, tt.date.Format("20060102"), got, tt.want)
			}
		})
	}
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadManifest(dir); err == nil {
		t.Error("ReadManifest should fail when the manifest is missing")
	}

	writeFixtureTable(t, dir, ManifestFile, Manifest{
		GeneratedAt: "2025-08-01T00:00:00Z",
		Source:      "city.zip",
		Trips:       12,
	})

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if m.Source != "city.zip" || m.Trips != 12 {
		t.Errorf("unexpected manifest: %+v", m)
	}
}
