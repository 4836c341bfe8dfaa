package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store holds the static schedule fully indexed in memory. It is built once
// by Load and never mutated afterwards, so it is safe for concurrent readers
// without synchronization.
type Store struct {
	trips      map[string]Trip
	stopTimes  map[string][]StopTimeEntry
	stops      map[string]Stop
	shapes     map[string][]ShapePoint
	calendars  map[string]Calendar
	exceptions map[string][]CalendarException
}

// Load reads the six static tables from dir and builds the indexed store.
// Any missing or unparseable table is a fatal startup condition: the caller
// must not start serving without a complete schedule.
func Load(dir string) (*Store, error) {
	s := &Store{}

	if err := readTable(dir, TripsFile, &s.trips); err != nil {
		return nil, err
	}
	if err := readTable(dir, StopTimesFile, &s.stopTimes); err != nil {
		return nil, err
	}
	if err := readTable(dir, StopsFile, &s.stops); err != nil {
		return nil, err
	}
	if err := readTable(dir, ShapesFile, &s.shapes); err != nil {
		return nil, err
	}
	if err := readTable(dir, CalendarFile, &s.calendars); err != nil {
		return nil, err
	}
	if err := readTable(dir, CalendarDatesFile, &s.exceptions); err != nil {
		return nil, err
	}

	for tripID, entries := range s.stopTimes {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].StopSequence < entries[j].StopSequence
		})
		for i := range entries {
			arr, err := ParseTimeToSeconds(entries[i].Arrival)
			if err != nil {
				return nil, fmt.Errorf("stop time %d of trip %s: %w", entries[i].StopSequence, tripID, err)
			}
			dep, err := ParseTimeToSeconds(entries[i].Departure)
			if err != nil {
				return nil, fmt.Errorf("stop time %d of trip %s: %w", entries[i].StopSequence, tripID, err)
			}
			entries[i].ArrivalSec = arr
			entries[i].DepartureSec = dep
		}
	}

	for _, points := range s.shapes {
		sort.Slice(points, func(i, j int) bool {
			return points[i].Sequence < points[j].Sequence
		})
	}

	return s, nil
}

func readTable(dir, name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// GetTrip looks up a trip by id
func (s *Store) GetTrip(tripID string) (Trip, bool) {
	trip, ok := s.trips[tripID]
	return trip, ok
}

// GetStopTimes returns a trip's stop-time entries sorted by sequence,
// or nil for an unknown trip
func (s *Store) GetStopTimes(tripID string) []StopTimeEntry {
	return s.stopTimes[tripID]
}

// GetStop looks up a stop by id
func (s *Store) GetStop(stopID string) (Stop, bool) {
	stop, ok := s.stops[stopID]
	return stop, ok
}

// GetShape returns a shape's points sorted by sequence, or nil for an
// unknown shape
func (s *Store) GetShape(shapeID string) []ShapePoint {
	return s.shapes[shapeID]
}

// IsServiceActiveOnDate reports whether a service runs on the given date.
// The date is evaluated in its own location; callers pass a time already in
// the schedule's timezone. The calendar range is checked before exceptions:
// a date outside [start_date, end_date] is inactive even when an "added"
// exception exists for it.
func (s *Store) IsServiceActiveOnDate(serviceID string, date time.Time) bool {
	cal, ok := s.calendars[serviceID]
	if !ok {
		return false
	}

	dateKey := date.Format("20060102")
	if dateKey < cal.StartDate || dateKey > cal.EndDate {
		return false
	}

	for _, ex := range s.exceptions[serviceID] {
		if ex.Date == dateKey {
			return ex.ExceptionType == ExceptionAdded
		}
	}

	switch date.Weekday() {
	case time.Monday:
		return cal.Monday
	case time.Tuesday:
		return cal.Tuesday
	case time.Wednesday:
		return cal.Wednesday
	case time.Thursday:
		return cal.Thursday
	case time.Friday:
		return cal.Friday
	case time.Saturday:
		return cal.Saturday
	case time.Sunday:
		return cal.Sunday
	}
	return false
}

// TripCount returns the number of loaded trips
func (s *Store) TripCount() int { return len(s.trips) }

// StopCount returns the number of loaded stops
func (s *Store) StopCount() int { return len(s.stops) }

// ShapeCount returns the number of loaded shapes
func (s *Store) ShapeCount() int { return len(s.shapes) }

// ReadManifest reads the converter manifest from dir. The manifest is
// informational only; a missing manifest is an error the caller may ignore.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return m, nil
}
