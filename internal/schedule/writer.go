package schedule

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/buswatch-live/tracker/internal/gtfs"
)

// WriteTables converts parsed GTFS data into the six static tables the
// store loads and writes them, plus a manifest, into dir. Stop-time rows
// without both an arrival and a departure time are dropped.
func WriteTables(dir string, data *gtfs.Data, source string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	trips := make(map[string]Trip, len(data.Trips))
	for _, t := range data.Trips {
		trips[t.TripID] = Trip{
			TripID:      t.TripID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			ShapeID:     t.ShapeID,
			DirectionID: t.DirectionID,
			Headsign:    t.TripHeadsign,
		}
	}

	stopTimes := make(map[string][]StopTimeEntry)
	dropped := 0
	for _, st := range data.StopTimes {
		if st.ArrivalTime == "" || st.DepartureTime == "" {
			dropped++
			continue
		}
		stopTimes[st.TripID] = append(stopTimes[st.TripID], StopTimeEntry{
			StopID:       st.StopID,
			StopSequence: st.StopSequence,
			Arrival:      st.ArrivalTime,
			Departure:    st.DepartureTime,
		})
	}
	for tripID := range stopTimes {
		entries := stopTimes[tripID]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].StopSequence < entries[j].StopSequence
		})
	}
	if dropped > 0 {
		log.Printf("schedule: dropped %d stop times without scheduled times", dropped)
	}

	stops := make(map[string]Stop, len(data.Stops))
	for _, st := range data.Stops {
		stops[st.StopID] = Stop{
			StopID: st.StopID,
			Name:   st.StopName,
			Lat:    st.StopLat,
			Lon:    st.StopLon,
		}
	}

	shapes := make(map[string][]ShapePoint, len(data.Shapes))
	for shapeID, points := range data.Shapes {
		converted := make([]ShapePoint, len(points))
		for i, p := range points {
			converted[i] = ShapePoint{
				Lat:          p.ShapePtLat,
				Lon:          p.ShapePtLon,
				Sequence:     p.ShapePtSequence,
				DistTraveled: p.ShapeDistTraveled,
			}
		}
		shapes[shapeID] = converted
	}

	calendars := make(map[string]Calendar, len(data.Calendars))
	for _, c := range data.Calendars {
		calendars[c.ServiceID] = Calendar{
			Monday:    c.Monday,
			Tuesday:   c.Tuesday,
			Wednesday: c.Wednesday,
			Thursday:  c.Thursday,
			Friday:    c.Friday,
			Saturday:  c.Saturday,
			Sunday:    c.Sunday,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
		}
	}

	exceptions := make(map[string][]CalendarException)
	for _, cd := range data.CalendarDates {
		exceptions[cd.ServiceID] = append(exceptions[cd.ServiceID], CalendarException{
			Date:          cd.Date,
			ExceptionType: cd.ExceptionType,
		})
	}

	tables := []struct {
		name string
		v    interface{}
	}{
		{TripsFile, trips},
		{StopTimesFile, stopTimes},
		{StopsFile, stops},
		{ShapesFile, shapes},
		{CalendarFile, calendars},
		{CalendarDatesFile, exceptions},
	}
	for _, table := range tables {
		if err := writeJSON(filepath.Join(dir, table.name), table.v); err != nil {
			return fmt.Errorf("failed to write %s: %w", table.name, err)
		}
	}

	manifest := Manifest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      source,
		Trips:       len(trips),
		Stops:       len(stops),
		Shapes:      len(shapes),
		Services:    len(calendars),
	}
	if err := writeJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return fmt.Errorf("failed to write %s: %w", ManifestFile, err)
	}

	log.Printf("schedule: wrote %d trips, %d stops, %d shapes, %d services to %s",
		len(trips), len(stops), len(shapes), len(calendars), dir)
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
