package gtfs

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTestZip(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "gtfs.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	return zipPath
}

func fullTestZip(t *testing.T) string {
	t.Helper()
	return writeTestZip(t, map[string]string{
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id,shape_id\n" +
			"10,WEEKDAY,trip-1,Downtown,0,shape-1\n" +
			"10,WEEKDAY,trip-2,Uptown,1,shape-2\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"s1,Main St,40.7128,-74.0060\n" +
			"s2,Second Ave,40.7200,-74.0000\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"trip-1,08:00:00,08:00:30,s1,1\n" +
			"trip-1,08:10:00,08:10:30,s2,2\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence,shape_dist_traveled\n" +
			"shape-1,40.7200,-74.0000,3,0.2\n" +
			"shape-1,40.7128,-74.0060,1,0.0\n" +
			"shape-1,40.7150,-74.0030,2,0.1\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WEEKDAY,1,1,1,1,1,0,0,20250101,20251231\n",
		"calendar_dates.txt": "service_id,date,exception_type\n" +
			"WEEKDAY,20250704,2\n",
	})
}

func TestParse_FullFeed(t *testing.T) {
	data, err := Parse(fullTestZip(t))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(data.Trips) != 2 {
		t.Errorf("expected 2 trips, got %d", len(data.Trips))
	}
	if data.Trips[0].TripID != "trip-1" || data.Trips[0].ServiceID != "WEEKDAY" {
		t.Errorf("unexpected first trip: %+v", data.Trips[0])
	}
	if data.Trips[1].DirectionID != 1 {
		t.Errorf("expected direction_id 1, got %d", data.Trips[1].DirectionID)
	}

	if len(data.Stops) != 2 {
		t.Errorf("expected 2 stops, got %d", len(data.Stops))
	}
	if data.Stops[0].StopLat != 40.7128 {
		t.Errorf("unexpected stop_lat: %v", data.Stops[0].StopLat)
	}

	if len(data.StopTimes) != 2 {
		t.Errorf("expected 2 stop times, got %d", len(data.StopTimes))
	}
	if data.StopTimes[1].ArrivalTime != "08:10:00" || data.StopTimes[1].StopSequence != 2 {
		t.Errorf("unexpected second stop time: %+v", data.StopTimes[1])
	}

	if len(data.Calendars) != 1 {
		t.Fatalf("expected 1 calendar, got %d", len(data.Calendars))
	}
	cal := data.Calendars[0]
	if !cal.Monday || cal.Saturday || cal.StartDate != "20250101" {
		t.Errorf("unexpected calendar: %+v", cal)
	}

	if len(data.CalendarDates) != 1 {
		t.Fatalf("expected 1 calendar date, got %d", len(data.CalendarDates))
	}
	if data.CalendarDates[0].ExceptionType != 2 {
		t.Errorf("expected exception_type 2, got %d", data.CalendarDates[0].ExceptionType)
	}
}

func TestParse_SortsShapesBySequence(t *testing.T) {
	data, err := Parse(fullTestZip(t))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	points := data.Shapes["shape-1"]
	if len(points) != 3 {
		t.Fatalf("expected 3 shape points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].ShapePtSequence < points[i-1].ShapePtSequence {
			t.Errorf("shape points out of order at %d: %d < %d", i, points[i].ShapePtSequence, points[i-1].ShapePtSequence)
		}
	}
}

func TestParse_MissingRequiredTable(t *testing.T) {
	zipPath := writeTestZip(t, map[string]string{
		"trips.txt": "route_id,service_id,trip_id\n10,WEEKDAY,trip-1\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\ns1,Main St,40.0,-74.0\n",
		// no stop_times.txt
	})

	if _, err := Parse(zipPath); err == nil {
		t.Error("Parse() should fail when stop_times.txt is missing")
	}
}

func TestParse_MissingOptionalTables(t *testing.T) {
	zipPath := writeTestZip(t, map[string]string{
		"trips.txt":      "route_id,service_id,trip_id\n10,WEEKDAY,trip-1\n",
		"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon\ns1,Main St,40.0,-74.0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\ntrip-1,08:00:00,08:00:00,s1,1\n",
	})

	data, err := Parse(zipPath)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(data.Shapes) != 0 || len(data.Calendars) != 0 || len(data.CalendarDates) != 0 {
		t.Errorf("expected empty optional tables, got %d shapes, %d calendars, %d dates",
			len(data.Shapes), len(data.Calendars), len(data.CalendarDates))
	}
}
