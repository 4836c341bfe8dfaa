package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
)

// Parse reads a GTFS zip file and returns parsed data.
// trips.txt, stops.txt and stop_times.txt are required; the remaining
// tables default to empty when absent.
func Parse(zipPath string) (*Data, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	data := &Data{
		Shapes: make(map[string][]ShapePoint),
	}

	// Build file map for easy lookup
	files := make(map[string]*zip.File)
	for _, f := range r.File {
		files[f.Name] = f
	}

	required := []string{"trips.txt", "stops.txt", "stop_times.txt"}
	for _, name := range required {
		if _, ok := files[name]; !ok {
			return nil, fmt.Errorf("gtfs zip is missing %s", name)
		}
	}

	if data.Trips, err = parseTrips(files["trips.txt"]); err != nil {
		return nil, fmt.Errorf("failed to parse trips.txt: %w", err)
	}
	if data.Stops, err = parseStops(files["stops.txt"]); err != nil {
		return nil, fmt.Errorf("failed to parse stops.txt: %w", err)
	}
	if data.StopTimes, err = parseStopTimes(files["stop_times.txt"]); err != nil {
		return nil, fmt.Errorf("failed to parse stop_times.txt: %w", err)
	}

	if f, ok := files["shapes.txt"]; ok {
		shapes, err := parseShapes(f)
		if err != nil {
			log.Printf("Warning: failed to parse shapes.txt: %v", err)
		} else {
			data.Shapes = shapes
		}
	}

	if f, ok := files["calendar.txt"]; ok {
		calendars, err := parseCalendars(f)
		if err != nil {
			log.Printf("Warning: failed to parse calendar.txt: %v", err)
		} else {
			data.Calendars = calendars
		}
	}

	if f, ok := files["calendar_dates.txt"]; ok {
		dates, err := parseCalendarDates(f)
		if err != nil {
			log.Printf("Warning: failed to parse calendar_dates.txt: %v", err)
		} else {
			data.CalendarDates = dates
		}
	}

	if len(data.Calendars) == 0 && len(data.CalendarDates) == 0 {
		log.Printf("Warning: gtfs zip has no calendar.txt or calendar_dates.txt; no service will be active")
	}

	log.Printf("GTFS parsed: %d trips, %d stops, %d stop times, %d shapes, %d calendars, %d exceptions",
		len(data.Trips), len(data.Stops), len(data.StopTimes), len(data.Shapes),
		len(data.Calendars), len(data.CalendarDates))

	return data, nil
}

func parseTrips(f *zip.File) ([]Trip, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	var trips []Trip

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		directionID, _ := strconv.Atoi(getField(record, idx, "direction_id"))

		trips = append(trips, Trip{
			RouteID:      getField(record, idx, "route_id"),
			ServiceID:    getField(record, idx, "service_id"),
			TripID:       getField(record, idx, "trip_id"),
			TripHeadsign: getField(record, idx, "trip_headsign"),
			DirectionID:  directionID,
			ShapeID:      getField(record, idx, "shape_id"),
		})
	}

	return trips, nil
}

func parseStops(f *zip.File) ([]Stop, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	var stops []Stop

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat, _ := strconv.ParseFloat(getField(record, idx, "stop_lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, idx, "stop_lon"), 64)

		stops = append(stops, Stop{
			StopID:   getField(record, idx, "stop_id"),
			StopName: getField(record, idx, "stop_name"),
			StopLat:  lat,
			StopLon:  lon,
		})
	}

	return stops, nil
}

func parseStopTimes(f *zip.File) ([]StopTime, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	var stopTimes []StopTime

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		seq, _ := strconv.Atoi(getField(record, idx, "stop_sequence"))

		stopTimes = append(stopTimes, StopTime{
			TripID:        getField(record, idx, "trip_id"),
			ArrivalTime:   getField(record, idx, "arrival_time"),
			DepartureTime: getField(record, idx, "departure_time"),
			StopID:        getField(record, idx, "stop_id"),
			StopSequence:  seq,
		})
	}

	return stopTimes, nil
}

func parseShapes(f *zip.File) (map[string][]ShapePoint, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	shapes := make(map[string][]ShapePoint)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		shapeID := getField(record, idx, "shape_id")
		lat, _ := strconv.ParseFloat(getField(record, idx, "shape_pt_lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, idx, "shape_pt_lon"), 64)
		seq, _ := strconv.Atoi(getField(record, idx, "shape_pt_sequence"))
		dist, _ := strconv.ParseFloat(getField(record, idx, "shape_dist_traveled"), 64)

		shapes[shapeID] = append(shapes[shapeID], ShapePoint{
			ShapeID:           shapeID,
			ShapePtLat:        lat,
			ShapePtLon:        lon,
			ShapePtSequence:   seq,
			ShapeDistTraveled: dist,
		})
	}

	// Sort each shape by sequence
	for shapeID := range shapes {
		sort.Slice(shapes[shapeID], func(i, j int) bool {
			return shapes[shapeID][i].ShapePtSequence < shapes[shapeID][j].ShapePtSequence
		})
	}

	return shapes, nil
}

func parseCalendars(f *zip.File) ([]Calendar, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	var calendars []Calendar

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		calendars = append(calendars, Calendar{
			ServiceID: getField(record, idx, "service_id"),
			Monday:    getField(record, idx, "monday") == "1",
			Tuesday:   getField(record, idx, "tuesday") == "1",
			Wednesday: getField(record, idx, "wednesday") == "1",
			Thursday:  getField(record, idx, "thursday") == "1",
			Friday:    getField(record, idx, "friday") == "1",
			Saturday:  getField(record, idx, "saturday") == "1",
			Sunday:    getField(record, idx, "sunday") == "1",
			StartDate: getField(record, idx, "start_date"),
			EndDate:   getField(record, idx, "end_date"),
		})
	}

	return calendars, nil
}

func parseCalendarDates(f *zip.File) ([]CalendarDate, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	var dates []CalendarDate

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		exceptionType, _ := strconv.Atoi(getField(record, idx, "exception_type"))

		dates = append(dates, CalendarDate{
			ServiceID:     getField(record, idx, "service_id"),
			Date:          getField(record, idx, "date"),
			ExceptionType: exceptionType,
		})
	}

	return dates, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
