package schedule

// Trip is one scheduled vehicle run
type Trip struct {
	TripID      string `json:"trip_id"`
	RouteID     string `json:"route_id"`
	ServiceID   string `json:"service_id"`
	ShapeID     string `json:"shape_id,omitempty"`
	DirectionID int    `json:"direction_id"`
	Headsign    string `json:"headsign,omitempty"`
}

// StopTimeEntry is a trip's scheduled visit to one stop. ArrivalSec and
// DepartureSec are derived from the HH:MM:SS strings at load time and may
// exceed 86400 for trips running past midnight.
type StopTimeEntry struct {
	StopID       string `json:"stop_id"`
	StopSequence int    `json:"stop_sequence"`
	Arrival      string `json:"arrival_time"`
	Departure    string `json:"departure_time"`
	ArrivalSec   int    `json:"-"`
	DepartureSec int    `json:"-"`
}

// Stop is a physical stop location
type Stop struct {
	StopID string  `json:"stop_id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// ShapePoint is one vertex of a trip's path polyline
type ShapePoint struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Sequence     int     `json:"sequence"`
	DistTraveled float64 `json:"dist_traveled,omitempty"`
}

// Calendar is a weekly service pattern bounded by start/end dates (YYYYMMDD)
type Calendar struct {
	Monday    bool   `json:"monday"`
	Tuesday   bool   `json:"tuesday"`
	Wednesday bool   `json:"wednesday"`
	Thursday  bool   `json:"thursday"`
	Friday    bool   `json:"friday"`
	Saturday  bool   `json:"saturday"`
	Sunday    bool   `json:"sunday"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CalendarException is a date-specific service override
type CalendarException struct {
	Date          string `json:"date"` // YYYYMMDD
	ExceptionType int    `json:"exception_type"`
}

// Exception types from the calendar-exceptions table
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// Static table file names inside the schedule data directory
const (
	TripsFile         = "trips.json"
	StopTimesFile     = "stop_times.json"
	StopsFile         = "stops.json"
	ShapesFile        = "shapes.json"
	CalendarFile      = "calendar.json"
	CalendarDatesFile = "calendar_dates.json"
	ManifestFile      = "manifest.json"
)

// Manifest describes one converter run over a GTFS zip
type Manifest struct {
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source"`
	Trips       int    `json:"trips"`
	Stops       int    `json:"stops"`
	Shapes      int    `json:"shapes"`
	Services    int    `json:"services"`
}
