package gtfs

// Data represents the parsed contents of a GTFS zip
type Data struct {
	Trips         []Trip
	Stops         []Stop
	StopTimes     []StopTime
	Shapes        map[string][]ShapePoint // keyed by shape_id
	Calendars     []Calendar
	CalendarDates []CalendarDate
}

// Trip represents a trip from trips.txt
type Trip struct {
	RouteID      string
	ServiceID    string
	TripID       string
	TripHeadsign string
	DirectionID  int
	ShapeID      string
}

// Stop represents a stop from stops.txt
type Stop struct {
	StopID   string
	StopName string
	StopLat  float64
	StopLon  float64
}

// StopTime represents a stop time from stop_times.txt
type StopTime struct {
	TripID        string
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  int
}

// ShapePoint represents a point from shapes.txt
type ShapePoint struct {
	ShapeID           string
	ShapePtLat        float64
	ShapePtLon        float64
	ShapePtSequence   int
	ShapeDistTraveled float64
}

// Calendar represents a weekly service pattern from calendar.txt
type Calendar struct {
	ServiceID string
	Monday    bool
	Tuesday   bool
	Wednesday bool
	Thursday  bool
	Friday    bool
	Saturday  bool
	Sunday    bool
	StartDate string // YYYYMMDD
	EndDate   string // YYYYMMDD
}

// CalendarDate represents a service exception from calendar_dates.txt
type CalendarDate struct {
	ServiceID     string
	Date          string // YYYYMMDD
	ExceptionType int    // 1 = service added, 2 = service removed
}
